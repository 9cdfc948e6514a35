// Package codec implements the pure compositing and rasterization functions
// that both the server and any conforming client must agree on bit-for-bit:
// straight-alpha source-over blending, Bresenham line interpolation, and the
// PackBits byte compressor used by the persistence format.
package codec

// Pixel is a straight (non-premultiplied) RGBA color, matching the wire and
// storage byte order exactly.
type Pixel struct {
	R, G, B, A uint8
}

// Transparent is the zero-value fully transparent black pixel.
var Transparent = Pixel{0, 0, 0, 0}

// OpaqueWhite is the paper layer's fill color.
var OpaqueWhite = Pixel{255, 255, 255, 255}

// WriteMode selects how a brush-produced pixel is applied to a layer.
type WriteMode int

const (
	// ModeSourceOver blends src over dst using straight-alpha source-over.
	ModeSourceOver WriteMode = iota
	// ModeReplace overwrites the destination pixel verbatim (hard eraser).
	ModeReplace
	// ModeEraserSubtract subtracts src.A from dst.A, clamped to zero,
	// leaving RGB untouched unless the result alpha is zero.
	ModeEraserSubtract
)

// SourceOver composites src over dst using straight-alpha "source-over"
// blending (spec §4.5). All channels are in [0,255].
func SourceOver(src, dst Pixel) Pixel {
	sa := float64(src.A) / 255
	da := float64(dst.A) / 255
	oa := sa + da*(1-sa)
	if oa == 0 {
		return Transparent
	}
	blend := func(s, d uint8) uint8 {
		o := (float64(s)*sa + float64(d)*da*(1-sa)) / oa
		return clampByte(o)
	}
	return Pixel{
		R: blend(src.R, dst.R),
		G: blend(src.G, dst.G),
		B: blend(src.B, dst.B),
		A: clampByte(oa * 255),
	}
}

// EraserSubtract subtracts the erase strength carried in src.A from dst.A,
// clamping at zero. RGB is preserved except when the result alpha reaches
// zero, in which case RGB MAY be zeroed (it is, here, for a canonical
// result independent of prior RGB garbage in fully-erased pixels).
func EraserSubtract(src, dst Pixel) Pixel {
	newA := int(dst.A) - int(src.A)
	if newA <= 0 {
		return Transparent
	}
	return Pixel{R: dst.R, G: dst.G, B: dst.B, A: uint8(newA)}
}

// Apply applies src to dst according to mode.
func Apply(src, dst Pixel, mode WriteMode) Pixel {
	switch mode {
	case ModeReplace:
		return src
	case ModeEraserSubtract:
		return EraserSubtract(src, dst)
	default:
		return SourceOver(src, dst)
	}
}

// Attenuate scales a pixel's alpha by a presentation opacity multiplier
// m/255, as used when a renderer flattens layers for display (spec §4.5).
// It never mutates stored canonical bitmaps.
func Attenuate(p Pixel, m uint8) Pixel {
	a := int(p.A) * int(m) / 255
	return Pixel{R: p.R, G: p.G, B: p.B, A: uint8(a)}
}

func clampByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
