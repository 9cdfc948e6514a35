// Package canvas implements the per-canvas concurrent state machine:
// Layer, Room, and the process-wide Registry, following the teacher's
// guarded-map-of-connections shape but owning pixels exclusively per Room
// rather than sharing raw buffer pointers across goroutines.
package canvas

import (
	"github.com/paintmesh/server/internal/codec"
)

// Layer owns one fixed W x H RGBA frame plus dirty tracking and a cached
// serialized form (spec §4.2).
type Layer struct {
	W, H     int
	pixels   []codec.Pixel
	dirty    bool
	cached   []byte
}

// NewLayer allocates a W x H layer, opaque white if opaque is true,
// otherwise fully transparent.
func NewLayer(w, h int, opaque bool) *Layer {
	l := &Layer{W: w, H: h, pixels: make([]codec.Pixel, w*h)}
	fill := codec.Transparent
	if opaque {
		fill = codec.OpaqueWhite
	}
	for i := range l.pixels {
		l.pixels[i] = fill
	}
	l.dirty = true
	return l
}

func (l *Layer) index(x, y int) (int, bool) {
	if x < 0 || x >= l.W || y < 0 || y >= l.H {
		return 0, false
	}
	return y*l.W + x, true
}

// At returns the pixel at (x,y), or transparent black if out of range.
func (l *Layer) At(x, y int) codec.Pixel {
	i, ok := l.index(x, y)
	if !ok {
		return codec.Transparent
	}
	return l.pixels[i]
}

// Write applies src at (x,y) using mode, silently dropping out-of-range
// coordinates (spec §4.2).
func (l *Layer) Write(x, y int, src codec.Pixel, mode codec.WriteMode) {
	i, ok := l.index(x, y)
	if !ok {
		return
	}
	l.pixels[i] = codec.Apply(src, l.pixels[i], mode)
	l.markDirty()
}

func (l *Layer) markDirty() {
	l.dirty = true
	l.cached = nil
}

// Dirty reports whether the layer has mutated since the last Serialize.
func (l *Layer) Dirty() bool { return l.dirty }

// Raw returns the raw W*H*4 RGBA byte buffer in row-major order, as used
// by WELCOME bitmap replies and LAYER_SYNC payloads.
func (l *Layer) Raw() []byte {
	buf := make([]byte, 0, l.W*l.H*4)
	for _, p := range l.pixels {
		buf = append(buf, p.R, p.G, p.B, p.A)
	}
	return buf
}

// ReplaceRaw overwrites the entire buffer from exactly W*H*4 raw bytes.
func (l *Layer) ReplaceRaw(buf []byte) bool {
	if len(buf) != l.W*l.H*4 {
		return false
	}
	for i := range l.pixels {
		o := i * 4
		l.pixels[i] = codec.Pixel{R: buf[o], G: buf[o+1], B: buf[o+2], A: buf[o+3]}
	}
	l.markDirty()
	return true
}

// Translate rebuilds the layer as a fresh transparent frame with every
// source pixel moved by (dx,dy); pixels whose destination falls outside
// the rectangle are discarded and uncovered destinations become
// transparent (spec §4.2).
func (l *Layer) Translate(dx, dy int) {
	next := make([]codec.Pixel, l.W*l.H)
	for y := 0; y < l.H; y++ {
		for x := 0; x < l.W; x++ {
			src := l.pixels[y*l.W+x]
			if src.A == 0 && src.R == 0 && src.G == 0 && src.B == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if nx < 0 || nx >= l.W || ny < 0 || ny >= l.H {
				continue
			}
			next[ny*l.W+nx] = src
		}
	}
	l.pixels = next
	l.markDirty()
}

// Serialize returns the cached encoded form when clean, otherwise encodes
// via PackBits+base64 (spec §6.3, §4.6) and caches the result.
func (l *Layer) Serialize() []byte {
	if !l.dirty && l.cached != nil {
		return l.cached
	}
	enc := EncodeLayerPixels(l)
	l.cached = enc
	l.dirty = false
	return enc
}
