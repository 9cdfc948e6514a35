// Package brush implements the fixed brush catalog of spec §4.1: pure
// stamping functions mapping a center point, color, size, pressure and
// angle to a set of pixel writes. Every brush clamps its writes to the
// caller-supplied rectangle.
package brush

import (
	"math"

	"github.com/paintmesh/server/internal/codec"
)

// ID identifies one catalog entry.
type ID uint8

const (
	Round       ID = 0
	Square      ID = 1
	HardEraser  ID = 2
	SoftEraser  ID = 3
	Pressure    ID = 4
	Airbrush    ID = 5
	Textured    ID = 6
)

// Write is one pixel produced by a brush stamp.
type Write struct {
	X, Y  int
	Pixel codec.Pixel
	Mode  codec.WriteMode
}

// Params are the inputs to a single stamp, per spec §4.1.
type Params struct {
	CenterX, CenterY int
	Color            codec.Pixel
	Size             uint8
	Pressure         uint8 // 0..255
	AngleDegrees     int
	W, H             int // layer rectangle, for clamping
}

// Stamper is one catalog entry's pure stamping function.
type Stamper func(p Params) []Write

// Catalog is the fixed, ordered brush table. It is a value handed to
// constructors rather than a package global (spec §9's "global mutable
// state" note), so a Room or session never depends on process-wide state.
type Catalog struct {
	stampers [7]Stamper
}

// NewCatalog builds the standard seven-brush catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		stampers: [7]Stamper{
			Round:      stampRound,
			Square:     stampSquare,
			HardEraser: stampHardEraser,
			SoftEraser: stampSoftEraser,
			Pressure:   stampPressure,
			Airbrush:   stampAirbrush,
			Textured:   stampTextured,
		},
	}
}

// Stamp invokes brush id with the given params, clamping any out-of-range
// id to Round so a malformed packet never panics.
func (c *Catalog) Stamp(id ID, p Params) []Write {
	if int(id) < 0 || int(id) >= len(c.stampers) || c.stampers[id] == nil {
		return stampRound(p)
	}
	return c.stampers[id](p)
}

// WriteMode reports which blend mode a brush's writes should be applied
// with; a consumer must branch on brush id for the eraser variants
// (spec §4.1).
func WriteMode(id ID) codec.WriteMode {
	switch id {
	case HardEraser:
		return codec.ModeReplace
	case SoftEraser:
		return codec.ModeEraserSubtract
	default:
		return codec.ModeSourceOver
	}
}

func inBounds(x, y, w, h int) bool {
	return x >= 0 && x < w && y >= 0 && y < h
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func scaleAlpha(c codec.Pixel, m float64) codec.Pixel {
	a := int(math.Round(float64(c.A) * clamp01(m)))
	if a < 0 {
		a = 0
	}
	if a > 255 {
		a = 255
	}
	return codec.Pixel{R: c.R, G: c.G, B: c.B, A: uint8(a)}
}

func stampRound(p Params) []Write {
	radius := float64(int(p.Size) / 2)
	r2 := radius * radius
	var out []Write
	ir := int(radius)
	for dy := -ir; dy <= ir; dy++ {
		for dx := -ir; dx <= ir; dx++ {
			if float64(dx*dx+dy*dy) > r2 {
				continue
			}
			x, y := p.CenterX+dx, p.CenterY+dy
			if !inBounds(x, y, p.W, p.H) {
				continue
			}
			out = append(out, Write{X: x, Y: y, Pixel: p.Color, Mode: codec.ModeSourceOver})
		}
	}
	return out
}

func stampSquare(p Params) []Write {
	half := int(p.Size) / 2
	var out []Write
	for dy := -half; dy <= half; dy++ {
		for dx := -half; dx <= half; dx++ {
			x, y := p.CenterX+dx, p.CenterY+dy
			if !inBounds(x, y, p.W, p.H) {
				continue
			}
			out = append(out, Write{X: x, Y: y, Pixel: p.Color, Mode: codec.ModeSourceOver})
		}
	}
	return out
}

func stampHardEraser(p Params) []Write {
	half := int(p.Size) / 2
	var out []Write
	for dy := -half; dy <= half; dy++ {
		for dx := -half; dx <= half; dx++ {
			x, y := p.CenterX+dx, p.CenterY+dy
			if !inBounds(x, y, p.W, p.H) {
				continue
			}
			out = append(out, Write{X: x, Y: y, Pixel: codec.Transparent, Mode: codec.ModeReplace})
		}
	}
	return out
}

func stampSoftEraser(p Params) []Write {
	radius := float64(p.Size) / 2
	if radius <= 0 {
		return nil
	}
	pr := float64(p.Pressure) / 255
	var out []Write
	ir := int(math.Ceil(radius))
	for dy := -ir; dy <= ir; dy++ {
		for dx := -ir; dx <= ir; dx++ {
			dist := math.Hypot(float64(dx), float64(dy))
			if dist > radius {
				continue
			}
			x, y := p.CenterX+dx, p.CenterY+dy
			if !inBounds(x, y, p.W, p.H) {
				continue
			}
			t := clamp01(1 - dist/radius)
			falloff := t * t * t // cubic falloff
			strength := falloff * pr
			out = append(out, Write{
				X: x, Y: y,
				Pixel: codec.Pixel{A: uint8(math.Round(strength * 255))},
				Mode:  codec.ModeEraserSubtract,
			})
		}
	}
	return out
}

func stampPressure(p Params) []Write {
	pr := float64(p.Pressure) / 255
	diameter := float64(p.Size) * (0.3 + 0.7*pr)
	radius := diameter / 2
	feather := 1.5
	alphaScale := 0.2 + 0.8*math.Sqrt(pr)
	var out []Write
	ir := int(math.Ceil(radius + feather))
	for dy := -ir; dy <= ir; dy++ {
		for dx := -ir; dx <= ir; dx++ {
			dist := math.Hypot(float64(dx), float64(dy))
			if dist > radius+feather {
				continue
			}
			x, y := p.CenterX+dx, p.CenterY+dy
			if !inBounds(x, y, p.W, p.H) {
				continue
			}
			edge := 1.0
			if dist > radius-feather {
				edge = clamp01((radius + feather - dist) / (2 * feather))
			}
			out = append(out, Write{
				X: x, Y: y,
				Pixel: scaleAlpha(p.Color, alphaScale*edge),
				Mode:  codec.ModeSourceOver,
			})
		}
	}
	return out
}

func stampAirbrush(p Params) []Write {
	pr := float64(p.Pressure) / 255
	radius := float64(p.Size) * (0.5 + 0.5*pr)
	if radius <= 0 {
		return nil
	}
	alphaMul := 0.15 + 0.85*pr
	var out []Write
	ir := int(math.Ceil(radius))
	for dy := -ir; dy <= ir; dy++ {
		for dx := -ir; dx <= ir; dx++ {
			dist2 := float64(dx*dx + dy*dy)
			r2 := radius * radius
			if dist2 > r2 {
				continue
			}
			x, y := p.CenterX+dx, p.CenterY+dy
			if !inBounds(x, y, p.W, p.H) {
				continue
			}
			falloff := 1 - dist2/r2 // squared radial falloff
			out = append(out, Write{
				X: x, Y: y,
				Pixel: scaleAlpha(p.Color, alphaMul*falloff),
				Mode:  codec.ModeSourceOver,
			})
		}
	}
	return out
}
