package brush

import (
	"math"

	"github.com/paintmesh/server/internal/codec"
)

// bristlePattern is a fixed 32-sample modulation curve for the textured
// brush, giving it an uneven, bristle-like density along the stroke's
// perpendicular axis instead of a uniform disc.
var bristlePattern = [32]float64{
	0.92, 0.44, 0.81, 0.63, 0.97, 0.28, 0.70, 0.55,
	0.88, 0.39, 0.76, 0.60, 0.94, 0.33, 0.67, 0.50,
	0.90, 0.41, 0.78, 0.58, 0.95, 0.30, 0.72, 0.53,
	0.86, 0.37, 0.74, 0.61, 0.93, 0.35, 0.69, 0.48,
}

func stampTextured(p Params) []Write {
	radius := float64(p.Size) / 2
	if radius <= 0 {
		return nil
	}
	pr := math.Sqrt(float64(p.Pressure) / 255)
	theta := float64(p.AngleDegrees) * math.Pi / 180
	// direction along the stroke and its perpendicular
	dirX, dirY := math.Cos(theta), math.Sin(theta)
	perpX, perpY := -dirY, dirX

	var out []Write
	length := int(math.Ceil(radius))
	for along := -length; along <= length; along++ {
		tipFalloff := 1.0
		edge := clamp01(1 - math.Abs(float64(along))/radius)
		tipFalloff = edge * edge * edge * edge // quartic edge falloff

		for i, bristle := range bristlePattern {
			perpOffset := (float64(i)/float64(len(bristlePattern)-1) - 0.5) * radius
			x := p.CenterX + int(math.Round(float64(along)*dirX+perpOffset*perpX))
			y := p.CenterY + int(math.Round(float64(along)*dirY+perpOffset*perpY))
			if !inBounds(x, y, p.W, p.H) {
				continue
			}
			strength := bristle * pr * tipFalloff
			if strength <= 0 {
				continue
			}
			out = append(out, Write{
				X: x, Y: y,
				Pixel: scaleAlpha(p.Color, strength),
				Mode:  codec.ModeSourceOver,
			})
		}
	}
	return out
}
