package codec

// Point is an integer pixel coordinate.
type Point struct {
	X, Y int
}

// BresenhamLine returns every integer point on the line from (x0,y0) to
// (x1,y1) inclusive of both endpoints, using the standard integer
// Bresenham algorithm (spec §4.5). The server and a conforming client must
// produce the identical sequence of points for the same inputs.
func BresenhamLine(x0, y0, x1, y1 int) []Point {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 >= x1 {
		sx = -1
	}
	sy := 1
	if y0 >= y1 {
		sy = -1
	}
	err := dx + dy

	var pts []Point
	x, y := x0, y0
	for {
		pts = append(pts, Point{x, y})
		if x == x1 && y == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
	return pts
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
