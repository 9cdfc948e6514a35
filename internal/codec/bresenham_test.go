package codec

import "testing"

func TestBresenhamLineIncludesEndpoints(t *testing.T) {
	pts := BresenhamLine(0, 0, 10, 5)
	if len(pts) == 0 {
		t.Fatal("expected at least one point")
	}
	if pts[0] != (Point{0, 0}) {
		t.Fatalf("expected line to start at origin, got %v", pts[0])
	}
	if pts[len(pts)-1] != (Point{10, 5}) {
		t.Fatalf("expected line to end at (10,5), got %v", pts[len(pts)-1])
	}
}

func TestBresenhamLineDegenerate(t *testing.T) {
	pts := BresenhamLine(4, 4, 4, 4)
	if len(pts) != 1 || pts[0] != (Point{4, 4}) {
		t.Fatalf("degenerate line should be a single point, got %v", pts)
	}
}

func TestBresenhamLineSymmetricSteps(t *testing.T) {
	pts := BresenhamLine(-3, -3, 3, 3)
	for i, p := range pts {
		if p.X != p.Y {
			t.Fatalf("expected a 45-degree line to keep x==y at every step, point %d was %v", i, p)
		}
	}
	if len(pts) != 7 {
		t.Fatalf("expected 7 points for a diagonal of length 6, got %d", len(pts))
	}
}
