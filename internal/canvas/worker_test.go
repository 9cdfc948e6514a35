package canvas

import (
	"testing"

	"github.com/paintmesh/server/internal/wire"
)

func TestApplyDrawStampsTheAddressedLayer(t *testing.T) {
	r := newTestRoom()
	dg := &wire.Datagram{
		Type: wire.MsgDraw, BrushID: 1, LayerID: 1,
		X: 10, Y: 10, EX: 0, EY: 0,
		R: 255, G: 0, B: 0, A: 255,
		Size: 3, Pressure: 255,
	}
	r.applyDraw(dg)
	if got := r.Layers()[1].At(10, 10); got.A == 0 {
		t.Fatal("expected applyDraw to leave an opaque mark at the stamp center")
	}
}

func TestApplyLineStampsBothEndpoints(t *testing.T) {
	r := newTestRoom()
	dg := &wire.Datagram{
		Type: wire.MsgLine, BrushID: 1, LayerID: 1,
		X: 5, Y: 5, EX: 15, EY: 5,
		R: 0, G: 255, B: 0, A: 255,
		Size: 3, Pressure: 255,
	}
	r.applyLine(dg)
	layer := r.Layers()[1]
	if layer.At(5, 5).A == 0 {
		t.Fatal("expected a mark at the line's start point")
	}
	if layer.At(15, 5).A == 0 {
		t.Fatal("expected a mark at the line's end point")
	}
}

func TestMinFMaxF(t *testing.T) {
	if minF(1, 2) != 1 || minF(2, 1) != 1 {
		t.Fatal("minF mismatch")
	}
	if maxF(1, 2) != 2 || maxF(2, 1) != 2 {
		t.Fatal("maxF mismatch")
	}
}
