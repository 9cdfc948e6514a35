package canvas

import (
	"testing"

	"github.com/paintmesh/server/internal/codec"
)

func TestNewLayerFillAndDirty(t *testing.T) {
	paper := NewLayer(4, 4, true)
	if !paper.Dirty() {
		t.Fatal("a freshly constructed layer must start dirty")
	}
	if got := paper.At(0, 0); got != codec.OpaqueWhite {
		t.Fatalf("paper layer should start opaque white, got %+v", got)
	}

	drawable := NewLayer(4, 4, false)
	if got := drawable.At(0, 0); got != codec.Transparent {
		t.Fatalf("drawable layer should start transparent, got %+v", got)
	}
}

func TestLayerWriteOutOfRangeIsDropped(t *testing.T) {
	l := NewLayer(4, 4, false)
	l.Serialize() // clear dirty
	l.Write(-1, 0, codec.OpaqueWhite, codec.ModeReplace)
	l.Write(100, 100, codec.OpaqueWhite, codec.ModeReplace)
	if l.Dirty() {
		t.Fatal("an out-of-range write must not mark the layer dirty")
	}
}

func TestLayerSerializeCachesUntilDirty(t *testing.T) {
	l := NewLayer(4, 4, false)
	first := l.Serialize()
	if l.Dirty() {
		t.Fatal("serialize must clear the dirty flag")
	}
	second := l.Serialize()
	if &first[0] != &second[0] && string(first) != string(second) {
		t.Fatal("serialize should return the identical cached bytes when clean")
	}

	l.Write(1, 1, codec.OpaqueWhite, codec.ModeReplace)
	if !l.Dirty() {
		t.Fatal("a write must mark the layer dirty again")
	}
	third := l.Serialize()
	if string(third) == string(first) {
		t.Fatal("serialize after a mutation should not equal the stale cache")
	}
}

func TestLayerRoundTripRaw(t *testing.T) {
	l := NewLayer(3, 3, false)
	l.Write(1, 1, codec.Pixel{R: 9, G: 8, B: 7, A: 255}, codec.ModeReplace)
	raw := l.Raw()
	if len(raw) != 3*3*4 {
		t.Fatalf("expected %d raw bytes, got %d", 3*3*4, len(raw))
	}

	l2 := NewLayer(3, 3, false)
	if !l2.ReplaceRaw(raw) {
		t.Fatal("ReplaceRaw rejected a correctly sized buffer")
	}
	if got := l2.At(1, 1); got != (codec.Pixel{R: 9, G: 8, B: 7, A: 255}) {
		t.Fatalf("round trip through Raw/ReplaceRaw lost data: got %+v", got)
	}
}

func TestLayerReplaceRawRejectsWrongLength(t *testing.T) {
	l := NewLayer(3, 3, false)
	if l.ReplaceRaw([]byte{1, 2, 3}) {
		t.Fatal("ReplaceRaw should reject a buffer of the wrong length")
	}
}

func TestLayerTranslateShiftsPixelsAndDropsOutOfBounds(t *testing.T) {
	l := NewLayer(4, 4, false)
	l.Write(0, 0, codec.Pixel{R: 1, A: 255}, codec.ModeReplace)
	l.Write(3, 3, codec.Pixel{R: 2, A: 255}, codec.ModeReplace)

	l.Translate(1, 1)

	if got := l.At(1, 1); got.R != 1 {
		t.Fatalf("expected pixel moved to (1,1), got %+v", got)
	}
	if got := l.At(0, 0); got != codec.Transparent {
		t.Fatalf("uncovered origin should be transparent after translate, got %+v", got)
	}
	// (3,3) + (1,1) = (4,4), outside a 4x4 layer: must be dropped.
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if x == 1 && y == 1 {
				continue
			}
			if l.At(x, y).R == 2 {
				t.Fatalf("pixel translated out of bounds should have been discarded, found at (%d,%d)", x, y)
			}
		}
	}
}

func TestEncodeDecodeLayerPixelsRoundTrip(t *testing.T) {
	l := NewLayer(5, 5, false)
	l.Write(2, 2, codec.Pixel{R: 11, G: 22, B: 33, A: 44}, codec.ModeReplace)
	l.Write(0, 4, codec.Pixel{R: 255, G: 0, B: 0, A: 255}, codec.ModeReplace)

	encoded := EncodeLayerPixels(l)
	decoded, err := DecodeLayerPixels(encoded, 5, 5, 5, 5)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got := decoded.At(2, 2); got != (codec.Pixel{R: 11, G: 22, B: 33, A: 44}) {
		t.Fatalf("decoded pixel mismatch at (2,2): %+v", got)
	}
	if got := decoded.At(0, 4); got != (codec.Pixel{R: 255, G: 0, B: 0, A: 255}) {
		t.Fatalf("decoded pixel mismatch at (0,4): %+v", got)
	}
}
