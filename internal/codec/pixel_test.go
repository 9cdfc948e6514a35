package codec

import "testing"

func TestSourceOverOpaqueOverOpaque(t *testing.T) {
	src := Pixel{R: 0, G: 0, B: 0, A: 255}
	dst := OpaqueWhite
	got := SourceOver(src, dst)
	want := Pixel{R: 0, G: 0, B: 0, A: 255}
	if got != want {
		t.Fatalf("opaque source-over should fully replace: got %+v want %+v", got, want)
	}
}

func TestSourceOverHalfAlphaBlends(t *testing.T) {
	src := Pixel{R: 255, G: 0, B: 0, A: 128}
	dst := Pixel{R: 0, G: 255, B: 0, A: 255}
	got := SourceOver(src, dst)
	if got.R == 0 || got.G == 0 {
		t.Fatalf("half-alpha red over green should mix both channels, got %+v", got)
	}
	if got.A != 255 {
		t.Fatalf("blending over an opaque destination must stay opaque, got alpha %d", got.A)
	}
}

func TestSourceOverTransparentOverTransparentIsTransparent(t *testing.T) {
	got := SourceOver(Transparent, Transparent)
	if got != Transparent {
		t.Fatalf("expected transparent result, got %+v", got)
	}
}

func TestEraserSubtractClampsToTransparent(t *testing.T) {
	dst := Pixel{R: 10, G: 20, B: 30, A: 50}
	src := Pixel{A: 200}
	got := EraserSubtract(src, dst)
	if got != Transparent {
		t.Fatalf("erase strength exceeding destination alpha should yield transparent, got %+v", got)
	}
}

func TestEraserSubtractPreservesRGBWhileAlphaRemains(t *testing.T) {
	dst := Pixel{R: 10, G: 20, B: 30, A: 200}
	src := Pixel{A: 50}
	got := EraserSubtract(src, dst)
	want := Pixel{R: 10, G: 20, B: 30, A: 150}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestApplyReplaceIgnoresDestination(t *testing.T) {
	dst := OpaqueWhite
	got := Apply(Transparent, dst, ModeReplace)
	if got != Transparent {
		t.Fatalf("replace mode should ignore destination, got %+v", got)
	}
}
