package wire

import "testing"

func TestDatagramEncodeDecodeRoundTrip(t *testing.T) {
	d := &Datagram{
		Type: MsgLine, BrushID: 3, LayerID: 1,
		X: -5, Y: 200, EX: 40, EY: -40,
		R: 10, G: 20, B: 30, A: 255,
		Size: 8, Pressure: 128,
	}
	buf := d.Encode()
	if len(buf) != DatagramSize {
		t.Fatalf("expected %d encoded bytes, got %d", DatagramSize, len(buf))
	}
	got, err := DecodeDatagram(buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if *got != *d {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, d)
	}
}

func TestDecodeDatagramRejectsShortBuffer(t *testing.T) {
	if _, err := DecodeDatagram(make([]byte, DatagramSize-1)); err == nil {
		t.Fatal("expected an error decoding a short datagram")
	}
}

func TestDecodeDatagramIgnoresTrailingBytes(t *testing.T) {
	buf := append((&Datagram{Type: MsgCursor, BrushID: 9}).Encode(), 0xFF, 0xFF)
	got, err := DecodeDatagram(buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.Type != MsgCursor || got.BrushID != 9 {
		t.Fatalf("unexpected decode result: %+v", got)
	}
}
