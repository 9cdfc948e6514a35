package codec

import "testing"

func TestPackBitsRoundTrip(t *testing.T) {
	cases := [][]byte{
		nil,
		{1},
		{7, 7, 7, 7, 7, 1, 2, 3, 7, 7, 8, 8, 8, 8}, // S4 input
		bytesOf(0, 500),
		bytesOf(9, 2),
		sequentialBytes(300),
	}

	for i, in := range cases {
		enc := PackBitsEncode(in)
		out := PackBitsDecode(enc)
		if !bytesEqual(out, in) {
			t.Fatalf("case %d: round-trip mismatch: in=%v out=%v", i, in, out)
		}
	}
}

func TestPackBitsEmitsRunsForLongStretches(t *testing.T) {
	in := bytesOf(0xAB, 10)
	enc := PackBitsEncode(in)
	if len(enc) != 2 {
		t.Fatalf("expected a single (header,payload) run pair, got %d bytes: %v", len(enc), enc)
	}
	if int8(enc[0]) != int8(1-10) {
		t.Fatalf("expected run header -9, got %d", int8(enc[0]))
	}
}

func TestPackBitsLiteralCapAt128(t *testing.T) {
	in := sequentialBytes(300) // no repeats, forces literal runs capped at 128
	enc := PackBitsEncode(in)
	out := PackBitsDecode(enc)
	if !bytesEqual(out, in) {
		t.Fatal("literal-run round trip failed")
	}
}

func bytesOf(v byte, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = v
	}
	return b
}

func sequentialBytes(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*37 + 1) // avoid accidental runs
	}
	return b
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
