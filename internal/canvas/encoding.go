package canvas

import (
	"encoding/base64"
	"encoding/binary"

	"github.com/paintmesh/server/internal/codec"
)

// EncodeLayerPixels produces the persisted form of one drawable layer: a
// stream of W*H big-endian 32-bit (r<<24|g<<16|b<<8|a) words in y-major
// then x order, PackBits-compressed, then base64-wrapped with the
// standard alphabet (spec §4.6).
func EncodeLayerPixels(l *Layer) []byte {
	raw := make([]byte, l.W*l.H*4)
	for i, p := range l.pixels {
		word := uint32(p.R)<<24 | uint32(p.G)<<16 | uint32(p.B)<<8 | uint32(p.A)
		binary.BigEndian.PutUint32(raw[i*4:], word)
	}
	packed := codec.PackBitsEncode(raw)
	out := make([]byte, base64.StdEncoding.EncodedLen(len(packed)))
	base64.StdEncoding.Encode(out, packed)
	return out
}

// DecodeLayerPixels reverses EncodeLayerPixels into a new Layer sized
// w x h, clipping the decoded word stream to that rectangle if the
// encoded dimensions disagree (spec §4.6 loading).
func DecodeLayerPixels(data []byte, srcW, srcH, w, h int) (*Layer, error) {
	packed := make([]byte, base64.StdEncoding.DecodedLen(len(data)))
	n, err := base64.StdEncoding.Decode(packed, data)
	if err != nil {
		return nil, err
	}
	raw := codec.PackBitsDecode(packed[:n])

	l := NewLayer(w, h, false)
	for y := 0; y < srcH && y < h; y++ {
		for x := 0; x < srcW && x < w; x++ {
			o := (y*srcW + x) * 4
			if o+4 > len(raw) {
				continue
			}
			word := binary.BigEndian.Uint32(raw[o : o+4])
			l.pixels[y*w+x] = codec.Pixel{
				R: uint8(word >> 24),
				G: uint8(word >> 16),
				B: uint8(word >> 8),
				A: uint8(word),
			}
		}
	}
	l.dirty = true
	return l, nil
}
