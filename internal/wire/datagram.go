package wire

import (
	"encoding/binary"
	"errors"
)

// DatagramSize is the fixed size of every unreliable UDP packet (spec §6.2).
const DatagramSize = 18

// Datagram is the DRAW / LINE / CURSOR unreliable wire record.
type Datagram struct {
	Type     MsgType // MsgDraw, MsgLine, or MsgCursor
	BrushID  uint8   // for MsgCursor this carries the sender's room_uid
	LayerID  uint8
	X        int16
	Y        int16
	EX       int16 // DRAW: stroke angle in degrees; LINE: endpoint X
	EY       int16
	R, G, B, A uint8
	Size     uint8
	Pressure uint8
}

// Encode writes the datagram in its 18-byte wire layout.
func (d *Datagram) Encode() []byte {
	buf := make([]byte, DatagramSize)
	buf[0] = byte(d.Type)
	buf[1] = d.BrushID
	buf[2] = d.LayerID
	binary.LittleEndian.PutUint16(buf[3:5], uint16(d.X))
	binary.LittleEndian.PutUint16(buf[5:7], uint16(d.Y))
	binary.LittleEndian.PutUint16(buf[7:9], uint16(d.EX))
	binary.LittleEndian.PutUint16(buf[9:11], uint16(d.EY))
	buf[11] = d.R
	buf[12] = d.G
	buf[13] = d.B
	buf[14] = d.A
	buf[15] = d.Size
	buf[16] = d.Pressure
	return buf
}

// DecodeDatagram parses the first DatagramSize bytes of buf into a
// Datagram; trailing bytes are ignored and a shorter buf is an error.
func DecodeDatagram(buf []byte) (*Datagram, error) {
	if len(buf) < DatagramSize {
		return nil, errors.New("wire: short datagram")
	}
	return &Datagram{
		Type:     MsgType(buf[0]),
		BrushID:  buf[1],
		LayerID:  buf[2],
		X:        int16(binary.LittleEndian.Uint16(buf[3:5])),
		Y:        int16(binary.LittleEndian.Uint16(buf[5:7])),
		EX:       int16(binary.LittleEndian.Uint16(buf[7:9])),
		EY:       int16(binary.LittleEndian.Uint16(buf[9:11])),
		R:        buf[11],
		G:        buf[12],
		B:        buf[13],
		A:        buf[14],
		Size:     buf[15],
		Pressure: buf[16],
	}, nil
}
