// Package wire defines the reliable and unreliable packet formats shared by
// every session handler and room worker. Layouts here are normative: a byte
// laid down by one side must be read back the same way by the other,
// server or client.
package wire

import (
	"encoding/binary"
	"errors"
	"io"
)

// MsgType is the reliable-channel message type enum (spec §6.2).
type MsgType uint8

const (
	MsgLogin         MsgType = 1
	MsgLogout        MsgType = 2
	MsgWelcome       MsgType = 3
	MsgCanvasData    MsgType = 4
	MsgSave          MsgType = 5
	MsgDraw          MsgType = 6
	MsgCursor        MsgType = 7
	MsgLine          MsgType = 8
	MsgError         MsgType = 9
	MsgLayerAdd      MsgType = 10
	MsgLayerDel      MsgType = 11
	MsgLayerSelect   MsgType = 12
	MsgLayerSync     MsgType = 13
	MsgLayerReorder  MsgType = 14
	MsgSignature     MsgType = 15
	MsgLayerMove     MsgType = 17
)

// FrameSize is the fixed size of every reliable-channel record (spec §6.1).
const FrameSize = 263

// DataSize is the size of the opaque trailing payload of a Frame.
const DataSize = 256

// SignatureSize is the fixed size of a stored/broadcast signature payload.
const SignatureSize = 256

// Frame is the fixed 263-byte reliable record header plus opaque payload.
type Frame struct {
	Type        MsgType
	CanvasID    uint8
	DataLen     uint16
	LayerCount  uint8
	LayerID     uint8
	UserID      uint8
	Data        [DataSize]byte
}

// Encode writes the frame in its 263-byte wire layout.
func (f *Frame) Encode() []byte {
	buf := make([]byte, FrameSize)
	buf[0] = byte(f.Type)
	buf[1] = f.CanvasID
	binary.LittleEndian.PutUint16(buf[2:4], f.DataLen)
	buf[4] = f.LayerCount
	buf[5] = f.LayerID
	buf[6] = f.UserID
	copy(buf[7:], f.Data[:])
	return buf
}

// DecodeFrame parses exactly FrameSize bytes into a Frame.
func DecodeFrame(buf []byte) (*Frame, error) {
	if len(buf) != FrameSize {
		return nil, errors.New("wire: short frame")
	}
	f := &Frame{
		Type:       MsgType(buf[0]),
		CanvasID:   buf[1],
		DataLen:    binary.LittleEndian.Uint16(buf[2:4]),
		LayerCount: buf[4],
		LayerID:    buf[5],
		UserID:     buf[6],
	}
	copy(f.Data[:], buf[7:])
	return f, nil
}

// ReadFrame reads one fixed-size frame from r.
func ReadFrame(r io.Reader) (*Frame, error) {
	buf := make([]byte, FrameSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return DecodeFrame(buf)
}

// WriteFrame writes one fixed-size frame to w.
func WriteFrame(w io.Writer, f *Frame) error {
	_, err := w.Write(f.Encode())
	return err
}

// Payload returns the significant prefix of Data as indicated by DataLen,
// clamped to DataSize.
func (f *Frame) Payload() []byte {
	n := int(f.DataLen)
	if n > DataSize {
		n = DataSize
	}
	return f.Data[:n]
}

// SetPayload copies src into Data and sets DataLen accordingly. src longer
// than DataSize is truncated.
func (f *Frame) SetPayload(src []byte) {
	n := copy(f.Data[:], src)
	f.DataLen = uint16(n)
}
