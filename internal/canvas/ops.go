package canvas

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/paintmesh/server/internal/brush"
	"github.com/paintmesh/server/internal/codec"
	"github.com/paintmesh/server/internal/wire"
)

var (
	ErrNoSuchLayer = errors.New("canvas: no such layer")
	ErrPaperLayer  = errors.New("canvas: paper layer is not addressable")
)

// paperIndex is the always-present, non-removable background layer.
const paperIndex = 0

func (r *Room) layerBounds(index int) bool {
	return index > paperIndex && index < len(r.layers)
}

// clampLayerIndex restricts a client-supplied layer index to [1, count),
// defaulting to 1 for anything outside that range (spec §4.3: "i >= 1;
// clamped to [1, len) else defaults to 1"), so a stamp or stroke can
// never land on the paper layer.
func clampLayerIndex(index, count int) int {
	if index < 1 || index >= count {
		return 1
	}
	return index
}

// broadcastReliableLocked writes payload to every subscriber other than
// except. Caller must already hold r.mu; a write failure is ignored per
// spec §4.4/§7 — the failing peer's own session handler detects the
// close independently.
func (r *Room) broadcastReliableLocked(except Subscriber, payload []byte) {
	for c := range r.users {
		if c == except {
			continue
		}
		_, _ = c.Write(payload)
	}
}

// AddLayer inserts a new transparent layer at position at, appending
// when at is zero or past the current end, and broadcasts LAYER_ADD with
// the resulting layer count and insertion index to every subscriber
// (spec §4.3). A no-op at MaxLayers capacity (spec §7).
func (r *Room) AddLayer(at int) (index int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.layers) >= MaxLayers {
		return 0, ErrCapacity
	}
	if at <= paperIndex || at >= len(r.layers) {
		at = len(r.layers)
	}
	fresh := NewLayer(r.W, r.H, false)
	r.layers = append(r.layers[:at], append([]*Layer{fresh}, r.layers[at:]...)...)
	r.dirty = true

	frame := wire.Frame{Type: wire.MsgLayerAdd, CanvasID: uint8(r.ID), LayerCount: uint8(len(r.layers)), LayerID: uint8(at)}
	r.broadcastReliableLocked(nil, frame.Encode())
	return at, nil
}

// DeleteLayer removes the layer at index and broadcasts LAYER_DEL with
// the new layer count to every subscriber. A no-op (no broadcast) if
// index is the paper layer, out of range, or removing it would leave
// fewer than 2 layers (spec §4.3, §7).
func (r *Room) DeleteLayer(index int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index == paperIndex || !r.layerBounds(index) || len(r.layers) <= 2 {
		return nil
	}
	r.layers = append(r.layers[:index], r.layers[index+1:]...)
	r.dirty = true

	frame := wire.Frame{Type: wire.MsgLayerDel, CanvasID: uint8(r.ID), LayerCount: uint8(len(r.layers)), LayerID: uint8(index)}
	r.broadcastReliableLocked(nil, frame.Encode())
	return nil
}

// ReorderLayer moves the layer at from to position to, shifting the
// layers between, and broadcasts LAYER_REORDER to every subscriber. The
// paper layer can neither move nor be displaced from index 0.
func (r *Room) ReorderLayer(from, to int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if from == paperIndex || to == paperIndex {
		return ErrPaperLayer
	}
	if !r.layerBounds(from) || to <= paperIndex || to >= len(r.layers) {
		return ErrNoSuchLayer
	}
	l := r.layers[from]
	r.layers = append(r.layers[:from], r.layers[from+1:]...)
	r.layers = append(r.layers[:to], append([]*Layer{l}, r.layers[to:]...)...)
	r.dirty = true

	frame := wire.Frame{Type: wire.MsgLayerReorder, CanvasID: uint8(r.ID), LayerCount: uint8(len(r.layers))}
	frame.SetPayload([]byte{uint8(from), uint8(to)})
	r.broadcastReliableLocked(nil, frame.Encode())
	return nil
}

// ReplaceLayer overwrites the layer at index from a raw W*H*4 RGBA
// buffer, marks the room dirty, and rebroadcasts the header followed by
// the raw buffer to every other subscriber (LAYER_SYNC, spec §4.3,
// §4.4).
func (r *Room) ReplaceLayer(sender Subscriber, index int, raw []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.layers) {
		return ErrNoSuchLayer
	}
	if !r.layers[index].ReplaceRaw(raw) {
		return errors.New("canvas: bad layer buffer length")
	}
	r.dirty = true

	frame := wire.Frame{Type: wire.MsgLayerSync, CanvasID: uint8(r.ID), LayerID: uint8(index)}
	header := frame.Encode()
	for c := range r.users {
		if c == sender {
			continue
		}
		if _, err := c.Write(header); err != nil {
			continue
		}
		_, _ = c.Write(raw)
	}
	return nil
}

// TranslateLayer shifts the layer at index by (dx,dy) and rebroadcasts
// LAYER_MOVE to every other subscriber; the sender already applied the
// move locally (spec §4.3, §4.4).
func (r *Room) TranslateLayer(sender Subscriber, index, dx, dy int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.layers) {
		return ErrNoSuchLayer
	}
	r.layers[index].Translate(dx, dy)
	r.dirty = true

	frame := wire.Frame{Type: wire.MsgLayerMove, CanvasID: uint8(r.ID), LayerID: uint8(index)}
	payload := make([]byte, 8)
	binary.LittleEndian.PutUint32(payload[0:4], uint32(int32(dx)))
	binary.LittleEndian.PutUint32(payload[4:8], uint32(int32(dy)))
	frame.SetPayload(payload)
	r.broadcastReliableLocked(sender, frame.Encode())
	return nil
}

// BroadcastSignature stores sig as sender's signature and broadcasts a
// SIGNATURE frame carrying it to every subscriber, sender included
// (spec §4.4, S8).
func (r *Room) BroadcastSignature(sender Subscriber, sig []byte) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[sender]
	if !ok {
		return nil, errors.New("canvas: sender is not a subscriber")
	}
	cp := make([]byte, len(sig))
	copy(cp, sig)
	u.Signature = cp

	frame := wire.Frame{Type: wire.MsgSignature, CanvasID: uint8(r.ID), UserID: u.RoomUID}
	frame.SetPayload(sig)
	r.broadcastReliableLocked(nil, frame.Encode())
	return u, nil
}

// Stamp applies one brush stamp to the layer at index, clamping index to
// [1, len) and defaulting to 1 so the paper layer is never directly
// painted by a client (spec §3 invariant 1, §4.3).
func (r *Room) Stamp(index int, id brush.ID, p brush.Params) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	index = clampLayerIndex(index, len(r.layers))
	p.W, p.H = r.W, r.H
	mode := brush.WriteMode(id)
	layer := r.layers[index]
	for _, w := range r.brushes.Stamp(id, p) {
		layer.Write(w.X, w.Y, w.Pixel, writeModeOf(w, mode))
	}
	r.dirty = true
	return nil
}

// writeModeOf prefers the write's own mode when the brush dispatch
// already picked one (e.g. eraser alpha-only writes), otherwise falls
// back to the brush-wide mode.
func writeModeOf(w brush.Write, fallback codec.WriteMode) codec.WriteMode {
	if w.Mode != codec.ModeSourceOver {
		return w.Mode
	}
	return fallback
}

// StrokeLine stamps the brush at every point of the Bresenham line from
// (x0,y0) to (x1,y1) inclusive of both endpoints, using the angle of the
// line itself for every stamp (spec §4.1, §4.3, §4.5).
func (r *Room) StrokeLine(index int, id brush.ID, x0, y0, x1, y1 int, color codec.Pixel, size, pressure uint8) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	index = clampLayerIndex(index, len(r.layers))
	mode := brush.WriteMode(id)
	layer := r.layers[index]
	angle := int(math.Round(math.Atan2(float64(y1-y0), float64(x1-x0)) * 180 / math.Pi))
	for _, pt := range codec.BresenhamLine(x0, y0, x1, y1) {
		writes := r.brushes.Stamp(id, brush.Params{
			CenterX: pt.X, CenterY: pt.Y,
			Color: color, Size: size, Pressure: pressure,
			AngleDegrees: angle,
			W: r.W, H: r.H,
		})
		for _, w := range writes {
			layer.Write(w.X, w.Y, w.Pixel, writeModeOf(w, mode))
		}
	}
	r.dirty = true
	return nil
}
