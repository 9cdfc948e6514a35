// Package session implements the per-connection reliable-channel handler
// of spec §4.4: one goroutine per accepted TCP connection, dispatching
// fixed-size frames to the addressed Room and echoing mutations back to
// its subscribers.
package session

import (
	"encoding/binary"
	"io"
	"log"
	"net"

	"github.com/paintmesh/server/internal/brush"
	"github.com/paintmesh/server/internal/canvas"
	"github.com/paintmesh/server/internal/persistence"
	"github.com/paintmesh/server/internal/wire"
)

// MaxNameLen is the bounded display name length (spec §5).
const MaxNameLen = 31

// Hooks are optional ambient observers, wired by main.go, invoked
// outside any Room mutex critical section (spec §5, §4.8, §4.9). A zero
// Hooks disables all of them.
type Hooks struct {
	OnJoin     func(canvasID int, roomUID uint8, name string)
	OnLeave    func(canvasID int, roomUID uint8)
	OnEvent    func(canvasID int, kind string, roomUID uint8)
	OnActivate func(canvasID int)
}

func (h Hooks) fireJoin(canvasID int, roomUID uint8, name string) {
	if h.OnJoin != nil {
		h.OnJoin(canvasID, roomUID, name)
	}
}

func (h Hooks) fireLeave(canvasID int, roomUID uint8) {
	if h.OnLeave != nil {
		h.OnLeave(canvasID, roomUID)
	}
}

func (h Hooks) fireEvent(canvasID int, kind string, roomUID uint8) {
	if h.OnEvent != nil {
		h.OnEvent(canvasID, kind, roomUID)
	}
}

func (h Hooks) fireActivate(canvasID int) {
	if h.OnActivate != nil {
		h.OnActivate(canvasID)
	}
}

// Handler owns the shared state every session needs to dispatch reliable
// messages: the room registry, the persistence trigger, the brush
// catalog, and the reliable port used to derive each room's UDP port.
type Handler struct {
	Registry     *canvas.Registry
	Store        *persistence.Store
	Brushes      *brush.Catalog
	ReliablePort int
	Hooks        Hooks
	StrokeObserver canvas.StrokeObserver
}

// Serve runs one connection's lifetime: read frames until error, dispatch
// each, and clean up the room's subscriber/user tables on exit (spec
// §4.4).
func (h *Handler) Serve(conn net.Conn) {
	defer conn.Close()

	var room *canvas.Room
	var roomUID uint8
	loggedIn := false

	defer func() {
		if loggedIn && room != nil {
			room.Leave(conn)
			h.Hooks.fireLeave(room.ID, roomUID)
		}
	}()

	for {
		frame, err := wire.ReadFrame(conn)
		if err != nil {
			if err != io.EOF {
				log.Printf("session: read error: %v", err)
			}
			return
		}

		switch frame.Type {
		case wire.MsgLogin:
			rm, uid, ok := h.handleLogin(conn, frame)
			if !ok {
				return
			}
			room, roomUID, loggedIn = rm, uid, true
			h.Hooks.fireJoin(rm.ID, uid, nameFromPayload(frame.Payload()))

		case wire.MsgSignature:
			if !loggedIn {
				continue
			}
			if frame.DataLen != wire.SignatureSize {
				continue
			}
			if _, err := room.BroadcastSignature(conn, frame.Data[:wire.SignatureSize]); err != nil {
				continue
			}
			h.Hooks.fireEvent(room.ID, "signature", roomUID)

		case wire.MsgSave:
			if h.Store != nil {
				h.Store.Trigger()
			}
			if loggedIn {
				h.Hooks.fireEvent(room.ID, "save", roomUID)
			}

		case wire.MsgLayerAdd:
			if !loggedIn {
				continue
			}
			if _, err := room.AddLayer(int(frame.LayerID)); err == nil {
				h.Hooks.fireEvent(room.ID, "layer_add", roomUID)
			}

		case wire.MsgLayerDel:
			if !loggedIn {
				continue
			}
			if err := room.DeleteLayer(int(frame.LayerID)); err == nil {
				h.Hooks.fireEvent(room.ID, "layer_del", roomUID)
			}

		case wire.MsgLayerSync:
			if !loggedIn {
				continue
			}
			w, hgt := dimensionsOf(room)
			raw := make([]byte, w*hgt*4)
			if _, err := io.ReadFull(conn, raw); err != nil {
				return
			}
			_ = room.ReplaceLayer(conn, int(frame.LayerID), raw)

		case wire.MsgLayerReorder:
			if !loggedIn {
				continue
			}
			_ = room.ReorderLayer(int(frame.Data[0]), int(frame.Data[1]))

		case wire.MsgLayerMove:
			if !loggedIn {
				continue
			}
			dx := int32(binary.LittleEndian.Uint32(frame.Data[0:4]))
			dy := int32(binary.LittleEndian.Uint32(frame.Data[4:8]))
			_ = room.TranslateLayer(conn, int(frame.LayerID), int(dx), int(dy))

		default:
			// unknown message type: ignore and keep reading (spec §7).
		}
	}
}

func dimensionsOf(room *canvas.Room) (int, int) {
	return room.W, room.H
}

func nameFromPayload(payload []byte) string {
	n := len(payload)
	if n > MaxNameLen {
		n = MaxNameLen
	}
	for i, b := range payload[:n] {
		if b == 0 {
			n = i
			break
		}
	}
	return string(payload[:n])
}

func (h *Handler) handleLogin(conn net.Conn, frame *wire.Frame) (*canvas.Room, uint8, bool) {
	canvasID := int(frame.CanvasID)
	room := h.Registry.Get(canvasID)

	if !room.Active() {
		h.ensureActive(room, canvasID)
		if !room.Active() {
			log.Printf("session: canvas %d UDP bind failed, room stays Created, failing login", canvasID)
			return nil, 0, false
		}
	}

	name := nameFromPayload(frame.Payload())
	roomUID, layerCount, err := room.Join(conn, name, nil)
	if err != nil {
		log.Printf("session: join canvas %d failed: %v", canvasID, err)
		return nil, 0, false
	}

	welcome := wire.Frame{
		Type:       wire.MsgWelcome,
		CanvasID:   frame.CanvasID,
		LayerCount: uint8(layerCount),
		UserID:     roomUID,
	}
	if err := wire.WriteFrame(conn, &welcome); err != nil {
		room.Leave(conn)
		return nil, 0, false
	}

	lcBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(lcBuf, uint32(layerCount))
	if _, err := conn.Write(lcBuf); err != nil {
		room.Leave(conn)
		return nil, 0, false
	}

	for _, layer := range room.Layers()[1:] {
		if _, err := conn.Write(layer.Raw()); err != nil {
			room.Leave(conn)
			return nil, 0, false
		}
	}

	for other, user := range room.AllUsers() {
		if other == conn || user.Signature == nil {
			continue
		}
		sig := wire.Frame{Type: wire.MsgSignature, CanvasID: frame.CanvasID, UserID: user.RoomUID}
		sig.SetPayload(user.Signature)
		if err := wire.WriteFrame(conn, &sig); err != nil {
			break
		}
	}

	return room, roomUID, true
}

// ensureActive binds a fresh UDP socket on the room's assigned port and
// starts its worker, losing gracefully to a concurrent login that wins
// the race (spec §4.3's Created -> Active transition).
func (h *Handler) ensureActive(room *canvas.Room, canvasID int) {
	addr := &net.UDPAddr{Port: h.ReliablePort + 1 + canvasID}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		log.Printf("session: canvas %d UDP bind failed on port %d: %v", canvasID, addr.Port, err)
		return
	}
	if !room.Activate(conn) {
		conn.Close()
		return
	}
	h.Hooks.fireActivate(canvasID)
	go canvas.RunUDPWorker(room, conn, nil, h.StrokeObserver)
}
