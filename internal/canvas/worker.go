package canvas

import (
	"log"
	"net"
	"time"

	"github.com/paintmesh/server/internal/brush"
	"github.com/paintmesh/server/internal/codec"
	"github.com/paintmesh/server/internal/wire"
)

// recvTimeout bounds each blocking read so the worker can observe its
// stop channel being closed even when no datagrams arrive (spec §4.3,
// §5).
const recvTimeout = 1 * time.Second

// StrokeObserver is notified of each applied DRAW/LINE's bounding box,
// for the optional activity index (spec §4.11). It must not block.
type StrokeObserver func(canvasID int, x1, y1, x2, y2 float64)

// RunUDPWorker services rm's unreliable socket until stop is closed: it
// decodes DRAW/LINE/CURSOR datagrams, applies DRAW/LINE to the addressed
// layer, and rebroadcasts the raw packet to every other known peer
// (spec §4.3, §6.2). observer may be nil.
func RunUDPWorker(rm *Room, conn *net.UDPConn, stop <-chan struct{}, observer StrokeObserver) {
	buf := make([]byte, 2*wire.DatagramSize)
	for {
		select {
		case <-stop:
			return
		default:
		}

		conn.SetReadDeadline(time.Now().Add(recvTimeout))
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			continue
		}
		if n < wire.DatagramSize {
			continue
		}
		raw := append([]byte(nil), buf[:n]...)

		dg, err := wire.DecodeDatagram(raw)
		if err != nil {
			continue
		}

		rm.RegisterPeer(addr)

		switch dg.Type {
		case wire.MsgDraw:
			rm.applyDraw(dg)
			if observer != nil {
				half := float64(dg.Size)/2 + 1
				x, y := float64(dg.X), float64(dg.Y)
				observer(rm.ID, x-half, y-half, x+half, y+half)
			}
		case wire.MsgLine:
			rm.applyLine(dg)
			if observer != nil {
				half := float64(dg.Size)/2 + 1
				x0, y0, x1, y1 := float64(dg.X), float64(dg.Y), float64(dg.EX), float64(dg.EY)
				observer(rm.ID, minF(x0, x1)-half, minF(y0, y1)-half, maxF(x0, x1)+half, maxF(y0, y1)+half)
			}
		case wire.MsgCursor:
			// presentation-only; no layer mutation.
		default:
			log.Printf("canvas: room %d ignoring unknown unreliable type %d", rm.ID, dg.Type)
			continue
		}

		rm.BroadcastUnreliable(addr, raw)
	}
}

func (r *Room) applyDraw(dg *wire.Datagram) {
	color := codec.Pixel{R: dg.R, G: dg.G, B: dg.B, A: dg.A}
	_ = r.Stamp(int(dg.LayerID), brush.ID(dg.BrushID), brush.Params{
		CenterX:      int(dg.X),
		CenterY:      int(dg.Y),
		Color:        color,
		Size:         dg.Size,
		Pressure:     dg.Pressure,
		AngleDegrees: int(dg.EX),
	})
}

func (r *Room) applyLine(dg *wire.Datagram) {
	color := codec.Pixel{R: dg.R, G: dg.G, B: dg.B, A: dg.A}
	_ = r.StrokeLine(int(dg.LayerID), brush.ID(dg.BrushID), int(dg.X), int(dg.Y), int(dg.EX), int(dg.EY), color, dg.Size, dg.Pressure)
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
