package canvas

import "net"

// BroadcastReliable writes payload to every subscriber other than except,
// logging nothing and ignoring individual write failures — a dead
// connection is cleaned up by its own session goroutine on its next
// failed read, not by the broadcaster (spec §5).
func (r *Room) BroadcastReliable(except Subscriber, payload []byte) {
	for _, c := range r.Subscribers(except) {
		_, _ = c.Write(payload)
	}
}

// BroadcastUnreliable sends payload to every known peer other than
// except over the room's bound UDP socket. It is a no-op until the room
// is Active.
func (r *Room) BroadcastUnreliable(except *net.UDPAddr, payload []byte) {
	r.mu.Lock()
	conn := r.udpConn
	r.mu.Unlock()
	if conn == nil {
		return
	}
	for _, addr := range r.Peers(except) {
		_, _ = conn.WriteToUDP(payload, addr)
	}
}
