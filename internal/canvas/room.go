package canvas

import (
	"errors"
	"io"
	"net"
	"sync"

	"github.com/paintmesh/server/internal/brush"
)

// MaxLayers is the per-room layer cap (spec §3, §5).
const MaxLayers = 15

// MaxRoomUID is the largest assignable room-scoped user id.
const MaxRoomUID = 255

var (
	ErrCapacity = errors.New("canvas: layer capacity reached")
	ErrNoSpace  = errors.New("canvas: no free room_uid")
)

// Subscriber is an opaque reliable-channel connection handle. Any
// comparable io.Writer (typically a *net.TCPConn) satisfies it.
type Subscriber interface {
	io.Writer
}

// User is one connected participant's room-scoped record (spec §3).
type User struct {
	RoomUID   uint8
	Name      string
	Signature []byte // nil until a SIGNATURE message arrives
}

// Room owns one canvas's layers, users, and peer bookkeeping behind a
// single mutex (spec §3, §4.3). Exactly one Room exists per canvas id, on
// demand, via the Registry.
type Room struct {
	ID int
	W, H int

	mu      sync.Mutex
	layers  []*Layer
	users   map[Subscriber]*User
	peers   map[string]*net.UDPAddr
	dirty   bool

	udpConn *net.UDPConn
	active  bool

	brushes *brush.Catalog
}

// NewRoom constructs a Created (not yet Active) room with the paper layer
// plus one drawable layer (spec §4.3's first-mention transition).
func NewRoom(id, w, h int, brushes *brush.Catalog) *Room {
	return &Room{
		ID:      id,
		W:       w,
		H:       h,
		layers:  []*Layer{NewLayer(w, h, true), NewLayer(w, h, false)},
		users:   make(map[Subscriber]*User),
		peers:   make(map[string]*net.UDPAddr),
		dirty:   true, // its fresh layers have never been persisted
		brushes: brushes,
	}
}

// NewRoomFromLayers constructs a Created room from an already-decoded
// layer sequence (paper layer included at index 0), used when restoring
// a canvas from a persisted document (spec §4.6 loading).
func NewRoomFromLayers(id, w, h int, layers []*Layer, brushes *brush.Catalog) *Room {
	return &Room{
		ID:      id,
		W:       w,
		H:       h,
		layers:  layers,
		users:   make(map[Subscriber]*User),
		peers:   make(map[string]*net.UDPAddr),
		brushes: brushes,
	}
}

// Activate installs conn as the room's dedicated UDP worker socket,
// transitioning Created -> Active, and reports whether this call won
// that transition. A caller that loses the race (did == false) must
// close its own conn rather than leak it; the worker is started only by
// whichever caller receives did == true.
func (r *Room) Activate(conn *net.UDPConn) (did bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		return false
	}
	r.udpConn = conn
	r.active = true
	return true
}

// Active reports whether the room's unreliable worker is running.
func (r *Room) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Dirty reports whether any layer has mutated since the last persist.
func (r *Room) Dirty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dirty
}

// ClearDirty resets the room's dirty flag after a successful persist.
func (r *Room) ClearDirty() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirty = false
}

// LayerCount returns the current number of layers (paper included).
func (r *Room) LayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.layers)
}

// Layers returns a snapshot slice of layer pointers (not a copy of pixel
// data) for read-only iteration, such as persistence or WELCOME replies.
func (r *Room) Layers() []*Layer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Layer, len(r.layers))
	copy(out, r.layers)
	return out
}

// Join adds conn to the subscriber and user tables, assigning the
// smallest free room_uid in 1..=255 (spec §4.3, S7).
func (r *Room) Join(conn Subscriber, name string, signature []byte) (roomUID uint8, layerCount int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	used := make(map[uint8]bool, len(r.users))
	for _, u := range r.users {
		used[u.RoomUID] = true
	}
	var uid uint8
	found := false
	for candidate := 1; candidate <= MaxRoomUID; candidate++ {
		if !used[uint8(candidate)] {
			uid = uint8(candidate)
			found = true
			break
		}
	}
	if !found {
		return 0, 0, ErrNoSpace
	}

	r.users[conn] = &User{RoomUID: uid, Name: name, Signature: signature}
	return uid, len(r.layers), nil
}

// Leave removes conn from the subscriber and user tables. The unreliable
// peer set is untouched (spec §4.3).
func (r *Room) Leave(conn Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, conn)
}

// User looks up the user record for conn.
func (r *Room) User(conn Subscriber) (*User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[conn]
	return u, ok
}

// Subscribers returns a snapshot of every connection other than except
// (except may be nil to include all).
func (r *Room) Subscribers(except Subscriber) []Subscriber {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Subscriber, 0, len(r.users))
	for c := range r.users {
		if c == except {
			continue
		}
		out = append(out, c)
	}
	return out
}

// AllUsers returns a snapshot of every (conn, user) pair.
func (r *Room) AllUsers() map[Subscriber]*User {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[Subscriber]*User, len(r.users))
	for c, u := range r.users {
		out[c] = u
	}
	return out
}

// UserCount returns the number of connected users.
func (r *Room) UserCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

// RegisterPeer records addr as a known unreliable endpoint the first time
// a datagram arrives from it. There is no unregister (spec §4.3).
func (r *Room) RegisterPeer(addr *net.UDPAddr) {
	key := addr.String()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.peers[key]; !ok {
		cp := *addr
		r.peers[key] = &cp
	}
}

// Peers returns a snapshot of every known unreliable endpoint other than
// except (except may be nil).
func (r *Room) Peers(except *net.UDPAddr) []*net.UDPAddr {
	r.mu.Lock()
	defer r.mu.Unlock()
	var exceptKey string
	if except != nil {
		exceptKey = except.String()
	}
	out := make([]*net.UDPAddr, 0, len(r.peers))
	for k, a := range r.peers {
		if k == exceptKey {
			continue
		}
		out = append(out, a)
	}
	return out
}
