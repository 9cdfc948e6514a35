package canvas

import (
	"sync"

	"github.com/paintmesh/server/internal/brush"
)

// Registry is the process-wide canvas id -> Room table. Canvases are
// created on demand the first time they are addressed (spec §4.3).
type Registry struct {
	mu      sync.Mutex
	rooms   map[int]*Room
	w, h    int
	brushes *brush.Catalog
}

// NewRegistry constructs an empty registry; every room it creates shares
// the fixed canvas dimensions w x h and the given brush catalog.
func NewRegistry(w, h int, brushes *brush.Catalog) *Registry {
	return &Registry{
		rooms:   make(map[int]*Room),
		w:       w,
		h:       h,
		brushes: brushes,
	}
}

// Get returns the existing room for id, or creates one.
func (reg *Registry) Get(id int) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if rm, ok := reg.rooms[id]; ok {
		return rm
	}
	rm := NewRoom(id, reg.w, reg.h, reg.brushes)
	reg.rooms[id] = rm
	return rm
}

// Lookup returns the existing room for id without creating one.
func (reg *Registry) Lookup(id int) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	rm, ok := reg.rooms[id]
	return rm, ok
}

// Put installs an already-constructed room, used when restoring a
// canvas loaded from a persisted document (spec §4.6).
func (reg *Registry) Put(id int, rm *Room) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.rooms[id] = rm
}

// All returns a snapshot of every known canvas id and its room.
func (reg *Registry) All() map[int]*Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	out := make(map[int]*Room, len(reg.rooms))
	for id, rm := range reg.rooms {
		out[id] = rm
	}
	return out
}

// Dimensions returns the registry's fixed canvas size.
func (reg *Registry) Dimensions() (w, h int) {
	return reg.w, reg.h
}
