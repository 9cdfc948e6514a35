// Package spatial implements the admin server's stroke activity index
// (spec §4.11): a bounded in-memory R-tree of recent stroke bounding
// boxes per canvas, grounded on the teacher's SpatialIndex but trimmed
// to the diagnostic surface this spec actually needs — no per-stroke
// update/remove, since strokes here are immutable arrival records, not
// editable vector objects.
package spatial

import (
	"sync"

	"github.com/tidwall/rtree"
)

// MaxEntriesPerCanvas bounds the index so it stays a diagnostic aid
// rather than an unbounded log (spec §4.11).
const MaxEntriesPerCanvas = 5000

// BoundingBox is an axis-aligned rectangle in canvas pixel coordinates.
type BoundingBox struct {
	X1, Y1, X2, Y2 float64
}

// entry is one recorded stroke arrival.
type entry struct {
	bbox BoundingBox
	seq  uint64
}

// Index is a bounded per-canvas R-tree of recent stroke bounding boxes.
type Index struct {
	mu      sync.RWMutex
	trees   map[int]*rtree.RTree
	order   map[int][]*entry
	counter uint64
}

// NewIndex builds an empty activity index.
func NewIndex() *Index {
	return &Index{
		trees: make(map[int]*rtree.RTree),
		order: make(map[int][]*entry),
	}
}

// Record inserts bbox for canvasID, evicting the oldest entry for that
// canvas once MaxEntriesPerCanvas is exceeded.
func (idx *Index) Record(canvasID int, bbox BoundingBox) {
	if bbox.X1 >= bbox.X2 || bbox.Y1 >= bbox.Y2 {
		return
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	tree, ok := idx.trees[canvasID]
	if !ok {
		tree = &rtree.RTree{}
		idx.trees[canvasID] = tree
	}

	idx.counter++
	e := &entry{bbox: bbox, seq: idx.counter}
	min := [2]float64{bbox.X1, bbox.Y1}
	max := [2]float64{bbox.X2, bbox.Y2}
	tree.Insert(min, max, e)
	idx.order[canvasID] = append(idx.order[canvasID], e)

	if q := idx.order[canvasID]; len(q) > MaxEntriesPerCanvas {
		oldest := q[0]
		idx.order[canvasID] = q[1:]
		tree.Delete([2]float64{oldest.bbox.X1, oldest.bbox.Y1}, [2]float64{oldest.bbox.X2, oldest.bbox.Y2}, oldest)
	}
}

// Query returns every recorded bounding box for canvasID intersecting
// viewport, most recent last.
func (idx *Index) Query(canvasID int, viewport BoundingBox) []BoundingBox {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	tree, ok := idx.trees[canvasID]
	if !ok {
		return nil
	}

	var results []BoundingBox
	min := [2]float64{viewport.X1, viewport.Y1}
	max := [2]float64{viewport.X2, viewport.Y2}
	tree.Search(min, max, func(_, _ [2]float64, item interface{}) bool {
		e := item.(*entry)
		results = append(results, e.bbox)
		return true
	})
	return results
}

// Count returns the number of entries currently retained for canvasID.
func (idx *Index) Count(canvasID int) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.order[canvasID])
}
