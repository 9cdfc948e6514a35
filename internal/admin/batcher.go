package admin

import (
	"sync"
	"time"
)

// FlushCount is the max number of queued events before an immediate
// flush, independent of the timeout (spec §4.12).
const FlushCount = 20

// FlushTimeout is the age at which a pending batch becomes due for a
// flush even with no further arrivals (spec §4.12, testable property 12).
// Run checks every FlushTimeout/4, so an event waits at most about
// 1.25 x FlushTimeout.
const FlushTimeout = 100 * time.Millisecond

// Notice is one admin-feed event.
type Notice struct {
	CanvasID int    `json:"canvas_id"`
	Kind     string `json:"kind"`
	RoomUID  uint8  `json:"room_uid,omitempty"`
	At       int64  `json:"at"`
}

// Batcher accumulates Notices and flushes them to a sink at most once
// per FlushTimeout or every FlushCount events, whichever comes first,
// grounded on the teacher's MessageCompressor batch-size-or-timeout
// flush in compression.go.
type Batcher struct {
	mu      sync.Mutex
	pending []Notice
	oldest  time.Time
	sink    func([]Notice)
}

// NewBatcher builds a Batcher that delivers flushed batches to sink.
func NewBatcher(sink func([]Notice)) *Batcher {
	return &Batcher{sink: sink}
}

// Add queues n, flushing immediately if the batch reaches FlushCount.
func (b *Batcher) Add(n Notice) {
	b.mu.Lock()
	if len(b.pending) == 0 {
		b.oldest = time.Now()
	}
	b.pending = append(b.pending, n)
	full := len(b.pending) >= FlushCount
	b.mu.Unlock()

	if full {
		b.flush()
	}
}

func (b *Batcher) flush() {
	b.mu.Lock()
	if len(b.pending) == 0 {
		b.mu.Unlock()
		return
	}
	batch := b.pending
	b.pending = nil
	b.mu.Unlock()

	if b.sink != nil {
		b.sink(batch)
	}
}

// Run drives the timeout side of the flush policy until stop is closed:
// a background ticker checks every quarter of FlushTimeout whether the
// oldest pending event has waited long enough to force a flush, so a
// quiet room still delivers its events promptly (mirrors the teacher's
// batchFlusher quarter-interval poll).
func (b *Batcher) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(FlushTimeout / 4)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			b.mu.Lock()
			due := len(b.pending) > 0 && time.Since(b.oldest) >= FlushTimeout
			b.mu.Unlock()
			if due {
				b.flush()
			}
		}
	}
}
