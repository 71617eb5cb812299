// Package pipeline carries audio and text between the VAD, ASR, flow
// and TTS stages through ordered, session-tagged queues.
package pipeline

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Item is one queue entry, tagged with the session it belongs to so a
// shared consumer can demultiplex.
type Item[T any] struct {
	SessionID string
	Payload   T
}

// Queue is an unbounded FIFO with one consumer. Per-session ordering
// holds because each session's items are enqueued by one producer.
type Queue[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []Item[T]
	closed bool
	depth  prometheus.Gauge
}

// NewQueue builds a queue; depth may be nil when unmonitored.
func NewQueue[T any](depth prometheus.Gauge) *Queue[T] {
	q := &Queue[T]{depth: depth}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Put enqueues an item. Items put after Close are dropped.
func (q *Queue[T]) Put(sessionID string, payload T) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, Item[T]{SessionID: sessionID, Payload: payload})
	if q.depth != nil {
		q.depth.Set(float64(len(q.items)))
	}
	q.mu.Unlock()
	q.cond.Signal()
}

// Get blocks until an item is available or the queue is closed.
func (q *Queue[T]) Get() (Item[T], bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		var zero Item[T]
		return zero, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	if q.depth != nil {
		q.depth.Set(float64(len(q.items)))
	}
	return item, true
}

// Drop removes all queued items for one session, used on teardown.
func (q *Queue[T]) Drop(sessionID string) {
	q.mu.Lock()
	kept := q.items[:0]
	for _, it := range q.items {
		if it.SessionID != sessionID {
			kept = append(kept, it)
		}
	}
	q.items = kept
	if q.depth != nil {
		q.depth.Set(float64(len(q.items)))
	}
	q.mu.Unlock()
}

// Len reports the current depth.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close wakes the consumer; Get returns false once drained.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}
