// Package delivery hands frames from the streaming thread to a render loop
// through a single-slot mailbox.
//
// Publish never blocks: a new value replaces an unconsumed one, which is
// handed to the discard function (frames get released there). The consumer
// always sees the most recent value.
package delivery

import (
	"context"
	"sync"
	"sync/atomic"
)

// Mailbox is a single-slot overwrite buffer
type Mailbox[T any] struct {
	mu      sync.Mutex
	cond    *sync.Cond
	slot    T
	full    bool
	closed  bool
	discard func(T)

	published atomic.Uint64
	consumed  atomic.Uint64
	dropped   atomic.Uint64
}

// NewMailbox returns an empty mailbox. discard (may be nil) receives every
// value that is overwritten, published after Close, or left over at Close.
func NewMailbox[T any](discard func(T)) *Mailbox[T] {
	m := &Mailbox[T]{discard: discard}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Publish stores v, replacing any unconsumed value. Returns false when the
// mailbox is closed (v is discarded).
func (m *Mailbox[T]) Publish(v T) bool {
	m.mu.Lock()

	if m.closed {
		m.mu.Unlock()
		m.drop(v)
		return false
	}

	old, overwritten := m.slot, m.full
	m.slot, m.full = v, true
	m.published.Add(1)

	m.cond.Signal()
	m.mu.Unlock()

	if overwritten {
		m.dropped.Add(1)
		m.drop(old)
	}
	return true
}

// Next blocks until a value is available, the mailbox is closed or ctx is done.
func (m *Mailbox[T]) Next(ctx context.Context) (T, bool) {
	stop := context.AfterFunc(ctx, func() {
		m.mu.Lock()
		m.cond.Broadcast()
		m.mu.Unlock()
	})
	defer stop()

	m.mu.Lock()
	defer m.mu.Unlock()

	for !m.full {
		if m.closed || ctx.Err() != nil {
			var zero T
			return zero, false
		}
		m.cond.Wait()
	}

	v := m.slot
	var zero T
	m.slot, m.full = zero, false
	m.consumed.Add(1)
	return v, true
}

// Close wakes the consumer; the pending value, if any, is discarded.
// Idempotent.
func (m *Mailbox[T]) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	pending, ok := m.slot, m.full
	var zero T
	m.slot, m.full = zero, false
	m.cond.Broadcast()
	m.mu.Unlock()

	if ok {
		m.drop(pending)
	}
}

func (m *Mailbox[T]) drop(v T) {
	if m.discard != nil {
		m.discard(v)
	}
}

// Stats is a mailbox counter snapshot
type Stats struct {
	Published uint64
	Consumed  uint64
	// Dropped counts values overwritten before being consumed
	Dropped uint64
}

// Stats returns the counters.
func (m *Mailbox[T]) Stats() Stats {
	return Stats{
		Published: m.published.Load(),
		Consumed:  m.consumed.Load(),
		Dropped:   m.dropped.Load(),
	}
}
