package valuewatch

import (
	"context"
	"sync"
)

type slot[T any] struct {
	mu      sync.Mutex
	value   T
	gen     uint64
	changed chan struct{}
}

// Watch is a handle on a shared slot. Handles created with Clone share the
// slot but track the last generation they observed independently, so each
// reader needs its own handle.
type Watch[T any] struct {
	slot *slot[T]
	seen uint64
}

// New creates a slot holding initial at generation zero. The first Wait on the
// returned handle blocks until the first Set.
func New[T any](initial T) *Watch[T] {
	return &Watch[T]{
		slot: &slot[T]{
			value:   initial,
			changed: make(chan struct{}),
		},
	}
}

// Clone returns a new handle on the same slot that starts from this handle's
// last seen generation.
func (w *Watch[T]) Clone() *Watch[T] {
	return &Watch[T]{slot: w.slot, seen: w.seen}
}

// Set replaces the pending value and wakes every blocked reader. It never
// blocks and is safe for concurrent use.
func (w *Watch[T]) Set(value T) {
	s := w.slot
	s.mu.Lock()
	s.value = value
	s.gen++
	close(s.changed)
	s.changed = make(chan struct{})
	s.mu.Unlock()
}

// Wait blocks until a value newer than the last one this handle observed is
// available and returns it.
func (w *Watch[T]) Wait() T {
	value, _ := w.WaitContext(context.Background())
	return value
}

// WaitContext is Wait with cancellation. On cancellation it returns the zero
// value and ctx.Err() without advancing the handle.
func (w *Watch[T]) WaitContext(ctx context.Context) (T, error) {
	s := w.slot
	for {
		s.mu.Lock()
		if s.gen > w.seen {
			value := s.value
			w.seen = s.gen
			s.mu.Unlock()
			return value, nil
		}
		changed := s.changed
		s.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Peek returns the current value and generation without consuming it.
func (w *Watch[T]) Peek() (T, uint64) {
	s := w.slot
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.gen
}

// Pending reports whether a generation newer than this handle's marker exists.
func (w *Watch[T]) Pending() bool {
	s := w.slot
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen > w.seen
}

// Seen returns the generation of the last value this handle received.
func (w *Watch[T]) Seen() uint64 {
	return w.seen
}
