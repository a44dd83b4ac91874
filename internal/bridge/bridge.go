// Package bridge hands values produced on background goroutines to the
// presentation loop.
//
// A Bridge keeps one pending value. Send stores it and schedules a single
// dispatch on the loop if none is outstanding; by the time the dispatch runs
// it delivers whatever value is newest, so bursts collapse into one handler
// call per loop tick.
package bridge

import (
	"context"
	"sync"

	"dama/internal/loop"
)

type Bridge[T any] struct {
	poster  loop.Poster
	handler func(T)

	mutex   sync.Mutex
	latest  T
	pending bool
}

// New returns a Bridge delivering to handler on poster's loop.
func New[T any](poster loop.Poster, handler func(T)) *Bridge[T] {
	return &Bridge[T]{poster: poster, handler: handler}
}

// Send stores value for delivery. It may be called from any goroutine and
// never runs handler itself.
func (b *Bridge[T]) Send(value T) {
	b.mutex.Lock()
	b.latest = value
	if b.pending {
		b.mutex.Unlock()
		return
	}
	b.pending = true
	b.mutex.Unlock()

	b.poster.Post(b.dispatch)
}

func (b *Bridge[T]) dispatch() {
	b.mutex.Lock()
	value := b.latest
	b.pending = false
	b.mutex.Unlock()

	b.handler(value)
}

// Source is the reading side of a coalescing cell such as valuewatch.Watch.
type Source[T any] interface {
	WaitContext(ctx context.Context) (T, error)
}

// Pump forwards every value read from source to bridge until ctx is done.
func Pump[T any](ctx context.Context, source Source[T], bridge *Bridge[T]) error {
	for {
		value, err := source.WaitContext(ctx)
		if err != nil {
			return err
		}
		bridge.Send(value)
	}
}
