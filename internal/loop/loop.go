// Package loop provides the serial presentation loop that owns every control.
//
// Callbacks posted to a Loop run one at a time on the goroutine that called
// Run, so they may touch control state without synchronization.
package loop

import (
	"context"
	"errors"
	"sync"
)

const inputSize = 128

// ErrStopped is returned by Do when the loop stops before running the callback.
var ErrStopped = errors.New("loop stopped")

// Poster schedules work on a presentation loop. Post may be called from any
// goroutine; fn runs later on the loop.
type Poster interface {
	Post(fn func())
}

// PosterFunc adapts a function to Poster.
type PosterFunc func(fn func())

func (f PosterFunc) Post(fn func()) {
	f(fn)
}

// Options configures a Loop.
type Options struct {
	// OnIdle runs on the loop after each burst of callbacks has been drained,
	// and once before Run returns.
	OnIdle func()
}

type Loop struct {
	input    chan func()
	done     chan struct{}
	stopOnce sync.Once
	onIdle   func()
}

func New(options Options) *Loop {
	onIdle := options.OnIdle
	if onIdle == nil {
		onIdle = func() {}
	}
	return &Loop{
		input:  make(chan func(), inputSize),
		done:   make(chan struct{}),
		onIdle: onIdle,
	}
}

// Post enqueues fn. It blocks only while the input buffer is full, and drops
// fn once the loop has stopped.
func (l *Loop) Post(fn func()) {
	if fn == nil || l.stopped() {
		return
	}
	select {
	case l.input <- fn:
	case <-l.done:
	}
}

// Do posts fn and waits for it to finish. It must not be called from a loop
// callback.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	l.Post(func() {
		defer close(finished)
		fn()
	})
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop ends Run. It never blocks and may be called more than once.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.done)
	})
}

// Done is closed once Stop has been called.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Run runs callbacks until Stop is called or ctx is done. It is fully serial:
// it spawns no goroutines and never runs two callbacks in parallel.
func (l *Loop) Run(ctx context.Context) error {
	defer l.onIdle()
	for {
		select {
		case fn := <-l.input:
			// Drain the burst before redrawing.
		drain:
			for {
				fn()
				if l.stopped() {
					return nil
				}
				select {
				case fn = <-l.input:
				default:
					break drain
				}
			}
			l.onIdle()
		case <-l.done:
			return nil
		case <-ctx.Done():
			l.Stop()
			return ctx.Err()
		}
	}
}

func (l *Loop) stopped() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}
