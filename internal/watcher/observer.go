package watcher

import (
	"context"
	"fmt"
	"strconv"

	"dama/internal/logging"
	"dama/internal/metrics"
)

// Sink receives recomputed values. valuewatch.Watch satisfies it.
type Sink[T any] interface {
	Set(value T)
}

// ObserverOptions configures Observe.
type ObserverOptions struct {
	// Name identifies the observed control in logs.
	Name    string
	Logger  *logging.Logger
	Metrics *metrics.Registry
	// Source is the watcher to register with. When nil, Observe creates a
	// private Watcher from Watcher and closes it on return.
	Source  Watch
	Watcher Options
}

// Observe watches path and, for every content modification beneath it, calls
// recompute and stores the result in sink. recompute runs on the watcher's
// dispatch goroutine, so a slow recompute delays only this observer.
//
// Observe blocks until ctx is done. If the watch cannot be established the
// failure is logged and Observe idles until ctx is done; it never returns a
// setup error to the caller.
func Observe[T any](ctx context.Context, options ObserverOptions, path string, recompute func(context.Context) T, sink Sink[T]) {
	logger := options.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.Component("watcher")
	if options.Name != "" {
		logger = logger.With(map[string]string{logging.FieldControl: options.Name})
	}

	handle, closeSource, err := establish(ctx, options, logger, path, func(event Event) {
		if !event.IsModify() || ctx.Err() != nil {
			return
		}
		options.Metrics.IncObserverEvents()
		logger.Debug("watched path modified", map[string]string{
			"path":   event.Path,
			"resync": strconv.FormatBool(event.Resync),
		})
		sink.Set(recompute(ctx))
	})
	if err != nil {
		options.Metrics.IncObserversInactive()
		logger.Warn("file observer inactive", map[string]string{
			"path":             path,
			logging.FieldError: err.Error(),
		})
		<-ctx.Done()
		return
	}

	<-ctx.Done()
	_ = handle.Close()
	closeSource()
}

func establish(ctx context.Context, options ObserverOptions, logger *logging.Logger, path string, callback func(Event)) (Handle, func(), error) {
	if path == "" {
		return nil, nil, fmt.Errorf("watch path is required")
	}
	source := options.Source
	closeSource := func() {}
	if source == nil {
		watcherOptions := options.Watcher
		if watcherOptions.Logger == nil {
			watcherOptions.Logger = options.Logger
		}
		next := watcherOptions.OnFailure
		watcherOptions.OnFailure = func(err error) {
			options.Metrics.IncObserversInactive()
			logger.Warn("file observer stopped", map[string]string{
				"path":             path,
				logging.FieldError: err.Error(),
			})
			if next != nil {
				next(err)
			}
		}
		created, err := NewWithOptions(watcherOptions)
		if err != nil {
			return nil, nil, fmt.Errorf("create watcher: %w", err)
		}
		source = created
		closeSource = func() { _ = created.Close() }
	}

	var (
		handle Handle
		err    error
	)
	if contextual, ok := source.(*Watcher); ok {
		handle, err = contextual.WatchContext(ctx, path, callback)
	} else {
		handle, err = source.Watch(path, callback)
	}
	if err != nil {
		closeSource()
		return nil, nil, fmt.Errorf("watch %s: %w", path, err)
	}
	return handle, closeSource, nil
}
