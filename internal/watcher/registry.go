package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"dama/internal/logging"
)

type subscription struct {
	id        uint64
	path      string
	callback  func(Event)
	dir       bool
	recursive bool
	// nested lists the sub-directories this subscription registered.
	nested []string
}

// covers reports whether an event for eventPath belongs to the subscription:
// the path itself, a direct child of a watched directory, or anything beneath
// a recursive root.
func (sub *subscription) covers(eventPath string) bool {
	switch {
	case eventPath == sub.path:
		return true
	case sub.recursive:
		return within(sub.path, eventPath)
	case sub.dir:
		return filepath.Dir(eventPath) == sub.path
	default:
		return false
	}
}

func within(root, path string) bool {
	relative, err := filepath.Rel(root, path)
	if err != nil || relative == "." {
		return false
	}
	return relative != ".." && !strings.HasPrefix(relative, ".."+string(filepath.Separator))
}

type handle struct {
	watcher *Watcher
	sub     *subscription
	once    sync.Once
}

func (h *handle) Close() error {
	h.once.Do(func() {
		h.watcher.detach(h.sub)
	})
	return nil
}

// Watch registers callback for path, which must exist. Watching a directory
// also reports events for its entries, and with Options.Recursive for
// everything beneath it.
func (w *Watcher) Watch(path string, callback func(Event)) (Handle, error) {
	if w == nil {
		return nil, ErrClosed
	}
	if path == "" {
		return nil, errors.New("watch path is required")
	}
	if callback == nil {
		return nil, errors.New("watch callback is required")
	}
	path = filepath.Clean(path)
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat watch path: %w", err)
	}

	w.mutex.Lock()
	if w.closed {
		w.mutex.Unlock()
		return nil, ErrClosed
	}
	fresh := !w.watchedLocked(path)
	if fresh && w.watches >= w.limit {
		w.mutex.Unlock()
		return nil, ErrMaxWatchesExceeded
	}
	w.nextID++
	sub := &subscription{
		id:        w.nextID,
		path:      path,
		callback:  callback,
		dir:       info.IsDir(),
		recursive: w.recursive && info.IsDir(),
	}
	w.subs[path] = append(w.subs[path], sub)
	if fresh {
		w.watches++
	}
	watches := w.watches
	backend := w.backend
	w.mutex.Unlock()

	if fresh {
		if err := backend.Add(path); err != nil {
			w.detach(sub)
			return nil, fmt.Errorf("add watch: %w", err)
		}
		w.logWatchChange("watch added", path, watches)
	}
	if sub.recursive {
		nested, err := w.addTree(path)
		if err != nil {
			w.detach(sub)
			return nil, err
		}
		w.mutex.Lock()
		sub.nested = append(sub.nested, nested...)
		w.mutex.Unlock()
	}
	return &handle{watcher: w, sub: sub}, nil
}

// WatchContext is Watch with the registration released when ctx is done.
func (w *Watcher) WatchContext(ctx context.Context, path string, callback func(Event)) (Handle, error) {
	registration, err := w.Watch(path, callback)
	if err != nil {
		return nil, err
	}
	go func() {
		select {
		case <-ctx.Done():
			_ = registration.Close()
		case <-w.stop:
		}
	}()
	return registration, nil
}

func (w *Watcher) detach(sub *subscription) {
	w.mutex.Lock()
	remaining := w.subs[sub.path][:0]
	for _, existing := range w.subs[sub.path] {
		if existing.id != sub.id {
			remaining = append(remaining, existing)
		}
	}
	if len(remaining) == 0 {
		delete(w.subs, sub.path)
	} else {
		w.subs[sub.path] = remaining
	}
	nested := sub.nested
	sub.nested = nil
	unwatch := !w.watchedLocked(sub.path)
	if unwatch && w.watches > 0 {
		w.watches--
	}
	watches := w.watches
	backend := w.backend
	closed := w.closed
	w.mutex.Unlock()

	if unwatch && !closed {
		if err := backend.Remove(sub.path); err != nil {
			w.logger.Debug("watch remove skipped", map[string]string{
				"path":             sub.path,
				logging.FieldError: err.Error(),
			})
		} else {
			w.logWatchChange("watch removed", sub.path, watches)
		}
	}
	w.releaseNested(nested)
}

func (w *Watcher) matchingLocked(eventPath string) []func(Event) {
	var callbacks []func(Event)
	for _, subs := range w.subs {
		for _, sub := range subs {
			if sub.covers(eventPath) {
				callbacks = append(callbacks, sub.callback)
			}
		}
	}
	return callbacks
}

func (w *Watcher) watchedLocked(path string) bool {
	return len(w.subs[path]) > 0 || w.nested[path] > 0
}

// watchedPathsLocked lists every path registered with the backend.
func (w *Watcher) watchedPathsLocked() []string {
	paths := make([]string, 0, len(w.subs)+len(w.nested))
	for path := range w.subs {
		paths = append(paths, path)
	}
	for path := range w.nested {
		if len(w.subs[path]) == 0 {
			paths = append(paths, path)
		}
	}
	return paths
}
