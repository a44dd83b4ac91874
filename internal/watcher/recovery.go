package watcher

import (
	"errors"
	"fmt"
	"io/fs"
	"sync/atomic"
	"time"

	"dama/internal/logging"
	"github.com/fsnotify/fsnotify"
)

const (
	defaultRestartAttempts = 3
	restartBaseDelay       = 200 * time.Millisecond
	restartMaxDelay        = 5 * time.Second
)

// recovery tracks backend restarts. Apart from restarts, its fields belong to
// the dispatch goroutine.
type recovery struct {
	limit    int
	attempts int
	timer    *time.Timer
	gaveUp   bool
	restarts atomic.Int64
}

func newRecovery(limit int) *recovery {
	switch {
	case limit == 0:
		limit = defaultRestartAttempts
	case limit < 0:
		limit = 0
	}
	return &recovery{limit: limit}
}

// schedule arms the next restart with exponential backoff. It reports false
// once the attempts are used up.
func (r *recovery) schedule(fire func()) bool {
	if r.attempts >= r.limit {
		return false
	}
	delay := restartBaseDelay << r.attempts
	if delay > restartMaxDelay {
		delay = restartMaxDelay
	}
	r.attempts++
	r.timer = time.AfterFunc(delay, fire)
	return true
}

func (r *recovery) cancel() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (w *Watcher) handleFailure(err error) {
	w.failed.Add(1)
	w.logger.Warn("watch backend error", map[string]string{
		logging.FieldError: err.Error(),
	})
	if w.recovery.timer != nil || w.recovery.gaveUp {
		return
	}
	if w.recovery.schedule(w.signalRetry) {
		return
	}

	w.recovery.gaveUp = true
	w.logger.Error("watch backend failed", map[string]string{
		logging.FieldError: err.Error(),
	})
	w.mutex.Lock()
	backend := w.backend
	w.mutex.Unlock()
	_ = backend.Close()
	if w.onFailure != nil {
		w.onFailure(err)
	}
}

func (w *Watcher) signalRetry() {
	select {
	case w.retry <- struct{}{}:
	default:
	}
}

func (w *Watcher) retryBackend() {
	w.recovery.timer = nil
	if err := w.restart(); err != nil {
		if errors.Is(err, ErrClosed) {
			return
		}
		w.handleFailure(fmt.Errorf("restart watch backend: %w", err))
		return
	}
	w.recovery.attempts = 0
	restarts := w.recovery.restarts.Add(1)
	w.logger.Info("watch backend restarted", map[string]string{
		"restarts": fmt.Sprint(restarts),
	})
	w.resync()
}

// restart replaces the backend with a fresh one carrying the same watches.
// Paths that disappeared meanwhile are skipped.
func (w *Watcher) restart() error {
	replacement, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w.mutex.Lock()
	if w.closed {
		w.mutex.Unlock()
		_ = replacement.Close()
		return ErrClosed
	}
	for _, path := range w.watchedPathsLocked() {
		if err := replacement.Add(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			w.mutex.Unlock()
			_ = replacement.Close()
			return fmt.Errorf("re-add watch %s: %w", path, err)
		}
	}
	previous := w.backend
	w.backend = replacement
	w.mutex.Unlock()

	w.forward(replacement)
	_ = previous.Close()
	return nil
}

// resync tells every subscription that changes may have gone unreported while
// the backend was being replaced.
func (w *Watcher) resync() {
	type target struct {
		path     string
		callback func(Event)
	}
	w.mutex.Lock()
	if w.closed {
		w.mutex.Unlock()
		return
	}
	var targets []target
	for path, subs := range w.subs {
		for _, sub := range subs {
			targets = append(targets, target{path: path, callback: sub.callback})
		}
	}
	w.mutex.Unlock()

	now := time.Now().UTC()
	for _, target := range targets {
		w.deliver(Event{Path: target.path, At: now, Resync: true}, []func(Event){target.callback})
	}
}
