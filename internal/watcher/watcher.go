package watcher

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"dama/internal/logging"
	"github.com/fsnotify/fsnotify"
)

const (
	defaultMaxWatches = 512
	incomingSize      = 16
)

var (
	ErrMaxWatchesExceeded = errors.New("max watches exceeded")
	ErrClosed             = errors.New("watcher is closed")
)

// Watcher fans fsnotify events out to per-path subscriptions. Every callback
// runs on one dispatch goroutine, so callbacks of a Watcher never overlap and
// a slow callback delays only this Watcher.
type Watcher struct {
	logger    *logging.Logger
	recursive bool
	limit     int
	onFailure func(error)
	quiet     *quietPeriod
	recovery  *recovery

	mutex   sync.Mutex
	backend *fsnotify.Watcher
	subs    map[string][]*subscription
	// nested counts the recursive registrations sharing each sub-directory.
	nested  map[string]int
	watches int
	nextID  uint64
	closed  bool

	incoming chan fsnotify.Event
	failures chan error
	due      chan string
	retry    chan struct{}
	stop     chan struct{}

	delivered atomic.Uint64
	coalesced atomic.Uint64
	failed    atomic.Uint64
}

func New() (*Watcher, error) {
	return NewWithOptions(Options{})
}

func NewWithOptions(options Options) (*Watcher, error) {
	backend, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	logger := options.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	limit := options.MaxWatches
	if limit <= 0 {
		limit = defaultMaxWatches
	}

	w := &Watcher{
		logger:    logger.Component("watcher"),
		recursive: options.Recursive,
		limit:     limit,
		onFailure: options.OnFailure,
		recovery:  newRecovery(options.RestartAttempts),
		backend:   backend,
		subs:      make(map[string][]*subscription),
		nested:    make(map[string]int),
		incoming:  make(chan fsnotify.Event, incomingSize),
		failures:  make(chan error, 4),
		due:       make(chan string, incomingSize),
		retry:     make(chan struct{}, 1),
		stop:      make(chan struct{}),
	}
	if options.Debounce > 0 {
		w.quiet = newQuietPeriod(options.Debounce)
	}
	w.forward(backend)
	go w.dispatch()
	return w, nil
}

// Close stops delivery and releases the backend. Handles stay safe to close.
func (w *Watcher) Close() error {
	if w == nil {
		return nil
	}
	w.mutex.Lock()
	if w.closed {
		w.mutex.Unlock()
		return nil
	}
	w.closed = true
	backend := w.backend
	w.mutex.Unlock()

	close(w.stop)
	return backend.Close()
}

func (w *Watcher) dispatch() {
	defer func() {
		w.quiet.stop()
		w.recovery.cancel()
	}()
	for {
		select {
		case event := <-w.incoming:
			w.handleEvent(event)
		case path := <-w.due:
			w.flush(path)
		case err := <-w.failures:
			w.handleFailure(err)
		case <-w.retry:
			w.retryBackend()
		case <-w.stop:
			return
		}
	}
}

// forward copies one backend's channels into the dispatch queues until the
// backend is closed.
func (w *Watcher) forward(backend *fsnotify.Watcher) {
	go func() {
		for {
			select {
			case event, ok := <-backend.Events:
				if !ok {
					return
				}
				select {
				case w.incoming <- event:
				case <-w.stop:
					return
				}
			case err, ok := <-backend.Errors:
				if !ok {
					return
				}
				select {
				case w.failures <- err:
				case <-w.stop:
					return
				}
			case <-w.stop:
				return
			}
		}
	}()
}

func (w *Watcher) handleEvent(raw fsnotify.Event) {
	if raw.Has(fsnotify.Create) {
		w.adoptCreatedDir(raw.Name)
	}

	w.mutex.Lock()
	if w.closed {
		w.mutex.Unlock()
		return
	}
	callbacks := w.matchingLocked(raw.Name)
	w.mutex.Unlock()
	if len(callbacks) == 0 {
		return
	}

	event := Event{Path: raw.Name, Op: raw.Op, At: time.Now().UTC()}
	if w.quiet != nil {
		if w.quiet.hold(event, w.signalDue) {
			w.coalesced.Add(1)
		}
		return
	}
	w.deliver(event, callbacks)
}

func (w *Watcher) signalDue(path string) {
	select {
	case w.due <- path:
	case <-w.stop:
	}
}

func (w *Watcher) flush(path string) {
	event, ok := w.quiet.release(path)
	if !ok {
		return
	}
	w.mutex.Lock()
	if w.closed {
		w.mutex.Unlock()
		return
	}
	callbacks := w.matchingLocked(path)
	w.mutex.Unlock()
	w.deliver(event, callbacks)
}

func (w *Watcher) deliver(event Event, callbacks []func(Event)) {
	for _, callback := range callbacks {
		callback(event)
		w.delivered.Add(1)
	}
}

func (w *Watcher) logWatchChange(message, path string, watches int) {
	w.logger.Debug(message, map[string]string{
		"path":    path,
		"watches": strconv.Itoa(watches),
	})
}

func (w *Watcher) Stats() Stats {
	if w == nil {
		return Stats{}
	}
	w.mutex.Lock()
	watches := w.watches
	w.mutex.Unlock()
	return Stats{
		Watches:   watches,
		Delivered: w.delivered.Load(),
		Coalesced: w.coalesced.Load(),
		Failures:  w.failed.Load(),
		Restarts:  int(w.recovery.restarts.Load()),
	}
}
