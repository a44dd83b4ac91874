package watcher

import (
	"time"

	"dama/internal/logging"
	"github.com/fsnotify/fsnotify"
)

// Event is one filesystem change, or several changes to the same path merged
// during a quiet period.
type Event struct {
	Path string
	Op   fsnotify.Op
	At   time.Time
	// Resync marks a synthetic event sent after the backend was replaced.
	// Changes made while it was down may have gone unreported.
	Resync bool
}

// IsModify reports whether the event should trigger a re-query: a content
// write, or a resync after a backend restart.
func (event Event) IsModify() bool {
	return event.Resync || IsModify(event.Op)
}

// IsModify classifies op. Only writes count; creation, removal, renames and
// metadata changes are "other" and never trigger a re-query.
func IsModify(op fsnotify.Op) bool {
	return op.Has(fsnotify.Write)
}

// Handle releases a registration.
type Handle interface {
	Close() error
}

// Watch registers a callback for filesystem events on a path.
type Watch interface {
	Watch(path string, callback func(Event)) (Handle, error)
}

type Options struct {
	Logger *logging.Logger
	// Debounce holds events back until their path has been quiet for the
	// duration, then delivers them merged. Zero delivers every event.
	Debounce time.Duration
	// Recursive registers every sub-directory of a watched directory,
	// including directories created later.
	Recursive bool
	// MaxWatches bounds backend watches, sub-directories included. Zero
	// means 512.
	MaxWatches int
	// RestartAttempts bounds consecutive backend restarts after errors. Zero
	// means 3; a negative value disables restarts.
	RestartAttempts int
	// OnFailure is called once when the backend fails and cannot be
	// restarted. Nothing is delivered afterwards.
	OnFailure func(error)
}

type Stats struct {
	// Watches counts backend watches, recursive sub-directories included.
	Watches   int
	Delivered uint64
	// Coalesced counts events merged into an event already held back by the
	// quiet period.
	Coalesced uint64
	Failures  uint64
	Restarts  int
}
