package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func newTestWatcher(t *testing.T, options Options) *Watcher {
	t.Helper()
	w, err := NewWithOptions(options)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w
}

// subscribe registers path and returns a channel receiving its events.
func subscribe(t *testing.T, w *Watcher, path string) <-chan Event {
	t.Helper()
	events := make(chan Event, 32)
	registration, err := w.Watch(path, func(event Event) {
		select {
		case events <- event:
		default:
		}
	})
	if err != nil {
		t.Fatalf("watch %s: %v", path, err)
	}
	t.Cleanup(func() { _ = registration.Close() })
	return events
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func waitForEvent(events <-chan Event) (Event, bool) {
	select {
	case event := <-events:
		return event, true
	case <-time.After(2 * time.Second):
		return Event{}, false
	}
}

// waitForPath skips unrelated events until one for path arrives.
func waitForPath(t *testing.T, events <-chan Event, path string, match func(Event) bool) Event {
	t.Helper()
	for {
		event, ok := waitForEvent(events)
		if !ok {
			t.Fatalf("timed out waiting for an event on %s", path)
		}
		if event.Path == path && match(event) {
			return event
		}
	}
}

func TestWatcherReportsFileChanges(t *testing.T) {
	cases := map[string]struct {
		change func(t *testing.T, path string)
		match  func(Event) bool
	}{
		"write": {
			change: func(t *testing.T, path string) { writeFile(t, path, "update") },
			match:  Event.IsModify,
		},
		"remove": {
			change: func(t *testing.T, path string) {
				if err := os.Remove(path); err != nil {
					t.Fatalf("remove: %v", err)
				}
			},
			match: func(event Event) bool { return event.Op.Has(fsnotify.Remove) && !event.IsModify() },
		},
	}
	for name, testCase := range cases {
		t.Run(name, func(t *testing.T) {
			w := newTestWatcher(t, Options{})
			path := filepath.Join(t.TempDir(), "state")
			writeFile(t, path, "initial")
			events := subscribe(t, w, path)

			testCase.change(t, path)
			waitForPath(t, events, path, testCase.match)
		})
	}
}

func TestIsModifyOnlyAcceptsWrites(t *testing.T) {
	cases := map[fsnotify.Op]bool{
		fsnotify.Write:                  true,
		fsnotify.Write | fsnotify.Chmod: true,
		fsnotify.Create:                 false,
		fsnotify.Remove:                 false,
		fsnotify.Rename:                 false,
		fsnotify.Chmod:                  false,
	}
	for op, want := range cases {
		if got := IsModify(op); got != want {
			t.Fatalf("%s: expected %v, got %v", op, want, got)
		}
	}
	if !(Event{Op: fsnotify.Chmod, Resync: true}).IsModify() {
		t.Fatal("resync events should always read as modifications")
	}
}

func TestWatcherDirectoryReportsEntries(t *testing.T) {
	w := newTestWatcher(t, Options{})
	dir := t.TempDir()
	events := subscribe(t, w, dir)

	path := filepath.Join(dir, "state")
	writeFile(t, path, "on")
	waitForPath(t, events, path, func(Event) bool { return true })
}

func TestWatcherSharedPathCountsOnce(t *testing.T) {
	w := newTestWatcher(t, Options{})
	dir := t.TempDir()

	first, err := w.Watch(dir, func(Event) {})
	if err != nil {
		t.Fatalf("first watch: %v", err)
	}
	second, err := w.Watch(dir, func(Event) {})
	if err != nil {
		t.Fatalf("second watch: %v", err)
	}
	if watches := w.Stats().Watches; watches != 1 {
		t.Fatalf("expected one backend watch for a shared path, got %d", watches)
	}

	_ = first.Close()
	_ = first.Close()
	if watches := w.Stats().Watches; watches != 1 {
		t.Fatalf("expected watch kept for remaining subscriber, got %d", watches)
	}
	_ = second.Close()
	if watches := w.Stats().Watches; watches != 0 {
		t.Fatalf("expected no watches, got %d", watches)
	}
}

func TestWatcherRejectsBadRegistrations(t *testing.T) {
	w := newTestWatcher(t, Options{})
	if _, err := w.Watch(filepath.Join(t.TempDir(), "missing"), func(Event) {}); err == nil {
		t.Fatal("expected error for missing path")
	}
	if _, err := w.Watch(t.TempDir(), nil); err == nil {
		t.Fatal("expected error for nil callback")
	}

	_ = w.Close()
	if _, err := w.Watch(t.TempDir(), func(Event) {}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after close, got %v", err)
	}
}

func TestWatcherMaxWatches(t *testing.T) {
	w := newTestWatcher(t, Options{MaxWatches: 1})
	if _, err := w.Watch(t.TempDir(), func(Event) {}); err != nil {
		t.Fatalf("first watch: %v", err)
	}
	if _, err := w.Watch(t.TempDir(), func(Event) {}); !errors.Is(err, ErrMaxWatchesExceeded) {
		t.Fatalf("expected ErrMaxWatchesExceeded, got %v", err)
	}
}

func TestWatcherCountsDeliveries(t *testing.T) {
	w := newTestWatcher(t, Options{})
	path := filepath.Join(t.TempDir(), "count")
	writeFile(t, path, "0")
	events := subscribe(t, w, path)

	writeFile(t, path, "1")
	waitForPath(t, events, path, Event.IsModify)
	if delivered := w.Stats().Delivered; delivered == 0 {
		t.Fatal("expected delivered events to be counted")
	}
}
