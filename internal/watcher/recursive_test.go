package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func mkdirAll(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
}

// eventually polls condition until it holds or a second has passed.
func eventually(t *testing.T, what string, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !condition() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRecursiveWatchReportsNestedWrites(t *testing.T) {
	w := newTestWatcher(t, Options{Recursive: true})
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	mkdirAll(t, nested)
	events := subscribe(t, w, root)

	path := filepath.Join(nested, "sample")
	writeFile(t, path, "data")
	waitForPath(t, events, path, Event.IsModify)
}

func TestNonRecursiveWatchIgnoresNestedWrites(t *testing.T) {
	w := newTestWatcher(t, Options{})
	root := t.TempDir()
	nested := filepath.Join(root, "a")
	mkdirAll(t, nested)
	events := subscribe(t, w, root)

	writeFile(t, filepath.Join(nested, "sample"), "data")
	for {
		select {
		case event := <-events:
			if event.Path != nested {
				t.Fatalf("unexpected nested event %+v", event)
			}
		case <-time.After(300 * time.Millisecond):
			return
		}
	}
}

func TestRecursiveWatchAdoptsCreatedDirectories(t *testing.T) {
	w := newTestWatcher(t, Options{Recursive: true})
	root := t.TempDir()
	events := subscribe(t, w, root)

	created := filepath.Join(root, "later")
	mkdirAll(t, created)
	eventually(t, "created directory to be watched", func() bool {
		w.mutex.Lock()
		defer w.mutex.Unlock()
		return w.nested[created] > 0
	})

	path := filepath.Join(created, "value")
	writeFile(t, path, "1")
	waitForPath(t, events, path, Event.IsModify)
}

func TestRecursiveCloseReleasesSubdirectories(t *testing.T) {
	w := newTestWatcher(t, Options{Recursive: true})
	root := t.TempDir()
	mkdirAll(t, filepath.Join(root, "a", "b"))

	registration, err := w.Watch(root, func(Event) {})
	if err != nil {
		t.Fatalf("watch root: %v", err)
	}
	if watches := w.Stats().Watches; watches != 3 {
		t.Fatalf("expected root plus two sub-directories, got %d", watches)
	}
	_ = registration.Close()
	if watches := w.Stats().Watches; watches != 0 {
		t.Fatalf("expected all watches released, got %d", watches)
	}
}

func TestRecursiveWatchRespectsLimit(t *testing.T) {
	w := newTestWatcher(t, Options{Recursive: true, MaxWatches: 2})
	root := t.TempDir()
	mkdirAll(t, filepath.Join(root, "a", "b"))

	if _, err := w.Watch(root, func(Event) {}); err == nil {
		t.Fatal("expected the tree to exceed the limit")
	}
	if watches := w.Stats().Watches; watches != 0 {
		t.Fatalf("expected a failed registration to release everything, got %d", watches)
	}
}

func TestWatchContextReleasesOnCancel(t *testing.T) {
	w := newTestWatcher(t, Options{})
	path := filepath.Join(t.TempDir(), "level")
	writeFile(t, path, "1")

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan Event, 1)
	if _, err := w.WatchContext(ctx, path, func(event Event) { events <- event }); err != nil {
		t.Fatalf("watch context: %v", err)
	}

	cancel()
	eventually(t, "registration release", func() bool { return w.Stats().Watches == 0 })

	writeFile(t, path, "2")
	select {
	case event := <-events:
		t.Fatalf("unexpected event after cancel: %+v", event)
	case <-time.After(200 * time.Millisecond):
	}
}
