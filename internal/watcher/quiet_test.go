package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestQuietPeriodMergesHeldEvents(t *testing.T) {
	quiet := newQuietPeriod(time.Hour)
	defer quiet.stop()

	first := Event{Path: "/tmp/level", Op: fsnotify.Write, At: time.Unix(1, 0)}
	second := Event{Path: "/tmp/level", Op: fsnotify.Chmod, At: time.Unix(2, 0)}
	if quiet.hold(first, func(string) {}) {
		t.Fatal("first event should not count as coalesced")
	}
	if !quiet.hold(second, func(string) {}) {
		t.Fatal("second event should be merged")
	}

	event, ok := quiet.release("/tmp/level")
	if !ok {
		t.Fatal("expected a held event")
	}
	if event.Op != fsnotify.Write|fsnotify.Chmod {
		t.Fatalf("expected merged ops, got %s", event.Op)
	}
	if !event.At.Equal(second.At) {
		t.Fatalf("expected later timestamp, got %v", event.At)
	}
	if !event.IsModify() {
		t.Fatal("merged write should still read as a modification")
	}
	if _, ok := quiet.release("/tmp/level"); ok {
		t.Fatal("release should empty the slot")
	}
}

func TestWatcherDebounceDeliversOnceAfterBurst(t *testing.T) {
	watcher, err := NewWithOptions(Options{Debounce: 150 * time.Millisecond})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer watcher.Close()

	path := filepath.Join(t.TempDir(), "brightness")
	if err := os.WriteFile(path, []byte("0"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	events := make(chan Event, 16)
	handle, err := watcher.Watch(path, func(event Event) {
		events <- event
	})
	if err != nil {
		t.Fatalf("watch path: %v", err)
	}
	defer handle.Close()

	for _, value := range []string{"10", "20", "30"} {
		if err := os.WriteFile(path, []byte(value), 0o600); err != nil {
			t.Fatalf("write file: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	event, ok := waitForEvent(events)
	if !ok {
		t.Fatal("timed out waiting for debounced event")
	}
	if !event.IsModify() {
		t.Fatalf("expected a modification, got %s", event.Op)
	}
	select {
	case extra := <-events:
		t.Fatalf("expected one event for the burst, also got %+v", extra)
	case <-time.After(400 * time.Millisecond):
	}
}
