package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherRestartResyncsSubscriptions(t *testing.T) {
	watcher, err := New()
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer watcher.Close()

	path := filepath.Join(t.TempDir(), "volume")
	if err := os.WriteFile(path, []byte("40"), 0o600); err != nil {
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

	watcher.failures <- errors.New("event queue overflow")

	event, ok := waitForEvent(events)
	if !ok {
		t.Fatal("timed out waiting for resync")
	}
	if !event.Resync || event.Path != path || !event.IsModify() {
		t.Fatalf("expected resync for %s, got %+v", path, event)
	}
	stats := watcher.Stats()
	if stats.Restarts != 1 || stats.Failures != 1 {
		t.Fatalf("expected one failure and one restart, got %+v", stats)
	}

	if err := os.WriteFile(path, []byte("55"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	for {
		event, ok := waitForEvent(events)
		if !ok {
			t.Fatal("replacement backend delivered nothing")
		}
		if !event.Resync && event.IsModify() {
			return
		}
	}
}

func TestWatcherGivesUpWithoutRestartAttempts(t *testing.T) {
	failed := make(chan error, 1)
	watcher, err := NewWithOptions(Options{
		RestartAttempts: -1,
		OnFailure:       func(err error) { failed <- err },
	})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer watcher.Close()

	cause := errors.New("inotify gone")
	watcher.failures <- cause

	select {
	case err := <-failed:
		if !errors.Is(err, cause) {
			t.Fatalf("expected %v, got %v", cause, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnFailure was not called")
	}
	if restarts := watcher.Stats().Restarts; restarts != 0 {
		t.Fatalf("expected no restarts, got %d", restarts)
	}
}

func TestRecoveryBacksOffAndStops(t *testing.T) {
	r := newRecovery(2)
	for attempt := 0; attempt < 2; attempt++ {
		if !r.schedule(func() {}) {
			t.Fatalf("attempt %d should be scheduled", attempt)
		}
		r.cancel()
	}
	if r.schedule(func() {}) {
		t.Fatal("expected attempts to be exhausted")
	}
	if newRecovery(-1).schedule(func() {}) {
		t.Fatal("negative limit should disable restarts")
	}
}

func TestObserveRequeriesAfterRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "theme")
	if err := os.WriteFile(path, []byte("dark"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	source, err := New()
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer source.Close()

	sink := newRecordingSink()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Observe(ctx, ObserverOptions{Source: source}, path, func(context.Context) int { return 7 }, sink)

	waitForActiveWatches(t, source, 1)
	source.failures <- errors.New("event queue overflow")

	select {
	case <-sink.notify:
	case <-time.After(2 * time.Second):
		t.Fatal("observer did not re-query after restart")
	}
	if values := sink.snapshot(); values[0] != 7 {
		t.Fatalf("expected recomputed value 7, got %v", values)
	}
}
