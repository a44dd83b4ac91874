package main

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"dama/internal/app"
	"dama/internal/binding"
	"dama/internal/config"
	"dama/internal/logging"
	"dama/internal/loop"
	"dama/internal/metrics"
	"dama/internal/runner"
)

const deskYAML = `
title: Desk
root:
  type: notebook
  children:
    - type: box
      title: Audio
      children:
        - type: label
          text: Output
        - type: scale
          name: volume
          range: {low: 0, high: 100}
          step: 10
          initialize: get-volume
          on_update: set-volume
          coalesce: false
        - type: combobox
          name: sink
          initialize: list-sinks
          select: active-sink
          on_update: set-sink
    - type: box
      title: Power
      children:
        - type: checkbox
          name: night
          text: Night mode
          initialize: night-state
          on_click: night-toggle
        - type: button
          name: suspend
          text: Suspend
          on_click: suspend
`

func deskCommands() *runner.Scripted {
	return runner.NewScripted().
		Echo("get-volume", "35").
		Echo("set-volume", "").
		Echo("list-sinks", "speakers\nheadphones\n").
		Echo("active-sink", "headphones").
		Echo("set-sink", "").
		Echo("night-state", "true").
		Echo("night-toggle", "").
		Echo("suspend", "")
}

func newTestSession(t *testing.T, commands runner.Runner) *session {
	t.Helper()
	panel, err := config.Decode([]byte(deskYAML), config.FormatYAML)
	if err != nil {
		t.Fatalf("decode panel: %v", err)
	}
	supervisor := binding.NewSupervisor(context.Background(), nil)
	t.Cleanup(func() { _ = supervisor.Shutdown() })
	return &session{
		logger:     logging.NewLoggerWithOutput(logging.NewLogBuffer(64), logging.LevelDebug, nil),
		metrics:    &metrics.Registry{},
		runner:     commands,
		supervisor: supervisor,
		panel:      panel,
	}
}

// buildInline builds the desk panel with a poster that runs callbacks
// immediately. The desk panel watches nothing, so nothing posts from other
// goroutines.
func buildInline(t *testing.T, commands runner.Runner) *app.Panel {
	t.Helper()
	built, err := newTestSession(t, commands).build(loop.PosterFunc(func(fn func()) { fn() }))
	if err != nil {
		t.Fatalf("build panel: %v", err)
	}
	return built
}

// syncBuffer is a bytes.Buffer safe to write from the loop while a test reads.
type syncBuffer struct {
	mutex  sync.Mutex
	buffer bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.buffer.Write(p)
}

func (b *syncBuffer) String() string {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.buffer.String()
}

func waitForOutput(t *testing.T, output *syncBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(output.String(), want) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected output to contain %q, got:\n%s", want, output.String())
}
