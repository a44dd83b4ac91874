package binding

import (
	"context"
	"testing"

	"dama/internal/control"
	"dama/internal/logging"
	"dama/internal/metrics"
	"dama/internal/runner"
)

func TestBindClickRunsCommandWithoutValue(t *testing.T) {
	commands := runner.NewScripted().Echo("suspend", "")
	registry := &metrics.Registry{}
	button := &control.Button{Text: "Suspend"}
	BindClick(context.Background(), button, ClickOptions{
		Command: "suspend",
		Runner:  commands,
		Metrics: registry,
	})

	button.Click()
	calls := commands.CallsTo("suspend")
	if len(calls) != 1 {
		t.Fatalf("expected one click command, got %d", len(calls))
	}
	if _, ok := calls[0].Value(); ok {
		t.Fatal("expected no value token for a button")
	}
	if count := registry.Snapshot().Commands[metrics.PurposeClick].Count; count != 1 {
		t.Fatalf("expected click to be recorded, got %d", count)
	}
}

func TestBindClickLogsFailure(t *testing.T) {
	buffer := logging.NewLogBuffer(16)
	button := &control.Button{}
	BindClick(context.Background(), button, ClickOptions{
		Name:    "reboot",
		Command: "reboot",
		Runner:  runner.NewScripted().Fail("reboot"),
		Logger:  logging.NewLoggerWithOutput(buffer, logging.LevelError, nil),
	})

	button.Click()
	found := buffer.Find(logging.LevelWarning, "click command failed")
	if len(found) != 1 {
		t.Fatalf("expected one failure warning, got %d", len(found))
	}
	if found[0].Context[logging.FieldControl] != "reboot" {
		t.Fatalf("expected control field, got %v", found[0].Context)
	}
}
