package metrics

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Command purposes recorded by the runner.
const (
	PurposeInitialize = "initialize"
	PurposeQuery      = "query"
	PurposeUpdate     = "update"
	PurposeClick      = "click"
)

// Registry counts value-synchronization activity. The zero value is ready to
// use and a nil *Registry ignores every call.
type Registry struct {
	externalApplied   atomic.Int64
	externalDropped   atomic.Int64
	edits             atomic.Int64
	reconciliations   atomic.Int64
	observerEvents    atomic.Int64
	observersInactive atomic.Int64
	commands          sync.Map
}

type commandStats struct {
	count         atomic.Int64
	failures      atomic.Int64
	durationNanos atomic.Int64
}

// Snapshot is a point-in-time copy of the registry counters.
type Snapshot struct {
	ExternalApplied   int64
	ExternalDropped   int64
	Edits             int64
	Reconciliations   int64
	ObserverEvents    int64
	ObserversInactive int64
	Commands          map[string]CommandSnapshot
}

type CommandSnapshot struct {
	Count    int64
	Failures int64
	Duration time.Duration
}

func (r *Registry) IncExternalApplied() {
	if r == nil {
		return
	}
	r.externalApplied.Add(1)
}

// IncExternalDropped counts external updates discarded because the control
// was under user interaction.
func (r *Registry) IncExternalDropped() {
	if r == nil {
		return
	}
	r.externalDropped.Add(1)
}

func (r *Registry) IncEdits() {
	if r == nil {
		return
	}
	r.edits.Add(1)
}

func (r *Registry) IncReconciliations() {
	if r == nil {
		return
	}
	r.reconciliations.Add(1)
}

func (r *Registry) IncObserverEvents() {
	if r == nil {
		return
	}
	r.observerEvents.Add(1)
}

func (r *Registry) IncObserversInactive() {
	if r == nil {
		return
	}
	r.observersInactive.Add(1)
}

func (r *Registry) RecordCommand(purpose string, duration time.Duration, err error) {
	if r == nil {
		return
	}
	if strings.TrimSpace(purpose) == "" {
		purpose = "unknown"
	}
	stats := r.commandStats(purpose)
	stats.count.Add(1)
	stats.durationNanos.Add(duration.Nanoseconds())
	if err != nil {
		stats.failures.Add(1)
	}
}

func (r *Registry) Snapshot() Snapshot {
	if r == nil {
		return Snapshot{}
	}
	snapshot := Snapshot{
		ExternalApplied:   r.externalApplied.Load(),
		ExternalDropped:   r.externalDropped.Load(),
		Edits:             r.edits.Load(),
		Reconciliations:   r.reconciliations.Load(),
		ObserverEvents:    r.observerEvents.Load(),
		ObserversInactive: r.observersInactive.Load(),
		Commands:          make(map[string]CommandSnapshot),
	}
	for _, purpose := range r.commandPurposes() {
		stats := r.commandStats(purpose)
		snapshot.Commands[purpose] = CommandSnapshot{
			Count:    stats.count.Load(),
			Failures: stats.failures.Load(),
			Duration: time.Duration(stats.durationNanos.Load()),
		}
	}
	return snapshot
}

func (r *Registry) commandStats(purpose string) *commandStats {
	value, _ := r.commands.LoadOrStore(purpose, &commandStats{})
	return value.(*commandStats)
}

// commandPurposes lists the recorded purposes in sorted order.
func (r *Registry) commandPurposes() []string {
	if r == nil {
		return nil
	}
	var purposes []string
	r.commands.Range(func(key, value any) bool {
		if purpose, ok := key.(string); ok {
			purposes = append(purposes, purpose)
		}
		return true
	})
	sort.Strings(purposes)
	return purposes
}
