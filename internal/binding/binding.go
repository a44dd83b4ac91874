package binding

import (
	"context"
	"errors"
	"sync/atomic"

	"dama/internal/bridge"
	"dama/internal/control"
	"dama/internal/logging"
	"dama/internal/loop"
	"dama/internal/metrics"
	"dama/internal/runner"
	"dama/internal/valuewatch"
	"dama/internal/watcher"
)

// Commands are the shell commands a value binding runs.
type Commands struct {
	// Initialize produces the value shown when the control is created.
	Initialize string
	// Query re-derives the external value after a file change or a failed
	// update.
	Query string
	// Update receives the edited value in runner.ValueEnv.
	Update string
}

// Options configures a value binding.
type Options[T runner.Scalar] struct {
	Name     string
	Control  control.Valued[T]
	Commands Commands
	// Default is shown whenever a command fails or prints something that
	// does not parse.
	Default T
	// WatchPath enables the file observer when non-empty.
	WatchPath string
	// Coalesce runs update commands on a worker with only the latest pending
	// edit, instead of synchronously on the loop.
	Coalesce bool
	Runner   runner.Runner
	Poster   loop.Poster
	Logger   *logging.Logger
	Metrics  *metrics.Registry
	Observer watcher.Options
}

// reconciliation carries a re-queried value after a failed coalesced update,
// tagged with the generation of the edit that failed.
type reconciliation[T runner.Scalar] struct {
	value T
	edit  uint64
}

// Outcome reports the result of a synchronous edit.
type Outcome[T runner.Scalar] struct {
	// Value is the value displayed once the edit settled.
	Value T
	// Reverted is set when the update failed and the control was reconciled.
	Reverted bool
	Err      error
}

type Binding[T runner.Scalar] struct {
	name      string
	control   control.Valued[T]
	commands  Commands
	fallback  T
	watchPath string
	coalesce  bool
	observer  watcher.Options
	logger    *logging.Logger
	metrics   *metrics.Registry

	initialize runner.Runner
	query      runner.Runner
	update     runner.Runner

	external  *bridge.Bridge[T]
	reconcile *bridge.Bridge[reconciliation[T]]
	edits     *valuewatch.Watch[T]
	editQueue *valuewatch.Watch[T]

	state   atomic.Int32
	started atomic.Bool
}

// New reads the initial value synchronously and shows it on the control. It
// must be called on the presentation loop.
func New[T runner.Scalar](ctx context.Context, options Options[T]) *Binding[T] {
	logger := options.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.Component("binding")
	if options.Name != "" {
		logger = logger.With(map[string]string{logging.FieldControl: options.Name})
	}

	binding := &Binding[T]{
		name:       options.Name,
		control:    options.Control,
		commands:   options.Commands,
		fallback:   options.Default,
		watchPath:  options.WatchPath,
		coalesce:   options.Coalesce,
		observer:   options.Observer,
		logger:     logger,
		metrics:    options.Metrics,
		initialize: runner.Recording(options.Runner, options.Metrics, metrics.PurposeInitialize),
		query:      runner.Recording(options.Runner, options.Metrics, metrics.PurposeQuery),
		update:     runner.Recording(options.Runner, options.Metrics, metrics.PurposeUpdate),
	}
	binding.external = bridge.New(options.Poster, binding.applyExternal)
	binding.reconcile = bridge.New(options.Poster, binding.applyReconciled)

	initial := runner.ReadOr(ctx, binding.initialize, binding.commands.Initialize, binding.fallback, binding.logger)
	binding.control.SetValue(initial)
	if binding.coalesce {
		binding.edits = valuewatch.New(binding.control.Value())
		binding.editQueue = binding.edits.Clone()
	}
	return binding
}

func (b *Binding[T]) Name() string {
	return b.name
}

func (b *Binding[T]) State() State {
	return State(b.state.Load())
}

func (b *Binding[T]) setState(state State) {
	b.state.Store(int32(state))
}

// Start installs the control's edit handler and launches the binding's
// background tasks on supervisor. Calling Start more than once has no effect.
func (b *Binding[T]) Start(supervisor *Supervisor) {
	if !b.started.CompareAndSwap(false, true) {
		return
	}

	ctx := supervisor.Context()
	if b.coalesce {
		b.control.SetEditHandler(b.EditAsync)
		supervisor.Go(b.taskName("edits"), b.runEdits)
	} else {
		b.control.SetEditHandler(func(value T) {
			b.Edit(ctx, value)
		})
	}

	if b.watchPath == "" {
		return
	}
	values := valuewatch.New(b.control.Value())
	pending := values.Clone()
	options := watcher.ObserverOptions{
		Name:    b.name,
		Logger:  b.logger,
		Metrics: b.metrics,
		Watcher: b.observer,
	}
	supervisor.Go(b.taskName("observer"), func(ctx context.Context) error {
		watcher.Observe(ctx, options, b.watchPath, b.recompute, values)
		return nil
	})
	supervisor.Go(b.taskName("pump"), func(ctx context.Context) error {
		return bridge.Pump(ctx, pending, b.external)
	})
}

func (b *Binding[T]) taskName(task string) string {
	if b.name == "" {
		return task
	}
	return b.name + " " + task
}

func (b *Binding[T]) recompute(ctx context.Context) T {
	return runner.ReadOr(ctx, b.query, b.commands.Query, b.fallback, b.logger)
}

// applyExternal runs on the loop for each value delivered by the observer.
// Values arriving while the user interacts with the control are dropped; the
// next change on disk delivers a fresh one.
func (b *Binding[T]) applyExternal(value T) {
	if b.control.Interacting() {
		b.metrics.IncExternalDropped()
		b.logger.Debug("external update dropped during interaction", map[string]string{
			"value": runner.Format(value),
		})
		return
	}
	b.setState(StateExternalUpdate)
	b.control.SetValue(value)
	b.metrics.IncExternalApplied()
	b.setState(StateIdle)
}

// applyReconciled forces the control to a re-queried value after a failed
// coalesced update, regardless of interaction. A revert for an edit the user
// has since superseded is dropped; the newer edit settles the control.
func (b *Binding[T]) applyReconciled(revert reconciliation[T]) {
	if _, latest := b.edits.Peek(); latest > revert.edit {
		b.logger.Debug("stale revert dropped", map[string]string{
			"value": runner.Format(revert.value),
		})
		return
	}
	b.control.SetValue(revert.value)
	b.metrics.IncReconciliations()
	b.setState(StateIdle)
}

// Edit applies a user edit on the loop: it shows value immediately, runs the
// update command with value in its environment and, if the command fails,
// re-queries the external value and shows that instead.
func (b *Binding[T]) Edit(ctx context.Context, value T) Outcome[T] {
	b.metrics.IncEdits()
	b.setState(StateUserEdit)
	b.control.SetValue(value)
	shown := b.control.Value()

	err := b.runUpdate(ctx, shown)
	if err == nil {
		b.setState(StateIdle)
		return Outcome[T]{Value: shown}
	}

	b.setState(StateReconciling)
	b.control.SetValue(b.recompute(ctx))
	b.metrics.IncReconciliations()
	b.setState(StateIdle)
	return Outcome[T]{Value: b.control.Value(), Reverted: true, Err: err}
}

// EditAsync shows value immediately and hands it to the edit worker. Edits
// made while the worker is busy collapse into the latest one.
func (b *Binding[T]) EditAsync(value T) {
	if b.edits == nil {
		b.Edit(context.Background(), value)
		return
	}
	b.metrics.IncEdits()
	b.setState(StateUserEdit)
	b.control.SetValue(value)
	b.edits.Set(b.control.Value())
}

func (b *Binding[T]) runEdits(ctx context.Context) error {
	for {
		value, err := b.editQueue.WaitContext(ctx)
		if err != nil {
			return err
		}
		if err := b.runUpdate(ctx, value); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if b.editQueue.Pending() {
				continue
			}
			b.setState(StateReconciling)
			b.reconcile.Send(reconciliation[T]{
				value: b.recompute(ctx),
				edit:  b.editQueue.Seen(),
			})
			continue
		}
		if !b.editQueue.Pending() {
			b.setState(StateIdle)
		}
	}
}

func (b *Binding[T]) runUpdate(ctx context.Context, value T) error {
	_, err := b.update.Run(ctx, b.commands.Update, runner.ValueEntry(value))
	if err == nil || errors.Is(err, runner.ErrNoCommand) {
		return nil
	}
	b.logger.Warn("update command failed, reconciling", map[string]string{
		"command":          b.commands.Update,
		"value":            runner.Format(value),
		logging.FieldError: err.Error(),
	})
	return err
}
