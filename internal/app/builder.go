package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"dama/internal/binding"
	"dama/internal/config"
	"dama/internal/control"
	"dama/internal/logging"
	"dama/internal/loop"
	"dama/internal/metrics"
	"dama/internal/runner"
	"dama/internal/watcher"
)

type BuildOptions struct {
	Logger     *logging.Logger
	Metrics    *metrics.Registry
	Runner     runner.Runner
	Poster     loop.Poster
	Supervisor *binding.Supervisor
	Observer   watcher.Options
}

// Panel is a built control tree ready for a renderer.
type Panel struct {
	Title string
	Root  control.Control

	builder *Builder
}

// Bindings reports how many value bindings have been created so far. Boxes
// create their children's bindings when first populated.
func (panel *Panel) Bindings() int {
	if panel == nil || panel.builder == nil {
		return 0
	}
	return int(panel.builder.bound.Load())
}

type BuildError struct {
	Stage string
	Err   error
}

func (e BuildError) Error() string {
	if e.Err == nil {
		return e.Stage
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e BuildError) Unwrap() error {
	return e.Err
}

const (
	StageLoadPanel = "load_panel"
	StageBuild     = "build"
)

// Build translates panel into controls and starts the bindings of every
// control outside a box. It must be called on the presentation loop, since
// bindings read their initial values synchronously.
func Build(ctx context.Context, panel config.Panel, options BuildOptions) (*Panel, error) {
	if options.Runner == nil {
		return nil, errors.New("runner is required")
	}
	if options.Poster == nil {
		return nil, errors.New("poster is required")
	}
	if options.Supervisor == nil {
		return nil, errors.New("supervisor is required")
	}
	logger := options.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	builder := &Builder{
		ctx:     ctx,
		options: options,
		logger:  logger.Component("app"),
	}
	root := panel.Root.Widget()
	if root == nil {
		return nil, BuildError{Stage: StageBuild, Err: fmt.Errorf("unknown root type %q", panel.Root.Type)}
	}
	return &Panel{
		Title:   panel.Title,
		Root:    builder.build(root),
		builder: builder,
	}, nil
}

// Builder creates controls and their bindings from widgets.
type Builder struct {
	ctx     context.Context
	options BuildOptions
	logger  *logging.Logger
	bound   atomic.Int64
}

func (b *Builder) build(widget config.Widget) control.Control {
	meta := control.Meta(widget.Metadata())
	switch typed := widget.(type) {
	case config.Box:
		box := &control.Box{Meta: meta, Title: typed.Title}
		if typed.Horizontal {
			box.Orientation = control.Horizontal
		}
		children := typed.Children
		box.SetBuilder(func() []control.Control {
			b.logger.Debug("populating box", map[string]string{
				"title":    typed.Title,
				"children": fmt.Sprint(len(children)),
			})
			return b.buildAll(children)
		})
		return box
	case config.Notebook:
		notebook := &control.Notebook{Meta: meta}
		for index, child := range b.buildAll(typed.Children) {
			notebook.Pages = append(notebook.Pages, control.Page{
				Title:   control.PageTitle(child, index),
				Control: child,
			})
		}
		return notebook
	case config.Label:
		return &control.Label{Meta: meta, Text: typed.Text}
	case config.Image:
		return &control.Image{Meta: meta, Path: typed.Path}
	case config.Button:
		button := &control.Button{Meta: meta, Text: typed.Text}
		binding.BindClick(b.options.Supervisor.Context(), button, binding.ClickOptions{
			Name:    meta.Name,
			Command: typed.OnClick,
			Runner:  b.options.Runner,
			Logger:  b.options.Logger,
			Metrics: b.options.Metrics,
		})
		return button
	case config.CheckBox:
		checkBox := &control.CheckBox{Meta: meta, Text: typed.Text}
		start(b, binding.Options[bool]{
			Name:    meta.Name,
			Control: checkBox,
			Commands: binding.Commands{
				Initialize: typed.Initialize,
				Query:      typed.Initialize,
				Update:     typed.OnClick,
			},
			WatchPath: typed.Watch,
		})
		return checkBox
	case config.Scale:
		scale := &control.Scale{Meta: meta, Low: typed.Low, High: typed.High, Step: typed.Step}
		query := typed.Select
		if query == "" {
			query = typed.Initialize
		}
		start(b, binding.Options[float64]{
			Name:    meta.Name,
			Control: scale,
			Commands: binding.Commands{
				Initialize: typed.Initialize,
				Query:      query,
				Update:     typed.OnUpdate,
			},
			Default:   typed.Low,
			WatchPath: typed.Watch,
			Coalesce:  typed.Coalesce,
		})
		return scale
	case config.ComboBox:
		comboBox := &control.ComboBox{Meta: meta}
		comboBox.SetOptions(b.comboOptions(typed.Initialize, meta.Name))
		start(b, binding.Options[string]{
			Name:    meta.Name,
			Control: comboBox,
			Commands: binding.Commands{
				Initialize: typed.Select,
				Query:      typed.Select,
				Update:     typed.OnUpdate,
			},
			WatchPath: typed.Watch,
		})
		return comboBox
	default:
		panic(fmt.Sprintf("app: unhandled widget %T", widget))
	}
}

func (b *Builder) buildAll(widgets []config.Widget) []control.Control {
	controls := make([]control.Control, 0, len(widgets))
	for _, widget := range widgets {
		controls = append(controls, b.build(widget))
	}
	return controls
}

// comboOptions lists a combo box's entries. A failing command leaves it empty.
func (b *Builder) comboOptions(command, name string) []string {
	entries, err := runner.Lines(b.ctx, runner.Recording(b.options.Runner, b.options.Metrics, metrics.PurposeInitialize), command)
	if err != nil && !errors.Is(err, runner.ErrNoCommand) {
		b.logger.Warn("combo box options unavailable", map[string]string{
			logging.FieldControl: name,
			"command":            command,
			logging.FieldError:   err.Error(),
		})
	}
	return entries
}

func start[T runner.Scalar](b *Builder, options binding.Options[T]) {
	options.Runner = b.options.Runner
	options.Poster = b.options.Poster
	options.Logger = b.options.Logger
	options.Metrics = b.options.Metrics
	options.Observer = b.options.Observer
	bound := binding.New(b.ctx, options)
	bound.Start(b.options.Supervisor)
	b.bound.Add(1)
}
