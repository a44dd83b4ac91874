package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"dama/internal/app"
	"dama/internal/binding"
	"dama/internal/config"
	"dama/internal/logging"
	"dama/internal/loop"
	"dama/internal/metrics"
	"dama/internal/runner"
	"dama/internal/watcher"
)

func newRunCommand(deps commandDeps) *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run PANEL",
		Short: "Show a panel",
		Long: `Show the panel described by PANEL (.yaml, .yml or .toml).

On a terminal the panel is drawn interactively. With --headless, or when
stdin or stdout is not a terminal, the panel is printed whenever it changes
and commands are read from stdin, one per line:

  show                  print the panel
  set NAME VALUE        edit a scale, checkbox or combobox
  toggle NAME           toggle a checkbox
  click NAME            click a button
  hold NAME             start interacting with a control
  release NAME          stop interacting with a control
  page [NAME] INDEX     select a notebook page, counting from 0
  quit                  exit`,
		Args: exactPanelArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := flags.settings(cmd, deps.LookupEnv)
			if err != nil {
				return err
			}
			headless := flags.headless || deps.IsTerminal == nil || !deps.IsTerminal()
			return runPanel(cmd.Context(), deps, settings, args[0], headless)
		},
	}
	flags.register(cmd)
	return cmd
}

// session holds what every renderer needs to build and run a panel.
type session struct {
	logger     *logging.Logger
	metrics    *metrics.Registry
	runner     runner.Runner
	supervisor *binding.Supervisor
	observer   watcher.Options
	panel      config.Panel
}

func (s *session) build(poster loop.Poster) (*app.Panel, error) {
	return app.Build(s.supervisor.Context(), s.panel, app.BuildOptions{
		Logger:     s.logger,
		Metrics:    s.metrics,
		Runner:     s.runner,
		Poster:     poster,
		Supervisor: s.supervisor,
		Observer:   s.observer,
	})
}

func runPanel(ctx context.Context, deps commandDeps, settings config.Settings, panelPath string, headless bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	level, ok := logging.ParseLevel(settings.Log.Level)
	if !ok {
		return usageError{err: fmt.Errorf("unknown log level %q", settings.Log.Level)}
	}
	// The terminal renderer owns the screen, so its logs only reach the
	// buffer and the status line.
	var output io.Writer = deps.Stderr
	if !headless {
		output = nil
	}
	logger := logging.NewLoggerWithOutput(logging.NewLogBuffer(int(settings.Log.BufferSize)), level, output)

	panel, err := app.LoadPanel(logger, panelPath)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if deps.Signals != nil {
		signalCh, stopNotify := deps.Signals()
		stopListening := cancelOnSignal(logger, cancel, signalCh)
		defer stopNotify()
		defer stopListening()
	}

	registry := &metrics.Registry{}
	current := &session{
		logger:  logger,
		metrics: registry,
		runner: &runner.ShellRunner{
			Shell:   settings.Runner.Shell,
			Timeout: settings.Runner.CommandTimeout,
			Logger:  logger,
		},
		supervisor: binding.NewSupervisor(runCtx, logger),
		observer: watcher.Options{
			Logger:     logger,
			Debounce:   settings.Watch.Debounce,
			Recursive:  settings.Watch.Recursive,
			MaxWatches: int(settings.Watch.MaxWatches),
		},
		panel: panel,
	}

	plan := &shutdownPlan{logger: logger}
	plan.then("supervisor", func(context.Context) error {
		return current.supervisor.Shutdown()
	})
	plan.then("metrics", func(context.Context) error {
		return writeMetricsFile(settings.Metrics.File, registry)
	})

	logger.Info("panel starting", map[string]string{
		"path":     panelPath,
		"headless": fmt.Sprint(headless),
		"shell":    settings.Runner.Shell,
	})
	if headless {
		err = runHeadless(runCtx, deps, current)
	} else {
		err = runTUI(runCtx, deps, current)
	}
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return errors.Join(err, plan.run(context.Background()))
}

func newValidateCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "validate PANEL",
		Short: "Check a panel file without running any command",
		Args:  exactPanelArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			panel, err := app.LoadPanel(nil, args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(deps.Stdout, "%s: ok (%q, %d controls)\n", args[0], panel.Title, countNodes(panel.Root))
			return err
		},
	}
}

func countNodes(node config.Node) int {
	count := 1
	for _, child := range node.Children {
		count += countNodes(child)
	}
	return count
}
