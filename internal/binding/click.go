package binding

import (
	"context"
	"errors"

	"dama/internal/control"
	"dama/internal/logging"
	"dama/internal/metrics"
	"dama/internal/runner"
)

// ClickOptions configures a command-only button.
type ClickOptions struct {
	Name    string
	Command string
	Runner  runner.Runner
	Logger  *logging.Logger
	Metrics *metrics.Registry
}

// BindClick makes button run its command when clicked. The command gets no
// value and its failure is only logged.
func BindClick(ctx context.Context, button *control.Button, options ClickOptions) {
	logger := options.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.Component("binding")
	if options.Name != "" {
		logger = logger.With(map[string]string{logging.FieldControl: options.Name})
	}
	click := runner.Recording(options.Runner, options.Metrics, metrics.PurposeClick)

	button.SetClickHandler(func() {
		_, err := click.Run(ctx, options.Command)
		if err == nil || errors.Is(err, runner.ErrNoCommand) {
			return
		}
		logger.Warn("click command failed", map[string]string{
			"command":          options.Command,
			logging.FieldError: err.Error(),
		})
	})
}
