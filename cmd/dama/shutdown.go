package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"dama/internal/logging"
)

type shutdownStep struct {
	name string
	stop func(context.Context) error
}

// shutdownPlan runs its steps once, in the order they were added, and joins
// their failures.
type shutdownPlan struct {
	logger *logging.Logger
	steps  []shutdownStep
	ran    atomic.Bool
}

func (plan *shutdownPlan) then(name string, stop func(context.Context) error) {
	if stop != nil {
		plan.steps = append(plan.steps, shutdownStep{name: name, stop: stop})
	}
}

func (plan *shutdownPlan) run(ctx context.Context) error {
	if !plan.ran.CompareAndSwap(false, true) {
		return nil
	}
	var failures []error
	for _, step := range plan.steps {
		logger := plan.logger.With(map[string]string{"phase": step.name})
		logger.Debug("shutdown phase starting", nil)
		if err := step.stop(ctx); err != nil {
			logger.Warn("shutdown phase failed", map[string]string{logging.FieldError: err.Error()})
			failures = append(failures, fmt.Errorf("%s: %w", step.name, err))
		}
	}
	return errors.Join(failures...)
}

// cancelOnSignal cancels the run on the first signal. A second signal is
// logged and every later one ignored. The returned func stops listening.
func cancelOnSignal(logger *logging.Logger, cancel context.CancelFunc, signals <-chan os.Signal) func() {
	if signals == nil {
		return func() {}
	}
	listening, stop := context.WithCancel(context.Background())
	go func() {
		received := 0
		for {
			select {
			case <-listening.Done():
				return
			case sig, ok := <-signals:
				if !ok {
					return
				}
				received++
				fields := map[string]string{"signal": fmt.Sprint(sig)}
				switch received {
				case 1:
					logger.Info("shutdown signal received", fields)
					cancel()
				case 2:
					logger.Info("shutdown already in progress; ignoring signal", fields)
				}
			}
		}
	}()
	return stop
}
