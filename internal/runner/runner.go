// Package runner executes control commands through a shell and decodes their
// output into control values.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"dama/internal/logging"
	"dama/internal/metrics"
	"dama/internal/process"
)

const DefaultShell = "sh"

const waitDelay = time.Second

// ErrNoCommand is returned when a control has no command configured for the
// requested purpose.
var ErrNoCommand = errors.New("no command configured")

// Result captures one command invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Runner executes a command string and reports its captured output. A non-nil
// error means the command could not be started or exited unsuccessfully.
type Runner interface {
	Run(ctx context.Context, command string, env ...string) (Result, error)
}

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	stderr := strings.TrimSpace(e.Stderr)
	if stderr == "" {
		return fmt.Sprintf("command %q exited with status %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("command %q exited with status %d: %s", e.Command, e.ExitCode, stderr)
}

// ShellRunner runs commands as `Shell -c command`.
type ShellRunner struct {
	Shell string
	Dir   string
	// Timeout bounds each invocation. Zero leaves commands unbounded.
	Timeout time.Duration
	Logger  *logging.Logger
}

func (r *ShellRunner) Run(ctx context.Context, command string, env ...string) (Result, error) {
	if strings.TrimSpace(command) == "" {
		return Result{}, ErrNoCommand
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	shell := r.Shell
	if shell == "" {
		shell = DefaultShell
	}

	cmd := exec.CommandContext(ctx, shell, "-c", command)
	cmd.Dir = r.Dir
	process.Isolate(cmd)
	// Children that escaped the process group can still hold the output
	// pipes open after the shell was killed.
	cmd.WaitDelay = waitDelay
	cmd.Env = append(os.Environ(), env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	err := cmd.Run()
	result := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(started),
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	err = classifyError(ctx, command, result, err)
	if err != nil {
		fields := map[string]string{
			"command":   command,
			"exit_code": fmt.Sprint(result.ExitCode),
		}
		fields[logging.FieldError] = err.Error()
		r.logger().Debug("command failed", fields)
	}
	return result, err
}

func (r *ShellRunner) logger() *logging.Logger {
	if r.Logger == nil {
		return nil
	}
	return r.Logger.Component("runner")
}

func classifyError(ctx context.Context, command string, result Result, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("command %q: %w", command, ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Command: command, ExitCode: result.ExitCode, Stderr: result.Stderr}
	}
	return fmt.Errorf("start command %q: %w", command, err)
}

// Recording wraps a Runner and records every invocation under purpose.
func Recording(inner Runner, registry *metrics.Registry, purpose string) Runner {
	if registry == nil {
		return inner
	}
	return recordingRunner{inner: inner, registry: registry, purpose: purpose}
}

type recordingRunner struct {
	inner    Runner
	registry *metrics.Registry
	purpose  string
}

func (r recordingRunner) Run(ctx context.Context, command string, env ...string) (Result, error) {
	result, err := r.inner.Run(ctx, command, env...)
	if !errors.Is(err, ErrNoCommand) {
		r.registry.RecordCommand(r.purpose, result.Duration, err)
	}
	return result, err
}
