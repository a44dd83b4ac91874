package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"dama/internal/version"
)

// exitUsage is returned for bad flags or arguments, exitFailure for
// configuration errors.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

type commandDeps struct {
	Stdout     io.Writer
	Stderr     io.Writer
	Stdin      io.Reader
	LookupEnv  func(string) (string, bool)
	IsTerminal func() bool
	Signals    func() (<-chan os.Signal, func())
}

func defaultCommandDeps() commandDeps {
	return commandDeps{
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		Stdin:     os.Stdin,
		LookupEnv: os.LookupEnv,
		IsTerminal: func() bool {
			return isatty.IsTerminal(os.Stdout.Fd()) && isatty.IsTerminal(os.Stdin.Fd())
		},
		Signals: func() (<-chan os.Signal, func()) {
			signalCh := make(chan os.Signal, 1)
			signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
			return signalCh, func() { signal.Stop(signalCh) }
		},
	}
}

// usageError marks errors caused by the command line itself.
type usageError struct {
	err error
}

func (e usageError) Error() string {
	return e.err.Error()
}

func (e usageError) Unwrap() error {
	return e.err
}

func execute(args []string, deps commandDeps) int {
	root := newRootCommand(deps)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(deps.Stderr, "dama: %v\n", err)
		var usage usageError
		if errors.As(err, &usage) {
			return exitUsage
		}
		return exitFailure
	}
	return exitOK
}

func newRootCommand(deps commandDeps) *cobra.Command {
	root := &cobra.Command{
		Use:   "dama",
		Short: "Command-bound control panel",
		Long: `dama shows a panel of controls whose values come from shell commands.

Each control reads its value with an initialize command, writes edits with an
on_update command (the new value is in $DAMA_VAL) and re-reads with a select
command whenever a watched file changes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(deps.Stdout)
	root.SetErr(deps.Stderr)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err: err}
	})
	root.AddCommand(
		newRunCommand(deps),
		newValidateCommand(deps),
		newVersionCommand(deps),
	)
	return root
}

func exactPanelArg(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return usageError{err: fmt.Errorf("%s expects one panel file, got %d arguments", cmd.Name(), len(args))}
	}
	return nil
}

func newVersionCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(deps.Stdout, version.Get().String())
			return err
		},
	}
}
