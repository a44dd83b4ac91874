package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"dama/internal/app"
	"dama/internal/control"
	"dama/internal/loop"
)

var errQuit = errors.New("quit")

// runHeadless drives the panel from a Loop. The panel is printed after every
// burst of loop work that changed it. Reaching the end of stdin leaves the
// panel running until ctx is cancelled.
func runHeadless(ctx context.Context, deps commandDeps, current *session) error {
	out := deps.Stdout
	if out == nil {
		out = io.Discard
	}
	var panel *app.Panel
	last := ""
	presentation := loop.New(loop.Options{
		OnIdle: func() {
			if panel == nil {
				return
			}
			populateVisible(panel.Root)
			text := snapshot(panel.Title, panel.Root)
			if text == last {
				return
			}
			last = text
			fmt.Fprint(out, text)
		},
	})

	runErr := make(chan error, 1)
	go func() {
		runErr <- presentation.Run(ctx)
	}()

	var buildErr error
	if err := presentation.Do(ctx, func() {
		panel, buildErr = current.build(presentation)
	}); err != nil {
		presentation.Stop()
		<-runErr
		return err
	}
	if buildErr != nil {
		presentation.Stop()
		<-runErr
		return buildErr
	}

	if deps.Stdin != nil {
		go readCommands(deps.Stdin, presentation, func(line string) {
			err := applyCommand(panel, line)
			if errors.Is(err, errQuit) {
				presentation.Stop()
				return
			}
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				return
			}
			if strings.TrimSpace(line) == "show" {
				fmt.Fprint(out, snapshot(panel.Title, panel.Root))
			}
		})
	}
	return <-runErr
}

func readCommands(input io.Reader, poster loop.Poster, handle func(line string)) {
	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		poster.Post(func() { handle(line) })
	}
}

// applyCommand runs one headless command against panel. It must run on the
// presentation loop.
func applyCommand(panel *app.Panel, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name, args := fields[0], fields[1:]
	switch name {
	case "show":
		return nil
	case "quit", "exit":
		return errQuit
	case "page":
		return selectPage(panel.Root, args)
	}
	if len(args) == 0 {
		return fmt.Errorf("%s needs a control name", name)
	}
	target := findControl(panel.Root, args[0])
	if target == nil {
		return fmt.Errorf("no control named %q", args[0])
	}
	switch name {
	case "set":
		if len(args) < 2 {
			return fmt.Errorf("set needs a value")
		}
		return setValue(target, strings.Join(args[1:], " "))
	case "toggle":
		checkBox, ok := target.(*control.CheckBox)
		if !ok {
			return fmt.Errorf("%s is not a checkbox", control.Describe(target))
		}
		checkBox.Toggle()
	case "click":
		button, ok := target.(*control.Button)
		if !ok {
			return fmt.Errorf("%s is not a button", control.Describe(target))
		}
		button.Click()
	case "hold", "release":
		held, ok := target.(interactive)
		if !ok {
			return fmt.Errorf("%s cannot be held", control.Describe(target))
		}
		if name == "hold" {
			held.BeginInteraction()
		} else {
			held.EndInteraction()
		}
	default:
		return fmt.Errorf("unknown command %q", name)
	}
	return nil
}

func setValue(target control.Control, raw string) error {
	switch typed := target.(type) {
	case *control.Scale:
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", control.Describe(target), err)
		}
		typed.Edit(value)
	case *control.CheckBox:
		value, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", control.Describe(target), err)
		}
		typed.Edit(value)
	case *control.ComboBox:
		typed.Edit(raw)
	default:
		return fmt.Errorf("%s has no value", control.Describe(target))
	}
	return nil
}

func selectPage(root control.Control, args []string) error {
	var notebook *control.Notebook
	switch len(args) {
	case 1:
		notebook = firstNotebook(root)
		if notebook == nil {
			return fmt.Errorf("panel has no notebook")
		}
	case 2:
		found, ok := findControl(root, args[0]).(*control.Notebook)
		if !ok {
			return fmt.Errorf("no notebook named %q", args[0])
		}
		notebook = found
	default:
		return fmt.Errorf("page needs an index")
	}
	index, err := strconv.Atoi(args[len(args)-1])
	if err != nil {
		return fmt.Errorf("page index: %w", err)
	}
	if index < 0 || index >= len(notebook.Pages) {
		return fmt.Errorf("page index %d out of range", index)
	}
	notebook.Select(index)
	return nil
}
