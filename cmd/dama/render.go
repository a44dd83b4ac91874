package main

import (
	"fmt"
	"strconv"
	"strings"

	"dama/internal/control"
)

// populateVisible populates every box reachable without switching notebook
// pages. Boxes that were populated before are left untouched.
func populateVisible(root control.Control) {
	switch typed := root.(type) {
	case *control.Box:
		for _, child := range typed.Populate() {
			populateVisible(child)
		}
	case *control.Notebook:
		if page, ok := typed.Current(); ok {
			populateVisible(page.Control)
		}
	}
}

type row struct {
	depth   int
	control control.Control
	text    string
}

// layoutRows flattens the visible part of the tree. A notebook contributes
// one row of tabs followed by its current page.
func layoutRows(root control.Control) []row {
	var rows []row
	var visit func(current control.Control, depth int)
	visit = func(current control.Control, depth int) {
		switch typed := current.(type) {
		case *control.Box:
			if typed.Title != "" {
				rows = append(rows, row{depth: depth, control: current, text: typed.Title})
				depth++
			}
			for _, child := range typed.Children() {
				visit(child, depth)
			}
		case *control.Notebook:
			rows = append(rows, row{depth: depth, control: current, text: tabsText(typed)})
			if page, ok := typed.Current(); ok {
				visit(page.Control, depth+1)
			}
		default:
			rows = append(rows, row{depth: depth, control: current, text: controlText(current)})
		}
	}
	if root != nil {
		visit(root, 0)
	}
	return rows
}

func tabsText(notebook *control.Notebook) string {
	titles := make([]string, 0, len(notebook.Pages))
	for index, page := range notebook.Pages {
		if index == notebook.Selected() {
			titles = append(titles, "["+page.Title+"]")
			continue
		}
		titles = append(titles, page.Title)
	}
	return strings.Join(titles, " | ")
}

func controlText(current control.Control) string {
	switch typed := current.(type) {
	case *control.Label:
		return typed.Text
	case *control.Image:
		return "[image " + typed.Path + "]"
	case *control.Button:
		return "< " + typed.Text + " >"
	case *control.CheckBox:
		mark := " "
		if typed.Value() {
			mark = "x"
		}
		return fmt.Sprintf("[%s] %s", mark, typed.Text)
	case *control.Scale:
		return fmt.Sprintf("%s %s [%s..%s]", controlLabel(current), formatNumber(typed.Value()), formatNumber(typed.Low), formatNumber(typed.High))
	case *control.ComboBox:
		value := typed.Value()
		if value == "" {
			value = "-"
		}
		return fmt.Sprintf("%s: %s (%s)", controlLabel(current), value, strings.Join(typed.Options(), "|"))
	}
	return control.Describe(current)
}

func controlLabel(current control.Control) string {
	if name := current.Metadata().Name; name != "" {
		return name
	}
	return current.Kind().String()
}

func formatNumber(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// snapshot renders the visible tree as indented plain text.
func snapshot(title string, root control.Control) string {
	builder := strings.Builder{}
	if title != "" {
		builder.WriteString("# ")
		builder.WriteString(title)
		builder.WriteString("\n")
	}
	for _, line := range layoutRows(root) {
		builder.WriteString(strings.Repeat("  ", line.depth))
		builder.WriteString(line.text)
		builder.WriteString("\n")
	}
	return builder.String()
}

func focusable(current control.Control) bool {
	switch current.(type) {
	case *control.Button, *control.CheckBox, *control.Scale, *control.ComboBox:
		return true
	}
	return false
}

// findControl searches every built control, including pages that are not
// selected, for the first one named name.
func findControl(root control.Control, name string) control.Control {
	if root == nil {
		return nil
	}
	if root.Metadata().Name == name {
		return root
	}
	switch typed := root.(type) {
	case *control.Box:
		for _, child := range typed.Children() {
			if found := findControl(child, name); found != nil {
				return found
			}
		}
	case *control.Notebook:
		for _, page := range typed.Pages {
			if found := findControl(page.Control, name); found != nil {
				return found
			}
		}
	}
	return nil
}

// firstNotebook returns the first notebook on the visible path.
func firstNotebook(root control.Control) *control.Notebook {
	for _, line := range layoutRows(root) {
		if notebook, ok := line.control.(*control.Notebook); ok {
			return notebook
		}
	}
	return nil
}

type interactive interface {
	BeginInteraction()
	EndInteraction()
	Interacting() bool
}
