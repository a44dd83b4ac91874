package main

import (
	"context"
	"errors"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"dama/internal/app"
	"dama/internal/control"
	"dama/internal/logging"
)

const scaleBarWidth = 24

type logMsg logging.LogEntry

type panelStyles struct {
	title     lipgloss.Style
	heading   lipgloss.Style
	focus     lipgloss.Style
	adjusting lipgloss.Style
	barFilled lipgloss.Style
	barEmpty  lipgloss.Style
	status    lipgloss.Style
	warn      lipgloss.Style
	help      lipgloss.Style
}

func newPanelStyles() panelStyles {
	return panelStyles{
		title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).MarginBottom(1),
		heading:   lipgloss.NewStyle().Bold(true),
		focus:     lipgloss.NewStyle().Reverse(true),
		adjusting: lipgloss.NewStyle().Reverse(true).Foreground(lipgloss.Color("11")),
		barFilled: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		barEmpty:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		status:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		warn:      lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		help:      lipgloss.NewStyle().Foreground(lipgloss.Color("8")).MarginTop(1),
	}
}

// panelModel renders a panel and turns keys into control edits. Every
// control is touched only from Update, which is the presentation loop in
// terminal mode.
type panelModel struct {
	panel   *app.Panel
	styles  panelStyles
	entries <-chan logging.LogEntry

	focus  int
	width  int
	status logging.LogEntry
}

func newPanelModel(panel *app.Panel, entries <-chan logging.LogEntry) panelModel {
	populateVisible(panel.Root)
	return panelModel{
		panel:   panel,
		styles:  newPanelStyles(),
		entries: entries,
	}
}

func (m panelModel) Init() tea.Cmd {
	return waitForLog(m.entries)
}

func waitForLog(entries <-chan logging.LogEntry) tea.Cmd {
	if entries == nil {
		return nil
	}
	return func() tea.Msg {
		entry, ok := <-entries
		if !ok {
			return nil
		}
		return logMsg(entry)
	}
}

func (m panelModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case postMsg:
		msg.fn()
	case logMsg:
		if logging.LevelAtLeast(msg.Level, logging.LevelWarning) || m.status.Message == "" {
			m.status = logging.LogEntry(msg)
		}
		cmd = waitForLog(m.entries)
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		if m.handleKey(msg.String()) {
			return m, tea.Quit
		}
	}
	populateVisible(m.panel.Root)
	m.clampFocus()
	return m, cmd
}

// handleKey applies one key press and reports whether the program should
// quit.
func (m *panelModel) handleKey(key string) bool {
	focused := m.focused()
	switch key {
	case "q", "ctrl+c":
		endInteraction(focused)
		return true
	case "tab", "shift+tab":
		if notebook := firstNotebook(m.panel.Root); notebook != nil && len(notebook.Pages) > 0 {
			endInteraction(focused)
			delta := 1
			if key == "shift+tab" {
				delta = -1
			}
			count := len(notebook.Pages)
			notebook.Select(((notebook.Selected()+delta)%count + count) % count)
			populateVisible(m.panel.Root)
			m.focus = 0
		}
	case "up", "k":
		endInteraction(focused)
		m.focus--
	case "down", "j":
		endInteraction(focused)
		m.focus++
	case "esc":
		endInteraction(focused)
	case " ", "enter":
		activate(focused)
	case "left", "h":
		step(focused, -1)
	case "right", "l":
		step(focused, 1)
	}
	return false
}

func activate(current control.Control) {
	switch typed := current.(type) {
	case *control.CheckBox:
		typed.Toggle()
	case *control.Button:
		typed.Click()
	case *control.Scale:
		if typed.Interacting() {
			typed.EndInteraction()
		} else {
			typed.BeginInteraction()
		}
	case *control.ComboBox:
		typed.Cycle(1)
	}
}

func step(current control.Control, delta int) {
	switch typed := current.(type) {
	case *control.Scale:
		typed.Nudge(delta)
	case *control.ComboBox:
		typed.Cycle(delta)
	}
}

func endInteraction(current control.Control) {
	if held, ok := current.(interactive); ok && held.Interacting() {
		held.EndInteraction()
	}
}

func (m *panelModel) focusRows() []control.Control {
	var controls []control.Control
	for _, line := range layoutRows(m.panel.Root) {
		if focusable(line.control) {
			controls = append(controls, line.control)
		}
	}
	return controls
}

func (m *panelModel) focused() control.Control {
	controls := m.focusRows()
	if m.focus < 0 || m.focus >= len(controls) {
		return nil
	}
	return controls[m.focus]
}

func (m *panelModel) clampFocus() {
	count := len(m.focusRows())
	if count == 0 {
		m.focus = 0
		return
	}
	m.focus = min(max(m.focus, 0), count-1)
}

func (m panelModel) View() string {
	sections := make([]string, 0, 4)
	if m.panel.Title != "" {
		sections = append(sections, m.styles.title.Render(m.panel.Title))
	}
	focused := m.focused()
	lines := make([]string, 0)
	for _, line := range layoutRows(m.panel.Root) {
		text := m.rowText(line)
		switch {
		case line.control == focused && isInteracting(line.control):
			text = m.styles.adjusting.Render(text)
		case line.control == focused:
			text = m.styles.focus.Render(text)
		case !focusable(line.control) && line.control.Kind() != control.KindLabel && line.control.Kind() != control.KindImage:
			text = m.styles.heading.Render(text)
		}
		lines = append(lines, strings.Repeat("  ", line.depth)+text)
	}
	sections = append(sections, lipgloss.JoinVertical(lipgloss.Left, lines...))
	sections = append(sections, m.statusLine())
	sections = append(sections, m.styles.help.Render("↑/↓ focus  space toggle/click  enter adjust  ←/→ change  tab page  q quit"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m panelModel) rowText(line row) string {
	scale, ok := line.control.(*control.Scale)
	if !ok {
		return line.text
	}
	fraction := math.Min(math.Max(scale.Fraction(), 0), 1)
	filled := int(math.Round(fraction * scaleBarWidth))
	bar := m.styles.barFilled.Render(strings.Repeat("█", filled)) +
		m.styles.barEmpty.Render(strings.Repeat("░", scaleBarWidth-filled))
	return controlLabel(scale) + " " + bar + " " + formatNumber(scale.Value())
}

func (m panelModel) statusLine() string {
	if m.status.Message == "" {
		return ""
	}
	text := m.status.Message
	if detail := m.status.Context[logging.FieldError]; detail != "" {
		text += ": " + detail
	}
	if name := m.status.Context[logging.FieldControl]; name != "" {
		text = name + ": " + text
	}
	style := m.styles.status
	if logging.LevelAtLeast(m.status.Level, logging.LevelWarning) {
		style = m.styles.warn
	}
	if m.width > 0 {
		style = style.MaxWidth(m.width)
	}
	return style.Render(text)
}

func isInteracting(current control.Control) bool {
	held, ok := current.(interactive)
	return ok && held.Interacting()
}

// runTUI builds the panel before the program starts; posts made while
// building are held by the poster until the program is attached.
func runTUI(ctx context.Context, deps commandDeps, current *session) error {
	poster := &programPoster{}
	panel, err := current.build(poster)
	if err != nil {
		return err
	}
	entries, unsubscribe := current.logger.Subscribe()
	defer unsubscribe()

	options := []tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}
	if deps.Stdin != nil {
		options = append(options, tea.WithInput(deps.Stdin))
	}
	if deps.Stdout != nil {
		options = append(options, tea.WithOutput(deps.Stdout))
	}
	program := tea.NewProgram(newPanelModel(panel, entries), options...)
	go poster.Attach(program)

	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
