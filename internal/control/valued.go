package control

import (
	"math"
	"slices"
)

// Valued is a control whose displayed state is an external value.
type Valued[T any] interface {
	Control
	Value() T
	// SetValue changes the displayed value without reporting an edit.
	SetValue(value T)
	// Edit is called by the renderer for a user-driven change. It forwards the
	// value to the edit handler, or sets it directly when none is installed.
	Edit(value T)
	SetEditHandler(handler func(T))
	Interacting() bool
}

// Interaction tracks whether the user is actively manipulating a control,
// such as dragging a slider or holding a button down.
type Interaction struct {
	active bool
}

func (interaction *Interaction) BeginInteraction() {
	interaction.active = true
}

func (interaction *Interaction) EndInteraction() {
	interaction.active = false
}

func (interaction *Interaction) Interacting() bool {
	return interaction.active
}

type cell[T any] struct {
	current T
	onEdit  func(T)
}

func (c *cell[T]) Value() T {
	return c.current
}

func (c *cell[T]) SetEditHandler(handler func(T)) {
	c.onEdit = handler
}

// CheckBox is a labeled boolean toggle.
type CheckBox struct {
	Meta
	Interaction
	cell[bool]
	Text string
}

func (*CheckBox) Kind() Kind { return KindCheckBox }

func (checkBox *CheckBox) SetValue(value bool) {
	checkBox.current = value
}

func (checkBox *CheckBox) Edit(value bool) {
	if checkBox.onEdit == nil {
		checkBox.SetValue(value)
		return
	}
	checkBox.onEdit(value)
}

// Toggle edits the checkbox to the opposite of its displayed value.
func (checkBox *CheckBox) Toggle() {
	checkBox.Edit(!checkBox.current)
}

// Scale is a slider over [Low, High].
type Scale struct {
	Meta
	Interaction
	cell[float64]
	Low  float64
	High float64
	Step float64
}

func (*Scale) Kind() Kind { return KindScale }

// SetValue clamps value into the scale's range.
func (scale *Scale) SetValue(value float64) {
	scale.current = scale.clamp(value)
}

func (scale *Scale) Edit(value float64) {
	value = scale.clamp(value)
	if scale.onEdit == nil {
		scale.SetValue(value)
		return
	}
	scale.onEdit(value)
}

// Nudge edits the scale by steps increments of Step.
func (scale *Scale) Nudge(steps int) {
	scale.Edit(scale.current + float64(steps)*scale.Step)
}

// Fraction reports the displayed value's position within the range, 0 to 1.
func (scale *Scale) Fraction() float64 {
	span := scale.High - scale.Low
	if span <= 0 {
		return 0
	}
	return (scale.current - scale.Low) / span
}

func (scale *Scale) clamp(value float64) float64 {
	if math.IsNaN(value) {
		return scale.Low
	}
	return math.Min(math.Max(value, scale.Low), scale.High)
}

// ComboBox selects one entry from a list of options.
type ComboBox struct {
	Meta
	Interaction
	cell[string]
	options []string
}

func (*ComboBox) Kind() Kind { return KindComboBox }

func (comboBox *ComboBox) SetOptions(options []string) {
	comboBox.options = slices.Clone(options)
}

func (comboBox *ComboBox) Options() []string {
	return slices.Clone(comboBox.options)
}

// SetValue selects value. A value missing from the options leaves the combo
// box with no active entry while still recording the value.
func (comboBox *ComboBox) SetValue(value string) {
	comboBox.current = value
}

func (comboBox *ComboBox) Edit(value string) {
	if comboBox.onEdit == nil {
		comboBox.SetValue(value)
		return
	}
	comboBox.onEdit(value)
}

// Active returns the index of the displayed value in the options, or -1.
func (comboBox *ComboBox) Active() int {
	return slices.Index(comboBox.options, comboBox.current)
}

// Cycle edits the combo box to the option delta places away from the active
// one, wrapping around.
func (comboBox *ComboBox) Cycle(delta int) {
	count := len(comboBox.options)
	if count == 0 {
		return
	}
	index := comboBox.Active()
	if index < 0 {
		index = 0
		if delta > 0 {
			delta--
		}
	}
	next := ((index+delta)%count + count) % count
	comboBox.Edit(comboBox.options[next])
}
