// Package control defines the closed set of controls a panel is built from.
//
// Controls are plain state holders owned by the presentation loop. None of
// their methods are safe for concurrent use; background goroutines reach a
// control only through a bridge posting onto the loop.
package control

import "fmt"

type Kind int

const (
	KindBox Kind = iota
	KindNotebook
	KindLabel
	KindImage
	KindButton
	KindCheckBox
	KindScale
	KindComboBox
)

func (kind Kind) String() string {
	switch kind {
	case KindBox:
		return "box"
	case KindNotebook:
		return "notebook"
	case KindLabel:
		return "label"
	case KindImage:
		return "image"
	case KindButton:
		return "button"
	case KindCheckBox:
		return "checkbox"
	case KindScale:
		return "scale"
	case KindComboBox:
		return "combobox"
	default:
		return fmt.Sprintf("kind(%d)", int(kind))
	}
}

// Meta carries the presentation hints every control accepts. They are
// exposed to the renderer and never interpreted here.
type Meta struct {
	Name string
	CSS  string
}

// Control is implemented by every control kind in this package.
type Control interface {
	Kind() Kind
	Metadata() Meta
}

func (meta Meta) Metadata() Meta {
	return meta
}

// Label shows static text.
type Label struct {
	Meta
	Text string
}

func (*Label) Kind() Kind { return KindLabel }

// Image shows a picture loaded from Path.
type Image struct {
	Meta
	Path string
}

func (*Image) Kind() Kind { return KindImage }

// Button runs its click handler when pressed.
type Button struct {
	Meta
	Text    string
	onClick func()
}

func (*Button) Kind() Kind { return KindButton }

// SetClickHandler replaces the function Click runs.
func (button *Button) SetClickHandler(handler func()) {
	button.onClick = handler
}

// Click is called by the renderer when the user presses the button.
func (button *Button) Click() {
	if button.onClick != nil {
		button.onClick()
	}
}

// Describe returns a short label for logs, such as "scale volume".
func Describe(control Control) string {
	if control == nil {
		return "<nil>"
	}
	name := control.Metadata().Name
	if name == "" {
		return control.Kind().String()
	}
	return control.Kind().String() + " " + name
}
