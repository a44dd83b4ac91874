package config

import "dama/internal/fsutil"

// Panel is the root of a declarative control panel file.
type Panel struct {
	Title string `yaml:"title" toml:"title"`
	Root  Node   `yaml:"root" toml:"root"`
}

// Node is one entry of the panel tree as written in the file. Type selects
// which of the remaining fields apply; Widget converts a validated node into
// its typed variant.
type Node struct {
	Type string `yaml:"type" toml:"type" validate:"required,oneof=box notebook label image button checkbox scale combobox"`
	Name string `yaml:"name" toml:"name"`
	CSS  string `yaml:"css" toml:"css"`

	Title       string `yaml:"title" toml:"title"`
	Orientation string `yaml:"orientation" toml:"orientation" validate:"omitempty,oneof=horizontal vertical"`
	Children    []Node `yaml:"children" toml:"children" validate:"dive"`

	Text string `yaml:"text" toml:"text"`
	Path string `yaml:"path" toml:"path"`

	Initialize string `yaml:"initialize" toml:"initialize"`
	Select     string `yaml:"select" toml:"select"`
	OnUpdate   string `yaml:"on_update" toml:"on_update"`
	OnClick    string `yaml:"on_click" toml:"on_click"`
	Watch      string `yaml:"watch" toml:"watch"`

	Range    *Range   `yaml:"range" toml:"range"`
	Step     *float64 `yaml:"step" toml:"step" validate:"omitempty,gt=0"`
	Coalesce *bool    `yaml:"coalesce" toml:"coalesce"`
}

type Range struct {
	Low  float64 `yaml:"low" toml:"low"`
	High float64 `yaml:"high" toml:"high" validate:"gtfield=Low"`
}

// DefaultStep is the scale increment used when a node sets none.
const DefaultStep = 5.0

// Widget is the typed form of a Node. The set of implementations is closed.
type Widget interface {
	Metadata() Meta
	widget()
}

// Meta carries the fields shared by every widget.
type Meta struct {
	Name string
	CSS  string
}

func (meta Meta) Metadata() Meta { return meta }

type Box struct {
	Meta
	Title      string
	Horizontal bool
	Children   []Widget
}

type Notebook struct {
	Meta
	Children []Widget
}

type Label struct {
	Meta
	Text string
}

type Image struct {
	Meta
	Path string
}

type Button struct {
	Meta
	Text    string
	OnClick string
}

type CheckBox struct {
	Meta
	Text       string
	Initialize string
	OnClick    string
	Watch      string
}

type Scale struct {
	Meta
	Low        float64
	High       float64
	Step       float64
	Initialize string
	Select     string
	OnUpdate   string
	Watch      string
	Coalesce   bool
}

type ComboBox struct {
	Meta
	Initialize string
	Select     string
	OnUpdate   string
	Watch      string
}

func (Box) widget()      {}
func (Notebook) widget() {}
func (Label) widget()    {}
func (Image) widget()    {}
func (Button) widget()   {}
func (CheckBox) widget() {}
func (Scale) widget()    {}
func (ComboBox) widget() {}

// Widget converts node and its children into typed widgets. The node must
// have passed Validate.
func (node Node) Widget() Widget {
	meta := Meta{Name: node.Name, CSS: node.CSS}
	switch node.Type {
	case "box":
		return Box{
			Meta:       meta,
			Title:      node.Title,
			Horizontal: node.Orientation == "horizontal",
			Children:   widgets(node.Children),
		}
	case "notebook":
		return Notebook{Meta: meta, Children: widgets(node.Children)}
	case "label":
		return Label{Meta: meta, Text: node.Text}
	case "image":
		return Image{Meta: meta, Path: fsutil.ExpandPath(node.Path)}
	case "button":
		return Button{Meta: meta, Text: node.Text, OnClick: node.OnClick}
	case "checkbox":
		return CheckBox{
			Meta:       meta,
			Text:       node.Text,
			Initialize: node.Initialize,
			OnClick:    node.OnClick,
			Watch:      fsutil.ExpandPath(node.Watch),
		}
	case "scale":
		scale := Scale{
			Meta:       meta,
			Step:       DefaultStep,
			Initialize: node.Initialize,
			Select:     node.Select,
			OnUpdate:   node.OnUpdate,
			Watch:      fsutil.ExpandPath(node.Watch),
			Coalesce:   true,
		}
		if node.Range != nil {
			scale.Low, scale.High = node.Range.Low, node.Range.High
		}
		if node.Step != nil {
			scale.Step = *node.Step
		}
		if node.Coalesce != nil {
			scale.Coalesce = *node.Coalesce
		}
		return scale
	case "combobox":
		return ComboBox{
			Meta:       meta,
			Initialize: node.Initialize,
			Select:     node.Select,
			OnUpdate:   node.OnUpdate,
			Watch:      fsutil.ExpandPath(node.Watch),
		}
	default:
		return nil
	}
}

func widgets(nodes []Node) []Widget {
	if len(nodes) == 0 {
		return nil
	}
	converted := make([]Widget, 0, len(nodes))
	for _, child := range nodes {
		converted = append(converted, child.Widget())
	}
	return converted
}
