package control

import "strconv"

type Orientation int

const (
	Vertical Orientation = iota
	Horizontal
)

func (orientation Orientation) String() string {
	if orientation == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

// Box lays out children built lazily on first display.
type Box struct {
	Meta
	Title       string
	Orientation Orientation

	build     func() []Control
	children  []Control
	populated bool
}

func (*Box) Kind() Kind { return KindBox }

// SetBuilder installs the function Populate uses to create the children.
func (box *Box) SetBuilder(build func() []Control) {
	box.build = build
}

// Populate builds the children the first time it is called. Later calls
// return the existing children unchanged.
func (box *Box) Populate() []Control {
	if box.populated {
		return box.children
	}
	box.populated = true
	if box.build != nil {
		box.children = box.build()
	}
	return box.children
}

func (box *Box) Populated() bool {
	return box.populated
}

// Children returns the children built so far, without populating.
func (box *Box) Children() []Control {
	return box.children
}

// Page is a notebook tab.
type Page struct {
	Title   string
	Control Control
}

// Notebook shows one page at a time.
type Notebook struct {
	Meta
	Pages    []Page
	selected int
}

func (*Notebook) Kind() Kind { return KindNotebook }

func (notebook *Notebook) Selected() int {
	return notebook.selected
}

// Select shows the page at index. Out-of-range indexes are ignored.
func (notebook *Notebook) Select(index int) {
	if index < 0 || index >= len(notebook.Pages) {
		return
	}
	notebook.selected = index
}

// Current returns the selected page, or false for an empty notebook.
func (notebook *Notebook) Current() (Page, bool) {
	if len(notebook.Pages) == 0 {
		return Page{}, false
	}
	return notebook.Pages[notebook.selected], true
}

// PageTitle derives a tab title: the page's box title when it has one,
// otherwise its name, otherwise its position.
func PageTitle(child Control, index int) string {
	if box, ok := child.(*Box); ok && box.Title != "" {
		return box.Title
	}
	if name := child.Metadata().Name; name != "" {
		return name
	}
	return "page " + strconv.Itoa(index+1)
}
