package uitree

import (
	"fmt"
	"strings"
)

// Attributes holds the properties captured for one element.
type Attributes struct {
	ResourceID  string `json:"resourceId,omitempty"`
	Text        string `json:"text,omitempty"`
	ClassName   string `json:"className,omitempty"`
	ContentDesc string `json:"contentDesc,omitempty"`
	HintText    string `json:"hint,omitempty"`
	Package     string `json:"package,omitempty"`
	Bounds      Bounds `json:"bounds"`
	Checked     bool   `json:"checked,omitempty"`
	Clickable   bool   `json:"clickable,omitempty"`
	Editable    bool   `json:"editable,omitempty"`
	Enabled     bool   `json:"enabled,omitempty"`
	Focused     bool   `json:"focused,omitempty"`
	Scrollable  bool   `json:"scrollable,omitempty"`
}

// Element is an immutable-once-built snapshot node. It implements Node.
type Element struct {
	Attrs    Attributes
	parent   *Element
	children []*Element
	// nodes caches children as []Node so Children() does not allocate per call.
	nodes []Node
}

// NewElement creates a detached element.
func NewElement(attrs Attributes) *Element {
	return &Element{Attrs: attrs}
}

// Append attaches children to e and returns e for chaining.
// A nil child is kept as a nil slot.
func (e *Element) Append(children ...*Element) *Element {
	for _, c := range children {
		if c == nil {
			e.children = append(e.children, nil)
			e.nodes = append(e.nodes, nil)
			continue
		}
		c.parent = e
		e.children = append(e.children, c)
		e.nodes = append(e.nodes, c)
	}
	return e
}

func (e *Element) ResourceID() string         { return e.Attrs.ResourceID }
func (e *Element) Text() string               { return e.Attrs.Text }
func (e *Element) ClassName() string          { return e.Attrs.ClassName }
func (e *Element) ContentDescription() string { return e.Attrs.ContentDesc }
func (e *Element) IsChecked() bool            { return e.Attrs.Checked }
func (e *Element) IsClickable() bool          { return e.Attrs.Clickable }
func (e *Element) IsEditable() bool           { return e.Attrs.Editable }
func (e *Element) Bounds() Bounds             { return e.Attrs.Bounds }

// Parent returns the parent node, or nil at the root.
func (e *Element) Parent() Node {
	if e.parent == nil {
		return nil
	}
	return e.parent
}

// Children returns a copy of the child nodes in order.
func (e *Element) Children() []Node {
	return append([]Node(nil), e.nodes...)
}

// Elements returns a copy of the concrete children.
func (e *Element) Elements() []*Element {
	return append([]*Element(nil), e.children...)
}

// Describe renders a one-line summary of a node for logs and reports.
func Describe(n Node) string {
	if n == nil {
		return "<nil>"
	}
	var parts []string
	if c := n.ClassName(); c != "" {
		parts = append(parts, "class="+c)
	}
	if id := n.ResourceID(); id != "" {
		parts = append(parts, "id="+id)
	}
	if t := n.Text(); t != "" {
		parts = append(parts, fmt.Sprintf("text=%q", t))
	}
	if d := n.ContentDescription(); d != "" {
		parts = append(parts, fmt.Sprintf("desc=%q", d))
	}
	b := n.Bounds()
	parts = append(parts, fmt.Sprintf("bounds=[%d,%d][%d,%d]", b.X, b.Y, b.X+b.Width, b.Y+b.Height))
	return "Node{" + strings.Join(parts, " ") + "}"
}
