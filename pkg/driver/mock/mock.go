// Package mock provides an in-memory platform for testing and dry runs
// without a real device.
package mock

import (
	"sync"

	"github.com/labcitrus/avagen-runner/pkg/uitree"
)

// Primitive names used in recorded calls and failure injection.
const (
	OpClick   = "click"
	OpSetText = "setText"
	OpSwipe   = "swipe"
	OpTap     = "tap"
	OpBack    = "back"
)

// Call is one recorded primitive invocation.
type Call struct {
	Op       string
	Node     uitree.Node
	Text     string
	X1, Y1   int
	X2, Y2   int
	Duration int
}

// Config configures mock platform behavior.
type Config struct {
	// Screen size to report
	Width  int
	Height int
	// Fail makes the named primitives report failure.
	Fail map[string]bool
}

// Driver is a mock implementation of core.Platform.
type Driver struct {
	Config Config

	mu    sync.Mutex
	root  uitree.Node
	calls []Call
}

// New creates a new mock platform serving root.
func New(root uitree.Node, cfg Config) *Driver {
	if cfg.Width <= 0 {
		cfg.Width = 1080
	}
	if cfg.Height <= 0 {
		cfg.Height = 1920
	}
	return &Driver{Config: cfg, root: root}
}

// SetRoot replaces the tree returned by Root.
func (d *Driver) SetRoot(root uitree.Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.root = root
}

// Root returns the current tree.
func (d *Driver) Root() uitree.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.root
}

// Click records a click on node.
func (d *Driver) Click(node uitree.Node) bool {
	return d.record(Call{Op: OpClick, Node: node})
}

// SetText records text entry. On success the text of an *uitree.Element
// target is updated so later steps observe it.
func (d *Driver) SetText(node uitree.Node, text string) bool {
	ok := d.record(Call{Op: OpSetText, Node: node, Text: text})
	if ok {
		if e, isElem := node.(*uitree.Element); isElem && e != nil {
			d.mu.Lock()
			e.Attrs.Text = text
			d.mu.Unlock()
		}
	}
	return ok
}

// Swipe records a swipe gesture.
func (d *Driver) Swipe(x1, y1, x2, y2, durationMs int) bool {
	return d.record(Call{Op: OpSwipe, X1: x1, Y1: y1, X2: x2, Y2: y2, Duration: durationMs})
}

// Tap records a tap gesture.
func (d *Driver) Tap(x, y int) bool {
	return d.record(Call{Op: OpTap, X1: x, Y1: y})
}

// PressBack records a global back action.
func (d *Driver) PressBack() bool {
	return d.record(Call{Op: OpBack})
}

// ScreenSize returns the configured screen size.
func (d *Driver) ScreenSize() (int, int) {
	return d.Config.Width, d.Config.Height
}

// Calls returns a copy of all recorded calls in order.
func (d *Driver) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Call, len(d.calls))
	copy(out, d.calls)
	return out
}

// CallsOf returns the recorded calls of one primitive.
func (d *Driver) CallsOf(op string) []Call {
	var out []Call
	for _, c := range d.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Reset clears recorded calls.
func (d *Driver) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = nil
}

func (d *Driver) record(c Call) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, c)
	return !d.Config.Fail[c.Op]
}
