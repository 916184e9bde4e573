package executor

import (
	"fmt"

	"github.com/labcitrus/avagen-runner/pkg/core"
	"github.com/labcitrus/avagen-runner/pkg/uitree"
)

// SwipeDurationMs is the stroke duration of every swipe gesture.
const SwipeDurationMs = 300

// click uses the platform click on clickable nodes and taps the bounds
// centre otherwise.
func (e *Executor) click(node uitree.Node) error {
	if node.IsClickable() {
		if !e.platform.Click(node) {
			return core.ErrActionFailed.WithMessage("click failed")
		}
		return nil
	}

	b := node.Bounds()
	if b.IsEmpty() {
		return core.ErrActionFailed.WithMessage("node is not clickable and has empty bounds")
	}
	x, y := b.Center()
	e.log.Debug().Int("x", x).Int("y", y).Msg("node not clickable, tapping bounds centre")
	if !e.platform.Tap(x, y) {
		return core.ErrActionFailed.WithMessage(fmt.Sprintf("tap at (%d,%d) failed", x, y))
	}
	return nil
}

// inputText replaces the content of an editable node.
func (e *Executor) inputText(node uitree.Node, text string) error {
	if !node.IsEditable() {
		return core.ErrActionFailed.WithMessage("node is not editable")
	}
	if !e.platform.SetText(node, text) {
		return core.ErrActionFailed.WithMessage("set text failed")
	}
	return nil
}

// scrollNode swipes up inside the node so its content scrolls down. Nodes
// without bounds fall back to a screen scroll.
func (e *Executor) scrollNode(node uitree.Node) error {
	b := node.Bounds()
	if b.IsEmpty() {
		return e.scrollDown()
	}
	x, _ := b.Center()
	return e.swipe(x, b.Y+b.Height*3/4, x, b.Y+b.Height/4)
}

// scrollDown swipes from 75% to 25% of the screen height at the centre.
func (e *Executor) scrollDown() error {
	w, h := e.platform.ScreenSize()
	x := w / 2
	return e.swipe(x, h*3/4, x, h/4)
}

// swipeLeft swipes half the screen width, 75% to 25%, at mid height.
func (e *Executor) swipeLeft() error {
	w, h := e.platform.ScreenSize()
	y := h / 2
	return e.swipe(w*3/4, y, w/4, y)
}

// swipeRight swipes half the screen width, 25% to 75%, at mid height.
func (e *Executor) swipeRight() error {
	w, h := e.platform.ScreenSize()
	y := h / 2
	return e.swipe(w/4, y, w*3/4, y)
}

func (e *Executor) swipe(x1, y1, x2, y2 int) error {
	if !e.platform.Swipe(x1, y1, x2, y2, SwipeDurationMs) {
		return core.ErrActionFailed.WithMessage(fmt.Sprintf("swipe (%d,%d)->(%d,%d) failed", x1, y1, x2, y2))
	}
	return nil
}

func (e *Executor) pressBack() error {
	if !e.platform.PressBack() {
		return core.ErrActionFailed.WithMessage("back failed")
	}
	return nil
}
