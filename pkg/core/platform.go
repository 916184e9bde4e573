package core

import "github.com/labcitrus/avagen-runner/pkg/uitree"

// Platform is the host side of plan execution: it exposes the live UI tree
// and the low-level action primitives. Every primitive reports success as a
// bool and never panics on failure.
type Platform interface {
	// Root returns the root of the active window, or nil when unavailable.
	// Each call returns a fresh snapshot.
	Root() uitree.Node

	Click(node uitree.Node) bool
	SetText(node uitree.Node, text string) bool
	Swipe(x1, y1, x2, y2, durationMs int) bool
	Tap(x, y int) bool
	PressBack() bool

	// ScreenSize returns the display size in pixels.
	ScreenSize() (width, height int)
}
