// Package uitree models the on-screen accessibility hierarchy that queries run against.
package uitree

// Node is a read-only view of one element in the accessibility tree.
//
// Implementations must be comparable (typically pointer types) because
// queries compare nodes by identity when computing sibling positions.
// Parent returns nil at the root; Children may contain nil entries, which
// traversal skips.
type Node interface {
	ResourceID() string
	Text() string
	ClassName() string
	ContentDescription() string
	IsChecked() bool
	IsClickable() bool
	IsEditable() bool
	Bounds() Bounds
	Parent() Node
	Children() []Node
}

// Bounds represents element bounds on screen.
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the center point of the bounds.
func (b Bounds) Center() (int, int) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Contains checks if a point is within the bounds.
func (b Bounds) Contains(x, y int) bool {
	return x >= b.X && x < b.X+b.Width && y >= b.Y && y < b.Y+b.Height
}

// IsEmpty reports whether the bounds cover no area.
func (b Bounds) IsEmpty() bool {
	return b.Width <= 0 || b.Height <= 0
}
