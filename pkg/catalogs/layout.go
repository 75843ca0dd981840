package catalogs

import "fmt"

// Layout is the product list presentation style.
type Layout string

const (
	// LayoutGrid shows products as tiles.
	LayoutGrid Layout = "grid"
	// LayoutList shows products as rows.
	LayoutList Layout = "list"
)

// Toggle returns the other layout.
func (l Layout) Toggle() Layout {
	if l == LayoutList {
		return LayoutGrid
	}
	return LayoutList
}

// String returns the layout name.
func (l Layout) String() string {
	return string(l)
}

// ParseLayout parses a layout name.
func ParseLayout(s string) (Layout, error) {
	switch Layout(s) {
	case LayoutGrid, LayoutList:
		return Layout(s), nil
	default:
		return "", fmt.Errorf("unknown layout %q", s)
	}
}
