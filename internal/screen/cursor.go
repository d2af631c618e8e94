package screen

import "github.com/dcosson/wshd/internal/cell"

// Cursor is a buffer's cursor position and pen state. WrapPending implements
// xterm's deferred-wrap rule: a Print that lands on the right margin sets
// it instead of wrapping immediately; the *next* Print wraps first.
type Cursor struct {
	Row, Col    int
	Visible     bool
	Style       cell.Style
	WrapPending bool
}

// saved is the DECSC/DECRC save-cursor slot.
type saved struct {
	Row, Col int
	Style    cell.Style
	set      bool
}
