// Package compositor merges agent-controlled overlays and panels atop a
// session's active screen buffer (spec.md §4.3) and owns the input-capture
// routing that decides whether client input goes to the PTY or is diverted
// to a captured-input event.
package compositor

import (
	"github.com/google/uuid"

	"github.com/dcosson/wshd/internal/cell"
	"github.com/dcosson/wshd/internal/screen"
)

// Edge is a panel's docked edge.
type Edge int

const (
	EdgeTop Edge = iota
	EdgeBottom
)

// Span is one styled piece of text written into an overlay/panel's local
// coordinate space. An unnamed span is addressed only by registration
// order; a named span can be targeted for a standalone update that leaves
// the rest of the element untouched (spec.md §4.3 "Named spans").
type Span struct {
	Name  string
	Row   int
	Col   int
	Text  string
	Style cell.Style
}

// element is the state shared by Overlay and Panel: identity, content,
// background, focusability, and the screen-mode tag that gates rendering.
type element struct {
	ID         uuid.UUID
	Spans      []Span
	nameIndex  map[string]int
	Background *cell.Color // nil = transparent
	Focusable  bool
	ScreenMode screen.ScreenMode
}

func newElement() element {
	return element{ID: uuid.New(), nameIndex: make(map[string]int)}
}

// SetSpan appends or replaces a span. If s.Name is non-empty and a span of
// that name already exists, it is replaced in place (a minimal update, per
// spec.md §4.3); otherwise the span is appended in registration order.
func (e *element) SetSpan(s Span) {
	if s.Name != "" {
		if idx, ok := e.nameIndex[s.Name]; ok {
			e.Spans[idx] = s
			return
		}
		e.nameIndex[s.Name] = len(e.Spans)
	}
	e.Spans = append(e.Spans, s)
}

// Overlay is an agent-owned floating element (spec.md §3 "Overlay").
type Overlay struct {
	element
	X, Y, Width, Height int
}

// Panel is an agent-owned edge-docked element that reduces the PTY's usable
// rows (spec.md §3 "Panel").
type Panel struct {
	element
	Position Edge
	Height   int
}
