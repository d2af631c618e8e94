package compositor

import (
	"errors"

	"github.com/google/uuid"

	"github.com/dcosson/wshd/internal/cell"
	"github.com/dcosson/wshd/internal/screen"
)

var (
	ErrNotFound     = errors.New("compositor: element not found")
	ErrSpanNotFound = errors.New("compositor: span not found")
	ErrPanelNoRoom  = errors.New("compositor: panel would leave no usable rows")
)

// Compositor holds the ordered sets of overlays and panels registered against
// one session, and the input-capture mode that routes client keystrokes
// (spec.md §4.3 "Input capture").
//
// Registration order is preserved (it is also paint order: later-registered
// elements paint over earlier ones), generalizing the teacher's single
// reserved status bar into N panels and N overlays.
type Compositor struct {
	overlays []*Overlay
	panels   []*Panel

	capture  CaptureMode
	focusID  uuid.UUID
	hasFocus bool
}

// New returns an empty compositor in passthrough input-capture mode.
func New() *Compositor {
	return &Compositor{capture: CapturePassthrough}
}

// AddOverlay registers a new floating overlay at (x,y) sized width x height
// and returns it so the caller can populate its spans. background == nil
// means transparent (base screen cells show through where no span covers).
func (c *Compositor) AddOverlay(x, y, width, height int, background *cell.Color, focusable bool, mode screen.ScreenMode) *Overlay {
	o := &Overlay{element: newElement(), X: x, Y: y, Width: width, Height: height}
	o.Background = background
	o.Focusable = focusable
	o.ScreenMode = mode
	c.overlays = append(c.overlays, o)
	return o
}

// AddPanel registers a new edge-docked panel and returns it. rows is the
// PTY's current total row count, used only to guard against a panel leaving
// no usable rows for the PTY itself; the caller is responsible for resizing
// the PTY afterward (spec.md §4.3 "Panel resize").
func (c *Compositor) AddPanel(edge Edge, height, rows int, background *cell.Color, mode screen.ScreenMode) (*Panel, error) {
	if c.reservedRows()+height >= rows {
		return nil, ErrPanelNoRoom
	}
	p := &Panel{element: newElement(), Position: edge, Height: height}
	p.Background = background
	p.ScreenMode = mode
	c.panels = append(c.panels, p)
	return p, nil
}

// RemoveOverlay unregisters an overlay by ID. Clears capture focus if it was
// focused on this element.
func (c *Compositor) RemoveOverlay(id uuid.UUID) error {
	for i, o := range c.overlays {
		if o.ID == id {
			c.overlays = append(c.overlays[:i], c.overlays[i+1:]...)
			c.clearFocusIfMatches(id)
			return nil
		}
	}
	return ErrNotFound
}

// RemovePanel unregisters a panel by ID.
func (c *Compositor) RemovePanel(id uuid.UUID) error {
	for i, p := range c.panels {
		if p.ID == id {
			c.panels = append(c.panels[:i], c.panels[i+1:]...)
			c.clearFocusIfMatches(id)
			return nil
		}
	}
	return ErrNotFound
}

// Overlay returns the overlay with the given ID, or ErrNotFound.
func (c *Compositor) Overlay(id uuid.UUID) (*Overlay, error) {
	for _, o := range c.overlays {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, ErrNotFound
}

// Panel returns the panel with the given ID, or ErrNotFound.
func (c *Compositor) Panel(id uuid.UUID) (*Panel, error) {
	for _, p := range c.panels {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

// Overlays and Panels expose the registered elements in registration/paint
// order, for list_overlays/list_panels responses.
func (c *Compositor) Overlays() []*Overlay { return c.overlays }
func (c *Compositor) Panels() []*Panel     { return c.panels }

// UpdateSpan finds the element (overlay or panel) by ID and sets the given
// span on it, replacing any existing span of the same name.
func (c *Compositor) UpdateSpan(id uuid.UUID, s Span) error {
	if o, err := c.Overlay(id); err == nil {
		o.SetSpan(s)
		return nil
	}
	if p, err := c.Panel(id); err == nil {
		p.SetSpan(s)
		return nil
	}
	return ErrNotFound
}

// reservedRows is the sum of all registered panels' heights, regardless of
// edge — top and bottom panels both shrink the PTY's usable area.
func (c *Compositor) reservedRows() int {
	n := 0
	for _, p := range c.panels {
		n += p.Height
	}
	return n
}

// UsableRows returns how many of totalRows remain for the PTY once all
// registered panels have reserved their rows (spec.md §4.3 "Panel resize":
// adding/removing/resizing a panel changes the PTY's window size and issues
// SIGWINCH; the session actor calls this after any panel mutation).
func (c *Compositor) UsableRows(totalRows int) int {
	usable := totalRows - c.reservedRows()
	if usable < 1 {
		return 1
	}
	return usable
}

// topPanelRows and bottomPanelRows report how many rows are reserved at
// each edge, in registration order, for Composite's layout pass.
func (c *Compositor) topPanelRows() int {
	n := 0
	for _, p := range c.panels {
		if p.Position == EdgeTop {
			n += p.Height
		}
	}
	return n
}

func (c *Compositor) bottomPanelRows() int {
	n := 0
	for _, p := range c.panels {
		if p.Position == EdgeBottom {
			n += p.Height
		}
	}
	return n
}
