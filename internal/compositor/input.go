package compositor

import "github.com/google/uuid"

// CaptureMode selects where client keystrokes go (spec.md §4.3 "Input
// capture"): straight to the PTY, diverted entirely to captured_input
// events, or diverted only while a specific focusable element holds focus.
type CaptureMode int

const (
	CapturePassthrough CaptureMode = iota
	CaptureAll
	CaptureFocused
)

// SetCapture changes the capture mode. focusID is only meaningful for
// CaptureFocused and must name a focusable, currently-registered overlay or
// panel; callers should validate with Overlay/Panel first.
func (c *Compositor) SetCapture(mode CaptureMode, focusID uuid.UUID) {
	c.capture = mode
	if mode == CaptureFocused {
		c.focusID = focusID
		c.hasFocus = true
	} else {
		c.hasFocus = false
	}
}

// Capture reports the current mode and, for CaptureFocused, the focused
// element's ID.
func (c *Compositor) Capture() (mode CaptureMode, focusID uuid.UUID, hasFocus bool) {
	return c.capture, c.focusID, c.hasFocus
}

// RoutesToPTY reports whether input should be written to the PTY as usual
// given the current capture mode. When false, the session actor emits a
// captured_input event instead (spec.md §4.3).
func (c *Compositor) RoutesToPTY() bool {
	return c.capture == CapturePassthrough
}

// clearFocusIfMatches drops capture focus when the focused element is
// removed. Capture itself stays on (spec.md §4.3: "deleting a focused
// element atomically clears focus"; it does not release capture), so input
// keeps being diverted to captured_input events rather than falling through
// to the PTY.
func (c *Compositor) clearFocusIfMatches(id uuid.UUID) {
	if c.hasFocus && c.focusID == id {
		c.capture = CaptureAll
		c.hasFocus = false
	}
}
