package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dcosson/wshd/internal/cell"
	"github.com/dcosson/wshd/internal/compositor"
	"github.com/dcosson/wshd/internal/eventbus"
	"github.com/dcosson/wshd/internal/screen"
)

// Input writes data to the PTY, unless the compositor's input-capture mode
// diverts it to a captured_input event instead (spec.md §4.3, §4.4 "input").
func (s *Session) Input(data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	var writeErr error
	s.submit(func() {
		if !s.compositor.RoutesToPTY() {
			s.bus.Publish(eventbus.Event{
				Kind: eventbus.KindCapturedInput, Session: s.Name, Generation: s.generation,
				Payload: eventbus.CapturedInputPayload{Data: cp},
			})
			return
		}
		if _, err := writePTYTimeout(s.ptm, cp, 3*time.Second); err != nil {
			writeErr = err
		}
	})
	return writeErr
}

// RunCommand is the compound op from spec.md §4.4: write input, then block
// until the session is quiescent or ctx's deadline (max_wait_ms) expires.
// It returns the generation observed at completion and whether the wait
// timed out; wall-clock expiry is not an error (spec.md §5 "Cancellation &
// timeouts") — the session keeps running either way. idleWindow, if > 0,
// overrides the session's default idle window for this call only
// (the `timeout_ms` param distinct from ctx's `max_wait_ms` deadline).
func (s *Session) RunCommand(ctx context.Context, data []byte, idleWindow time.Duration) (generation uint64, timedOut bool, err error) {
	if err := s.Input(data); err != nil {
		return 0, false, err
	}
	return s.AwaitQuiesce(ctx, idleWindow)
}

// AwaitQuiesce blocks until idleWindow (or the session's configured default,
// if idleWindow <= 0) has elapsed with no PTY output, the child has exited,
// or ctx's deadline expires. A deadline expiry reports timedOut=true with no
// error; a canceled ctx (client disconnect) reports ctx.Err() instead.
func (s *Session) AwaitQuiesce(ctx context.Context, idleWindow time.Duration) (generation uint64, timedOut bool, err error) {
	ch := make(chan struct{})
	s.submit(func() {
		eff := s.idleWindow
		if idleWindow > 0 {
			eff = idleWindow
		}
		if s.exited || time.Since(s.lastOutput) >= eff {
			close(ch)
			return
		}
		if idleWindow > 0 {
			s.scheduleWaiterCheck(ch, eff)
		} else {
			s.quiesceWaiters = append(s.quiesceWaiters, ch)
		}
	})
	select {
	case <-ch:
		return s.Generation(), false, nil
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return s.Generation(), true, nil
		}
		return s.Generation(), false, ctx.Err()
	}
}

// scheduleWaiterCheck re-checks a caller-specific idle window on its own
// timer, independent of the session's shared quiescence timer, so a single
// await_quiesce call can request a tighter or looser idle window than other
// subscribers without perturbing the session-wide `quiescent` event.
func (s *Session) scheduleWaiterCheck(ch chan struct{}, window time.Duration) {
	remaining := window - time.Since(s.lastOutput)
	if remaining < 0 {
		remaining = 0
	}
	time.AfterFunc(remaining, func() {
		s.submitAsync(func() {
			select {
			case <-ch:
				return // already closed by onChildExit or a prior check
			default:
			}
			if s.exited || time.Since(s.lastOutput) >= window {
				close(ch)
				return
			}
			s.scheduleWaiterCheck(ch, window)
		})
	})
}

// ErrPanelsExceedRows is returned by Resize when the requested total rows
// would leave no usable row for the PTY once current panels are subtracted
// (spec.md §4.5 "resize... does not silently shrink panels").
var ErrPanelsExceedRows = errors.New("session: panels leave no usable rows at this size")

// Resize changes the PTY's total row count (panels included) and column
// count, recomputing the usable PTY area from the current panel set and
// issuing SIGWINCH via the master side (spec.md §4.4 "resize"). Rejects a
// size that would leave <1 usable row rather than shrinking panels.
func (s *Session) Resize(cols, totalRows int) error {
	var err error
	s.submit(func() {
		if totalRows-s.reservedRowsLocked() < 1 {
			err = ErrPanelsExceedRows
			return
		}
		s.cols, s.totalRows = cols, totalRows
		usable := s.compositor.UsableRows(totalRows)
		s.engine.Resize(cols, usable)
		if e := resizePTY(s.ptm, cols, usable); e != nil {
			err = e
			return
		}
		s.bumpGeneration()
		s.publishFullDelta()
	})
	return err
}

// publishFullDelta marks every composited row dirty, used after any change
// that isn't tracked by the screen engine's own dirty set (resize, panel
// and overlay mutations).
func (s *Session) publishFullDelta() {
	total := s.compositor.UsableRows(s.totalRows) + s.reservedRowsLocked()
	rows := make([]int, total)
	for i := range rows {
		rows[i] = i
	}
	s.bus.Publish(eventbus.Event{
		Kind: eventbus.KindScreenDelta, Session: s.Name, Generation: s.generation,
		Payload: eventbus.ScreenDeltaPayload{Rows: rows},
	})
}

func (s *Session) reservedRowsLocked() int {
	total := 0
	for _, p := range s.compositor.Panels() {
		total += p.Height
	}
	return total
}

// Screen returns the composited view (panels + active buffer + overlays)
// currently visible to a client, for get_screen (spec.md §4.4).
func (s *Session) Screen() []cell.Line {
	var out []cell.Line
	s.submit(func() {
		out = s.compositor.Composite(s.engine.Active(), s.engine.Mode())
	})
	return out
}

// ScreenView is the full get_screen result (spec.md §6 method table).
type ScreenView struct {
	Lines           []cell.Line
	Cols, Rows      int
	CursorRow       int
	CursorCol       int
	CursorVisible   bool
	FirstLineIndex  int
	AlternateActive bool
	Generation      uint64
}

// ScreenInfo returns the full get_screen payload in one consistent snapshot.
func (s *Session) ScreenInfo() ScreenView {
	var v ScreenView
	s.submit(func() {
		buf := s.engine.Active()
		v = ScreenView{
			Lines:           s.compositor.Composite(buf, s.engine.Mode()),
			Cols:            buf.Cols(),
			Rows:            buf.Rows(),
			CursorRow:       buf.Cursor.Row,
			CursorCol:       buf.Cursor.Col,
			CursorVisible:   buf.Cursor.Visible,
			FirstLineIndex:  s.engine.Scrollback().FirstLineIndex(),
			AlternateActive: s.engine.Mode() == screen.ModeAlt,
			Generation:      s.generation,
		}
	})
	return v
}

// SetScreenMode forces the active buffer to normal or alt (the `screen_mode`
// method's enter_alt/exit_alt actions), mirroring what CSI ?1049h/l would
// do, for agents that want to toggle it without emulating the escape.
func (s *Session) SetScreenMode(enterAlt bool) {
	s.submit(func() {
		if enterAlt {
			s.engine.EnterAlt(true, true)
		} else {
			s.engine.ExitAlt(true)
		}
		s.bumpGeneration()
		s.bus.Publish(eventbus.Event{Kind: eventbus.KindScreenModeChanged, Session: s.Name, Generation: s.generation})
		s.publishFullDelta()
	})
}

// Scrollback returns up to limit scrollback lines starting at the absolute
// line index offset, clamped to what the ring retains (spec.md §3 "Scrollback").
func (s *Session) Scrollback(offset, limit int) []cell.Line {
	var out []cell.Line
	s.submit(func() {
		out = s.engine.Scrollback().Range(offset, limit)
	})
	return out
}

// AddPanel registers a new panel, resizing the PTY to reflect the rows it
// now reserves (spec.md §4.3 "Panel resize").
func (s *Session) AddPanel(edge compositor.Edge, height int, background *cell.Color, mode screen.ScreenMode) (uuid.UUID, error) {
	var id uuid.UUID
	var err error
	s.submit(func() {
		p, e := s.compositor.AddPanel(edge, height, s.totalRows, background, mode)
		if e != nil {
			err = e
			return
		}
		id = p.ID
		usable := s.compositor.UsableRows(s.totalRows)
		s.engine.Resize(s.cols, usable)
		if rerr := resizePTY(s.ptm, s.cols, usable); rerr != nil {
			err = rerr
			return
		}
		s.bumpGeneration()
		s.publishFullDelta()
	})
	return id, err
}

// RemovePanel unregisters a panel and resizes the PTY back up.
func (s *Session) RemovePanel(id uuid.UUID) error {
	var err error
	s.submit(func() {
		if e := s.compositor.RemovePanel(id); e != nil {
			err = e
			return
		}
		usable := s.compositor.UsableRows(s.totalRows)
		s.engine.Resize(s.cols, usable)
		if rerr := resizePTY(s.ptm, s.cols, usable); rerr != nil {
			err = rerr
			return
		}
		s.bumpGeneration()
		s.publishFullDelta()
	})
	return err
}

// AddOverlay registers a new floating overlay (no PTY resize: overlays
// don't reserve rows).
func (s *Session) AddOverlay(x, y, width, height int, background *cell.Color, focusable bool, mode screen.ScreenMode) uuid.UUID {
	var id uuid.UUID
	s.submit(func() {
		o := s.compositor.AddOverlay(x, y, width, height, background, focusable, mode)
		id = o.ID
		s.bumpGeneration()
		s.publishFullDelta()
	})
	return id
}

// RemoveOverlay unregisters a floating overlay.
func (s *Session) RemoveOverlay(id uuid.UUID) error {
	var err error
	s.submit(func() {
		if e := s.compositor.RemoveOverlay(id); e != nil {
			err = e
			return
		}
		s.bumpGeneration()
		s.publishFullDelta()
	})
	return err
}

// UpdateSpan sets a (possibly named) span on a registered overlay or panel.
func (s *Session) UpdateSpan(id uuid.UUID, span compositor.Span) error {
	var err error
	s.submit(func() {
		if e := s.compositor.UpdateSpan(id, span); e != nil {
			err = e
			return
		}
		s.bumpGeneration()
		s.publishFullDelta()
	})
	return err
}

// ErrFocusNotFocusable is returned by SetCapture when focusID names an
// element that isn't registered with Focusable=true (spec.md §6
// "focus_not_focusable").
var ErrFocusNotFocusable = errors.New("session: element is not focusable")

// SetCapture changes input-capture routing (spec.md §4.3). Focusing an
// element that isn't Focusable, or that doesn't exist, fails without
// changing the current mode.
func (s *Session) SetCapture(mode compositor.CaptureMode, focusID uuid.UUID) error {
	var err error
	s.submit(func() {
		if mode == compositor.CaptureFocused {
			if !s.elementFocusable(focusID) {
				err = ErrFocusNotFocusable
				return
			}
		}
		s.compositor.SetCapture(mode, focusID)
		s.bumpGeneration()
		s.bus.Publish(eventbus.Event{Kind: eventbus.KindInputModeChanged, Session: s.Name, Generation: s.generation})
	})
	return err
}

func (s *Session) elementFocusable(id uuid.UUID) bool {
	if o, err := s.compositor.Overlay(id); err == nil {
		return o.Focusable
	}
	if p, err := s.compositor.Panel(id); err == nil {
		return p.Focusable
	}
	return false
}

// CaptureInfo returns the current input-capture mode and focused element, if
// any (the `input_mode` method's query form).
func (s *Session) CaptureInfo() (mode compositor.CaptureMode, focusID uuid.UUID, hasFocus bool) {
	s.submit(func() {
		mode, focusID, hasFocus = s.compositor.Capture()
	})
	return
}

// ListOverlays and ListPanels return snapshots of the registered elements,
// for the `overlay`/`panel` methods' list action.
func (s *Session) ListOverlays() []*compositor.Overlay {
	var out []*compositor.Overlay
	s.submit(func() { out = append(out, s.compositor.Overlays()...) })
	return out
}

func (s *Session) ListPanels() []*compositor.Panel {
	var out []*compositor.Panel
	s.submit(func() { out = append(out, s.compositor.Panels()...) })
	return out
}

// Subscribe returns a bus subscriber streaming this session's events. The
// caller must Unsubscribe when done (e.g. on client disconnect).
func (s *Session) Subscribe(capacity int) *eventbus.Subscriber {
	return s.bus.Subscribe(capacity)
}

// Unsubscribe detaches a subscriber previously returned by Subscribe.
func (s *Session) Unsubscribe(sub *eventbus.Subscriber) {
	s.bus.Unsubscribe(sub)
}
