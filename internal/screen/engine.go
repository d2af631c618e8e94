// Package screen implements the screen engine (spec.md §4.2): it applies
// decoded VT ops to a dual-buffer (normal/alternate) cell grid, tracking
// dirty lines and exposing the composited state overlays/panels render atop.
package screen

import (
	"github.com/dcosson/wshd/internal/cell"
	"github.com/dcosson/wshd/internal/scrollback"
)

// ScreenMode selects which buffer is active.
type ScreenMode int

const (
	ModeNormal ScreenMode = iota
	ModeAlt
)

// Engine owns both buffers, the scrollback ring backing the normal buffer,
// and the dirty-line / mutation tracking that drives screen-delta events.
// It implements vtparser.Performer.
type Engine struct {
	normal *Buffer
	alt    *Buffer
	active ScreenMode

	scrollback *scrollback.Ring

	dirty   map[int]struct{}
	mutated bool

	// PTYResponse, when set, receives bytes the engine must write back to
	// the PTY's input side (DA1, DSR/CPR replies). Set by the session
	// actor; nil is a valid no-op default for tests.
	PTYResponse func([]byte)

	// OnTitle/OnClipboard surface OSC 0/1/2/52 as events rather than
	// applying them to the grid (spec.md §6).
	OnTitle     func(title string)
	OnClipboard func(selection string, payload []byte)
}

// New creates an engine with both buffers sized cols x rows and a
// scrollback ring of the given capacity (0 uses scrollback.DefaultCapacity).
func New(cols, rows, scrollbackCap int) *Engine {
	return &Engine{
		normal:     newBuffer(cols, rows),
		alt:        newBuffer(cols, rows),
		scrollback: scrollback.New(scrollbackCap),
		dirty:      make(map[int]struct{}),
	}
}

// Active returns the buffer currently receiving ops.
func (e *Engine) Active() *Buffer {
	if e.active == ModeAlt {
		return e.alt
	}
	return e.normal
}

// Mode reports which buffer is active.
func (e *Engine) Mode() ScreenMode { return e.active }

// Scrollback exposes the ring for get_scrollback reads.
func (e *Engine) Scrollback() *scrollback.Ring { return e.scrollback }

// markDirty records that row changed during the current apply-batch and
// flags the engine as mutated (drives the generation counter upstream).
func (e *Engine) markDirty(row int) {
	e.dirty[row] = struct{}{}
	e.mutated = true
	buf := e.Active()
	buf.grid[row].Revision++
}

// TakeDirty returns the sorted set of rows that changed since the last call
// and clears it. Called once per apply-batch by the session actor.
func (e *Engine) TakeDirty() []int {
	if len(e.dirty) == 0 {
		return nil
	}
	rows := make([]int, 0, len(e.dirty))
	for r := range e.dirty {
		rows = append(rows, r)
	}
	for i := 1; i < len(rows); i++ {
		for j := i; j > 0 && rows[j-1] > rows[j]; j-- {
			rows[j-1], rows[j] = rows[j], rows[j-1]
		}
	}
	e.dirty = make(map[int]struct{})
	return rows
}

// Mutated reports and clears whether any screen-affecting mutation happened
// since the last call (spec.md's resolved Open Question: any such mutation
// bumps the session's generation counter).
func (e *Engine) Mutated() bool {
	m := e.mutated
	e.mutated = false
	return m
}

// Resize changes the active area's dimensions. Both buffers are resized so
// switching screen modes never observes a dimension mismatch (spec.md §3
// invariant). Existing lines are padded/truncated; the cursor is clamped.
func (e *Engine) Resize(cols, rows int) {
	for _, b := range []*Buffer{e.normal, e.alt} {
		e.resizeBuffer(b, cols, rows)
	}
	e.mutated = true
	for r := 0; r < rows; r++ {
		e.dirty[r] = struct{}{}
	}
}

func (e *Engine) resizeBuffer(b *Buffer, cols, rows int) {
	if rows != b.rows {
		if rows > b.rows {
			for i := b.rows; i < rows; i++ {
				b.grid = append(b.grid, cell.NewLine(b.cols))
			}
		} else {
			b.grid = b.grid[:rows]
		}
		if b.ScrollBot > rows-1 || b.ScrollBot == b.rows-1 {
			b.ScrollBot = rows - 1
		}
		if b.ScrollTop > rows-1 {
			b.ScrollTop = 0
		}
		b.rows = rows
	}
	if cols != b.cols {
		for i := range b.grid {
			b.grid[i].Resize(cols)
		}
		b.cols = cols
	}
	b.Cursor.Row = b.clampRow(b.Cursor.Row)
	b.Cursor.Col = b.clampCol(b.Cursor.Col)
}

// EnterAlt switches to the alternate buffer (DECSET 1047/1049), optionally
// saving the cursor and clearing the new alt screen (1049 semantics).
func (e *Engine) EnterAlt(saveCursor, clear bool) {
	if e.active == ModeAlt {
		return
	}
	if saveCursor {
		e.SaveCursor()
	}
	e.active = ModeAlt
	if clear {
		e.eraseBuffer(e.alt, e.alt.Cursor.Style.Bg)
	}
	e.mutated = true
	for r := 0; r < e.alt.rows; r++ {
		e.dirty[r] = struct{}{}
	}
}

// ExitAlt switches back to the normal buffer (spec.md: alt buffer discarded
// on exit — the grid itself is reused but its contents are irrelevant once
// no longer active; the next EnterAlt clears it again when asked to).
func (e *Engine) ExitAlt(restoreCursor bool) {
	if e.active == ModeNormal {
		return
	}
	e.active = ModeNormal
	if restoreCursor {
		e.RestoreCursor()
	}
	e.mutated = true
	for r := 0; r < e.normal.rows; r++ {
		e.dirty[r] = struct{}{}
	}
}

// SaveCursor implements DECSC.
func (e *Engine) SaveCursor() {
	b := e.Active()
	b.savedCur = saved{Row: b.Cursor.Row, Col: b.Cursor.Col, Style: b.Cursor.Style, set: true}
}

// RestoreCursor implements DECRC.
func (e *Engine) RestoreCursor() {
	b := e.Active()
	if !b.savedCur.set {
		b.Cursor.Row, b.Cursor.Col = 0, 0
		return
	}
	b.Cursor.Row = b.clampRow(b.savedCur.Row)
	b.Cursor.Col = b.clampCol(b.savedCur.Col)
	b.Cursor.Style = b.savedCur.Style
	b.Cursor.WrapPending = false
}
