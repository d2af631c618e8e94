package screen

import "github.com/dcosson/wshd/internal/cell"

// Modes holds the boolean terminal modes spec.md §4.2 "Mode set/reset" lists.
type Modes struct {
	Insert         bool // IRM
	Origin         bool // DECOM
	Autowrap       bool // DECAWM, default true
	AppCursorKeys  bool // DECCKM
	AppKeypad      bool // DECPAM/DECPNM
	BracketedPaste bool // 2004
	FocusEvents    bool // 1004
	MouseX10       bool // 1000
	MouseButton    bool // 1002
	MouseAny       bool // 1003
	MouseSGR       bool // 1006
}

// Buffer is one of the two independent per-session screen buffers (spec.md
// §3 "Screen buffer"): a row-major cell grid, cursor, saved-cursor slot,
// scroll region, and mode flags. The normal buffer additionally owns a
// scrollback ring (held by Engine, not Buffer, since only the normal buffer
// uses it).
type Buffer struct {
	cols, rows int
	grid       []cell.Line
	Cursor     Cursor
	savedCur   saved
	ScrollTop  int // 0-based, inclusive
	ScrollBot  int // 0-based, inclusive
	Modes      Modes
}

func newBuffer(cols, rows int) *Buffer {
	b := &Buffer{cols: cols, rows: rows}
	b.grid = make([]cell.Line, rows)
	for i := range b.grid {
		b.grid[i] = cell.NewLine(cols)
	}
	b.ScrollTop = 0
	b.ScrollBot = rows - 1
	b.Modes.Autowrap = true
	b.Cursor.Visible = true
	return b
}

// Line returns the row at the given 0-based index.
func (b *Buffer) Line(row int) *cell.Line { return &b.grid[row] }

// Cols and Rows report the buffer's current dimensions.
func (b *Buffer) Cols() int { return b.cols }
func (b *Buffer) Rows() int { return b.rows }

// clampRow confines a cursor row to [0,rows), or to the scroll region's rows
// when origin mode is active (spec.md §4.2 "CSI cursor ops"); clampCol does
// the same for columns.
func (b *Buffer) clampRow(row int) int {
	lo, hi := 0, b.rows-1
	if b.Modes.Origin {
		lo, hi = b.ScrollTop, b.ScrollBot
	}
	if row < lo {
		return lo
	}
	if row > hi {
		return hi
	}
	return row
}

func (b *Buffer) clampCol(col int) int {
	if col < 0 {
		return 0
	}
	if col > b.cols-1 {
		return b.cols - 1
	}
	return col
}
