package screen

import "github.com/dcosson/wshd/internal/cell"

// Print implements vtparser.Performer: writes one grapheme cluster (1 or 2
// columns) at the cursor with the current pen style, applying the deferred
// autowrap rule (spec.md §4.2 "Print").
func (e *Engine) Print(grapheme string, width int) {
	b := e.Active()
	if width <= 0 {
		width = 1
	}

	if b.Cursor.WrapPending {
		if b.Modes.Autowrap {
			e.wrapLine(b)
		}
		b.Cursor.WrapPending = false
	}

	if b.Modes.Insert {
		e.shiftRightForInsert(b, width)
	}

	row, col := b.Cursor.Row, b.Cursor.Col
	line := b.Line(row)
	style := b.Cursor.Style
	if width == 2 && col == b.cols-1 {
		// A wide char can't split across the margin: pad with a blank and
		// wrap first, per xterm behavior.
		line.Cells[col] = cell.Blank()
		e.markDirty(row)
		if b.Modes.Autowrap {
			e.wrapLine(b)
			row, col = b.Cursor.Row, b.Cursor.Col
			line = b.Line(row)
		} else {
			return
		}
	}

	line.Cells[col] = cell.Cell{Grapheme: grapheme, Width: uint8(width), Style: style}
	if width == 2 {
		line.Cells[col+1] = cell.WideTail(style)
	}
	e.markDirty(row)

	newCol := col + width
	if newCol >= b.cols {
		b.Cursor.Col = b.cols - 1
		if b.Modes.Autowrap {
			b.Cursor.WrapPending = true
		}
	} else {
		b.Cursor.Col = newCol
	}
}

// wrapLine moves the cursor to column 0 of the next line, scrolling if
// already at the bottom margin. It does not set WrapCont on any cell, so a
// wrapped line is not marked as the continuation of the line before it.
func (e *Engine) wrapLine(b *Buffer) {
	if b.Cursor.Row == b.ScrollBot {
		e.scrollUp(b, 1)
	} else if b.Cursor.Row < b.rows-1 {
		b.Cursor.Row++
	}
	b.Cursor.Col = 0
}

func (e *Engine) shiftRightForInsert(b *Buffer, n int) {
	row := b.Cursor.Row
	line := b.Line(row)
	col := b.Cursor.Col
	copy(line.Cells[col+n:], line.Cells[col:len(line.Cells)-n])
	for i := col; i < col+n && i < len(line.Cells); i++ {
		line.Cells[i] = cell.BlankWithBg(b.Cursor.Style.Bg)
	}
	e.markDirty(row)
}

// Execute implements vtparser.Performer for C0 control bytes.
func (e *Engine) Execute(b byte) {
	buf := e.Active()
	switch b {
	case '\a': // BEL
		// No grid effect; transports may surface a bell event if desired.
	case '\b': // BS
		if buf.Cursor.Col > 0 {
			buf.Cursor.Col--
		}
		buf.Cursor.WrapPending = false
	case '\t': // HT
		e.tab(buf)
	case '\n', '\v', '\f': // LF, VT, FF
		e.lineFeed(buf)
	case '\r': // CR
		buf.Cursor.Col = 0
		buf.Cursor.WrapPending = false
	case 0x0e, 0x0f: // SO, SI (charset shifts: no-op, we don't model G0/G1)
	}
}

func (e *Engine) tab(b *Buffer) {
	next := (b.Cursor.Col/8 + 1) * 8
	if next >= b.cols {
		next = b.cols - 1
	}
	b.Cursor.Col = next
}

// lineFeed implements LF (spec.md §4.2): moves the cursor down, scrolling
// the active scroll region when at its bottom margin. In the normal buffer,
// a full-screen scroll region evicts its top line into scrollback.
func (e *Engine) lineFeed(b *Buffer) {
	if b.Cursor.Row == b.ScrollBot {
		e.scrollUp(b, 1)
	} else if b.Cursor.Row < b.rows-1 {
		b.Cursor.Row++
	}
}

// scrollUp scrolls the active scroll region up by n lines, discarding the
// top n lines of the region. When the region spans the full screen of the
// normal buffer, evicted lines are appended to scrollback (spec.md §3).
func (e *Engine) scrollUp(b *Buffer, n int) {
	top, bot := b.ScrollTop, b.ScrollBot
	fullScreen := top == 0 && bot == b.rows-1
	for i := 0; i < n; i++ {
		if fullScreen && b == e.normal {
			e.scrollback.Append(b.grid[top].Clone())
		}
		copy(b.grid[top:bot], b.grid[top+1:bot+1])
		b.grid[bot] = cell.NewLineWithBg(b.cols, b.Cursor.Style.Bg)
	}
	for r := top; r <= bot; r++ {
		e.markDirty(r)
	}
}

// scrollDown scrolls the active scroll region down by n lines (SD), leaving
// blank lines at the top; no scrollback interaction (content moves back
// into view, nothing is evicted).
func (e *Engine) scrollDown(b *Buffer, n int) {
	top, bot := b.ScrollTop, b.ScrollBot
	for i := 0; i < n; i++ {
		copy(b.grid[top+1:bot+1], b.grid[top:bot])
		b.grid[top] = cell.NewLineWithBg(b.cols, b.Cursor.Style.Bg)
	}
	for r := top; r <= bot; r++ {
		e.markDirty(r)
	}
}

// eraseBuffer clears every cell of b to a blank of the given background.
func (e *Engine) eraseBuffer(b *Buffer, bg cell.Color) {
	for r := 0; r < b.rows; r++ {
		b.grid[r] = cell.NewLineWithBg(b.cols, bg)
		if b == e.Active() {
			e.markDirty(r)
		}
	}
}
