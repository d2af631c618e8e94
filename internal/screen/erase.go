package screen

import "github.com/dcosson/wshd/internal/cell"

// eraseInDisplay implements ED: 0 below, 1 above, 2 all, 3 scrollback.
// Erased cells take the current background color (xterm "bce" behaviour).
func (e *Engine) eraseInDisplay(b *Buffer, mode int) {
	bg := b.Cursor.Style.Bg
	switch mode {
	case 0:
		e.clearRange(b, b.Cursor.Row, b.Cursor.Col, b.Cursor.Row, b.cols-1, bg)
		if b.Cursor.Row < b.rows-1 {
			e.clearRange(b, b.Cursor.Row+1, 0, b.rows-1, b.cols-1, bg)
		}
	case 1:
		if b.Cursor.Row > 0 {
			e.clearRange(b, 0, 0, b.Cursor.Row-1, b.cols-1, bg)
		}
		e.clearRange(b, b.Cursor.Row, 0, b.Cursor.Row, b.Cursor.Col, bg)
	case 2:
		e.clearRange(b, 0, 0, b.rows-1, b.cols-1, bg)
	case 3:
		if b == e.normal {
			e.scrollback.Clear()
		}
	}
}

// eraseInLine implements EL: 0 right, 1 left, 2 whole line.
func (e *Engine) eraseInLine(b *Buffer, mode int) {
	bg := b.Cursor.Style.Bg
	switch mode {
	case 0:
		e.clearRange(b, b.Cursor.Row, b.Cursor.Col, b.Cursor.Row, b.cols-1, bg)
	case 1:
		e.clearRange(b, b.Cursor.Row, 0, b.Cursor.Row, b.Cursor.Col, bg)
	case 2:
		e.clearRange(b, b.Cursor.Row, 0, b.Cursor.Row, b.cols-1, bg)
	}
}

// clearRange blanks an inclusive rectangle spanning possibly multiple rows,
// row-major (used by ED, which clears to end-of-row then full rows).
func (e *Engine) clearRange(b *Buffer, rowStart, colStart, rowEnd, colEnd int, bg cell.Color) {
	for r := rowStart; r <= rowEnd; r++ {
		line := b.Line(r)
		cs, ce := 0, b.cols-1
		if r == rowStart {
			cs = colStart
		}
		if r == rowEnd {
			ce = colEnd
		}
		for c := cs; c <= ce && c < len(line.Cells); c++ {
			line.Cells[c] = cell.BlankWithBg(bg)
		}
		if b == e.Active() {
			e.markDirty(r)
		}
	}
}

func (e *Engine) eraseChars(b *Buffer, n int) {
	end := b.Cursor.Col + n - 1
	if end > b.cols-1 {
		end = b.cols - 1
	}
	e.clearRange(b, b.Cursor.Row, b.Cursor.Col, b.Cursor.Row, end, b.Cursor.Style.Bg)
}

func (e *Engine) insertBlanks(b *Buffer, n int) {
	row := b.Cursor.Row
	line := b.Line(row)
	col := b.Cursor.Col
	if col+n > b.cols {
		n = b.cols - col
	}
	copy(line.Cells[col+n:], line.Cells[col:b.cols-n])
	for i := col; i < col+n; i++ {
		line.Cells[i] = cell.BlankWithBg(b.Cursor.Style.Bg)
	}
	e.markDirty(row)
}

func (e *Engine) deleteChars(b *Buffer, n int) {
	row := b.Cursor.Row
	line := b.Line(row)
	col := b.Cursor.Col
	if col+n > b.cols {
		n = b.cols - col
	}
	copy(line.Cells[col:], line.Cells[col+n:])
	for i := b.cols - n; i < b.cols; i++ {
		line.Cells[i] = cell.BlankWithBg(b.Cursor.Style.Bg)
	}
	e.markDirty(row)
}

func (e *Engine) insertLines(b *Buffer, n int) {
	top, bot := b.Cursor.Row, b.ScrollBot
	if top < b.ScrollTop || top > b.ScrollBot {
		return
	}
	if n > bot-top+1 {
		n = bot - top + 1
	}
	for i := 0; i < n; i++ {
		copy(b.grid[top+1:bot+1], b.grid[top:bot])
		b.grid[top] = cell.NewLineWithBg(b.cols, b.Cursor.Style.Bg)
	}
	for r := top; r <= bot; r++ {
		e.markDirty(r)
	}
}

func (e *Engine) deleteLines(b *Buffer, n int) {
	top, bot := b.Cursor.Row, b.ScrollBot
	if top < b.ScrollTop || top > b.ScrollBot {
		return
	}
	if n > bot-top+1 {
		n = bot - top + 1
	}
	for i := 0; i < n; i++ {
		copy(b.grid[top:bot], b.grid[top+1:bot+1])
		b.grid[bot] = cell.NewLineWithBg(b.cols, b.Cursor.Style.Bg)
	}
	for r := top; r <= bot; r++ {
		e.markDirty(r)
	}
}
