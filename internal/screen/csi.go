package screen

import "github.com/dcosson/wshd/internal/vtparser"

// CsiDispatch implements vtparser.Performer, routing a complete CSI sequence
// to the matching screen-engine operation (spec.md §4.2).
func (e *Engine) CsiDispatch(params []vtparser.Param, intermediates []byte, private bool, ignored bool, final byte) {
	b := e.Active()
	arg := func(i, def int) int {
		if i >= len(params) {
			return def
		}
		v := params[i].First(0)
		if v == 0 {
			return def
		}
		return v
	}
	rawArg := func(i, def int) int {
		if i >= len(params) {
			return def
		}
		return params[i].First(def)
	}

	if private {
		e.csiPrivate(final, params)
		return
	}

	switch final {
	case '@': // ICH
		e.insertBlanks(b, arg(0, 1))
	case 'A': // CUU
		e.moveTo(b, b.Cursor.Row-arg(0, 1), b.Cursor.Col)
	case 'B', 'e': // CUD, VPR
		e.moveTo(b, b.Cursor.Row+arg(0, 1), b.Cursor.Col)
	case 'C', 'a': // CUF, HPR
		e.moveTo(b, b.Cursor.Row, b.Cursor.Col+arg(0, 1))
	case 'D': // CUB
		e.moveTo(b, b.Cursor.Row, b.Cursor.Col-arg(0, 1))
	case 'E': // CNL
		e.moveTo(b, b.Cursor.Row+arg(0, 1), 0)
	case 'F': // CPL
		e.moveTo(b, b.Cursor.Row-arg(0, 1), 0)
	case 'G', '`': // CHA, HPA
		e.moveTo(b, b.Cursor.Row, arg(0, 1)-1)
	case 'H', 'f': // CUP, HVP
		e.moveAbsTo(b, arg(1, 1)-1, arg(0, 1)-1)
	case 'I': // CHT
		for i := 0; i < arg(0, 1); i++ {
			e.tab(b)
		}
	case 'J': // ED
		e.eraseInDisplay(b, rawArg(0, 0))
	case 'K': // EL
		e.eraseInLine(b, rawArg(0, 0))
	case 'L': // IL
		e.insertLines(b, arg(0, 1))
	case 'M': // DL
		e.deleteLines(b, arg(0, 1))
	case 'P': // DCH
		e.deleteChars(b, arg(0, 1))
	case 'S': // SU
		e.scrollUp(b, arg(0, 1))
	case 'T': // SD
		e.scrollDown(b, arg(0, 1))
	case 'X': // ECH
		e.eraseChars(b, arg(0, 1))
	case 'Z': // CBT
		for i := 0; i < arg(0, 1) && b.Cursor.Col > 0; i++ {
			b.Cursor.Col = ((b.Cursor.Col - 1) / 8) * 8
		}
	case 'd': // VPA
		e.moveTo(b, arg(0, 1)-1, b.Cursor.Col)
	case 'g': // TBC — tab stops unmodeled; accepted as a no-op.
	case 'h': // SM
		e.setModes(b, params, true)
	case 'l': // RM
		e.setModes(b, params, false)
	case 'm': // SGR
		e.setSGR(b, params)
	case 'n': // DSR / CPR
		e.deviceStatusReport(b, rawArg(0, 0))
	case 'r': // DECSTBM
		e.setScrollRegion(b, rawArg(0, 1), rawArg(1, b.rows))
	case 's': // DECSC (ANSI.SYS save cursor, non-private form)
		e.SaveCursor()
	case 'u': // DECRC (ANSI.SYS restore cursor)
		e.RestoreCursor()
	case 'c': // DA1
		e.deviceAttributes(rawArg(0, 0))
	}
}

func (e *Engine) csiPrivate(final byte, params []vtparser.Param) {
	switch final {
	case 'h':
		e.setPrivateModes(params, true)
	case 'l':
		e.setPrivateModes(params, false)
	}
}

// moveTo moves the cursor to an absolute row/col, clamped per the active
// origin-mode rules, and clears wrap-pending (any explicit cursor motion
// cancels a deferred wrap).
func (e *Engine) moveTo(b *Buffer, row, col int) {
	b.Cursor.Row = b.clampRow(row)
	b.Cursor.Col = b.clampCol(col)
	b.Cursor.WrapPending = false
}

// moveAbsTo implements CUP/HVP: with origin mode off, row/col are absolute
// screen coordinates; with origin mode on, they're relative to the scroll
// region's top-left (spec.md §8 boundary behaviour example).
func (e *Engine) moveAbsTo(b *Buffer, row, col int) {
	if b.Modes.Origin {
		row += b.ScrollTop
	}
	e.moveTo(b, row, col)
}

func (e *Engine) setScrollRegion(b *Buffer, top, bottom int) {
	top--
	if bottom <= 0 || bottom > b.rows {
		bottom = b.rows
	}
	bottom--
	if top < 0 {
		top = 0
	}
	if top >= bottom {
		top, bottom = 0, b.rows-1
	}
	b.ScrollTop, b.ScrollBot = top, bottom
	e.moveAbsTo(b, 0, 0)
}

func (e *Engine) deviceStatusReport(b *Buffer, kind int) {
	if e.PTYResponse == nil {
		return
	}
	switch kind {
	case 5:
		e.PTYResponse([]byte("\x1b[0n"))
	case 6:
		e.PTYResponse([]byte(csiResponse(b.Cursor.Row+1, b.Cursor.Col+1)))
	}
}

func (e *Engine) deviceAttributes(kind int) {
	if e.PTYResponse == nil || kind != 0 {
		return
	}
	e.PTYResponse([]byte("\x1b[?1;2c"))
}

func csiResponse(row, col int) string {
	return "\x1b[" + itoa(row) + ";" + itoa(col) + "R"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [12]byte
	i := len(buf)
	neg := n < 0
	if neg {
		n = -n
	}
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
