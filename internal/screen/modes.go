package screen

import "github.com/dcosson/wshd/internal/vtparser"

// setModes implements ANSI (non-private) SM/RM. The only one this engine
// models is IRM (insert mode, 4); others are accepted and ignored.
func (e *Engine) setModes(b *Buffer, params []vtparser.Param, set bool) {
	for _, p := range params {
		if p.First(0) == 4 {
			b.Modes.Insert = set
		}
	}
}

// setPrivateModes implements DEC private SM/RM (CSI ? ... h/l), spec.md
// §4.2's "Mode set/reset" list.
func (e *Engine) setPrivateModes(params []vtparser.Param, set bool) {
	b := e.Active()
	for _, p := range params {
		switch p.First(0) {
		case 1: // DECCKM
			b.Modes.AppCursorKeys = set
		case 6: // DECOM
			b.Modes.Origin = set
			e.moveAbsTo(b, 0, 0)
		case 7: // DECAWM
			b.Modes.Autowrap = set
		case 25: // DECTCEM
			b.Cursor.Visible = set
		case 66: // DECNKM (application keypad)
			b.Modes.AppKeypad = set
		case 1000:
			b.Modes.MouseX10 = set
		case 1002:
			b.Modes.MouseButton = set
		case 1003:
			b.Modes.MouseAny = set
		case 1004:
			b.Modes.FocusEvents = set
		case 1006:
			b.Modes.MouseSGR = set
		case 1047:
			e.altBufTransition(set, false, true)
		case 1049:
			e.altBufTransition(set, true, true)
		case 2004:
			b.Modes.BracketedPaste = set
		}
	}
	e.mutated = true
}

// altBufTransition implements DECSET/DECRST 1047/1049: entering saves the
// cursor (1049 only) and clears the alt screen; leaving restores it.
func (e *Engine) altBufTransition(enter, saveCursor, clearOnEnter bool) {
	if enter {
		e.EnterAlt(saveCursor, clearOnEnter)
	} else {
		e.ExitAlt(saveCursor)
	}
}
