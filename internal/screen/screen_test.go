package screen

import (
	"testing"

	"github.com/dcosson/wshd/internal/vtparser"
)

func newTestEngine(cols, rows int) (*Engine, *vtparser.Parser) {
	e := New(cols, rows, 100)
	return e, vtparser.New(e)
}

func plain(b *Buffer) []string {
	out := make([]string, b.Rows())
	for i := 0; i < b.Rows(); i++ {
		out[i] = b.Line(i).Plain()
	}
	return out
}

func TestPrint_DeferredAutowrap(t *testing.T) {
	e, p := newTestEngine(5, 3)
	p.Feed([]byte("abcde"))

	b := e.Active()
	if !b.Cursor.WrapPending {
		t.Fatal("expected WrapPending after filling the last column, wrap not yet applied")
	}
	if b.Cursor.Row != 0 || b.Cursor.Col != b.Cols()-1 {
		t.Fatalf("cursor = (%d,%d), want (0,%d) with wrap deferred", b.Cursor.Row, b.Cursor.Col, b.Cols()-1)
	}

	p.Feed([]byte("f"))
	if b.Cursor.Row != 1 || b.Cursor.Col != 1 {
		t.Fatalf("cursor after next print = (%d,%d), want (1,1)", b.Cursor.Row, b.Cursor.Col)
	}
	lines := plain(b)
	if lines[0] != "abcde" || lines[1][:1] != "f" {
		t.Fatalf("lines = %v, want row0=abcde row1 starting with f", lines)
	}
}

func TestCUP_OriginModeClampsToScrollRegion(t *testing.T) {
	e, p := newTestEngine(10, 10)
	// DECSTBM rows 3-6 (1-based), then DECOM (origin mode) on.
	p.Feed([]byte("\x1b[3;6r\x1b[?6h"))

	b := e.Active()
	if b.ScrollTop != 2 || b.ScrollBot != 5 {
		t.Fatalf("scroll region = (%d,%d), want (2,5)", b.ScrollTop, b.ScrollBot)
	}

	// CUP to row 1, col 1 in origin-relative coordinates should land at the
	// scroll region's top row, not absolute row 0.
	p.Feed([]byte("\x1b[1;1H"))
	if b.Cursor.Row != b.ScrollTop {
		t.Fatalf("cursor row = %d, want scroll-region top %d under origin mode", b.Cursor.Row, b.ScrollTop)
	}

	// CUP past the bottom margin clamps to the region, not the screen.
	p.Feed([]byte("\x1b[20;1H"))
	if b.Cursor.Row != b.ScrollBot {
		t.Fatalf("cursor row = %d, want clamped to scroll-region bottom %d", b.Cursor.Row, b.ScrollBot)
	}
}

func TestEraseInDisplay3_ClearsScrollback(t *testing.T) {
	e, p := newTestEngine(10, 3)
	// Scroll the normal buffer's full-screen region several times so lines
	// get evicted into scrollback.
	for i := 0; i < 5; i++ {
		p.Feed([]byte("line\r\n"))
	}
	if e.Scrollback().Len() == 0 {
		t.Fatal("expected non-empty scrollback before ED 3")
	}

	p.Feed([]byte("\x1b[3J"))
	if e.Scrollback().Len() != 0 {
		t.Fatalf("scrollback len after ED 3 = %d, want 0", e.Scrollback().Len())
	}
}

func TestSGR_TrueColorAndIndexed256(t *testing.T) {
	e, p := newTestEngine(10, 2)
	p.Feed([]byte("\x1b[38;2;10;20;30mX"))
	b := e.Active()
	cellStyle := b.Line(0).Cells[0].Style
	if cellStyle.Fg.R != 10 || cellStyle.Fg.G != 20 || cellStyle.Fg.B != 30 {
		t.Fatalf("fg = %+v, want truecolor (10,20,30)", cellStyle.Fg)
	}

	p.Feed([]byte("\x1b[0m\x1b[48;5;196mY"))
	cellStyle2 := b.Line(0).Cells[1].Style
	if cellStyle2.Bg.Index != 196 {
		t.Fatalf("bg index = %d, want 196", cellStyle2.Bg.Index)
	}
}

func TestModes_SetAndReset(t *testing.T) {
	e, p := newTestEngine(10, 5)
	p.Feed([]byte("\x1b[?25l"))
	if e.Active().Cursor.Visible {
		t.Fatal("expected cursor hidden after CSI ?25l")
	}
	p.Feed([]byte("\x1b[?25h"))
	if !e.Active().Cursor.Visible {
		t.Fatal("expected cursor visible after CSI ?25h")
	}
}

func TestEnterExitAlt_PreservesDimensions(t *testing.T) {
	e, _ := newTestEngine(10, 5)
	e.EnterAlt(true, true)
	if e.Active().Cols() != 10 || e.Active().Rows() != 5 {
		t.Fatalf("alt dims = (%d,%d), want (10,5)", e.Active().Cols(), e.Active().Rows())
	}
	e.ExitAlt(true)
	if e.Mode() != ModeNormal {
		t.Fatal("expected normal mode after ExitAlt")
	}
}

func TestResize_ClampsCursorAndScrollRegion(t *testing.T) {
	e, p := newTestEngine(10, 10)
	p.Feed([]byte("\x1b[3;8r\x1b[8;8H"))
	e.Resize(10, 5)
	b := e.Active()
	if b.Cursor.Row > b.Rows()-1 {
		t.Fatalf("cursor row %d out of bounds after resize to %d rows", b.Cursor.Row, b.Rows())
	}
	if b.ScrollBot > b.Rows()-1 {
		t.Fatalf("ScrollBot %d out of bounds after resize to %d rows", b.ScrollBot, b.Rows())
	}
}
