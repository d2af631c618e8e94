package compositor

import (
	"testing"

	"github.com/dcosson/wshd/internal/cell"
	"github.com/dcosson/wshd/internal/screen"
)

func TestUsableRows(t *testing.T) {
	c := New()
	if got := c.UsableRows(24); got != 24 {
		t.Fatalf("UsableRows with no panels = %d, want 24", got)
	}
	if _, err := c.AddPanel(EdgeTop, 3, 24, nil, screen.ModeNormal); err != nil {
		t.Fatalf("AddPanel: %v", err)
	}
	if got := c.UsableRows(24); got != 21 {
		t.Fatalf("UsableRows with one 3-row panel = %d, want 21", got)
	}
}

func TestAddPanel_NoRoom(t *testing.T) {
	c := New()
	if _, err := c.AddPanel(EdgeTop, 24, 24, nil, screen.ModeNormal); err != ErrPanelNoRoom {
		t.Fatalf("AddPanel with full-height panel: err = %v, want ErrPanelNoRoom", err)
	}
}

func TestRemoveOverlay_ClearsFocus(t *testing.T) {
	c := New()
	o := c.AddOverlay(0, 0, 10, 3, nil, true, screen.ModeNormal)
	c.SetCapture(CaptureFocused, o.ID)

	if err := c.RemoveOverlay(o.ID); err != nil {
		t.Fatalf("RemoveOverlay: %v", err)
	}
	mode, _, hasFocus := c.Capture()
	if mode != CaptureAll || hasFocus {
		t.Fatalf("capture after removing focused overlay = (%v, hasFocus=%v), want capture/false", mode, hasFocus)
	}
}

func TestUpdateSpan_ReplacesNamed(t *testing.T) {
	c := New()
	p, err := c.AddPanel(EdgeBottom, 1, 24, nil, screen.ModeNormal)
	if err != nil {
		t.Fatalf("AddPanel: %v", err)
	}
	if err := c.UpdateSpan(p.ID, Span{Name: "status", Text: "idle"}); err != nil {
		t.Fatalf("UpdateSpan: %v", err)
	}
	if err := c.UpdateSpan(p.ID, Span{Name: "status", Text: "running"}); err != nil {
		t.Fatalf("UpdateSpan: %v", err)
	}
	if len(p.Spans) != 1 {
		t.Fatalf("len(Spans) = %d, want 1 (named span should replace, not append)", len(p.Spans))
	}
	if p.Spans[0].Text != "running" {
		t.Fatalf("Spans[0].Text = %q, want %q", p.Spans[0].Text, "running")
	}
}

func TestComposite_PanelsAndOverlay(t *testing.T) {
	c := New()
	bottom, err := c.AddPanel(EdgeBottom, 1, 5, nil, screen.ModeNormal)
	if err != nil {
		t.Fatalf("AddPanel: %v", err)
	}
	bottom.SetSpan(Span{Text: "status bar"})

	o := c.AddOverlay(2, 0, 4, 1, nil, false, screen.ModeNormal)
	o.SetSpan(Span{Text: "hi"})

	buf := testBuffer(4, 10)
	out := c.Composite(buf, screen.ModeNormal)

	if len(out) != 5 { // 4 PTY rows + 1 bottom panel row
		t.Fatalf("len(out) = %d, want 5", len(out))
	}
	if out[4].Plain() != "status bar" {
		t.Fatalf("panel row = %q, want %q", out[4].Plain(), "status bar")
	}
	if got := string(out[0].Cells[2].Grapheme) + string(out[0].Cells[3].Grapheme); got != "hi" {
		t.Fatalf("overlay cells = %q, want %q", got, "hi")
	}
}

func TestComposite_OpaqueOverlayFillsBackground(t *testing.T) {
	c := New()
	bg := cell.Indexed256(4)
	o := c.AddOverlay(0, 0, 3, 1, &bg, false, screen.ModeNormal)
	_ = o

	buf := testBuffer(2, 10)
	out := c.Composite(buf, screen.ModeNormal)
	for col := 0; col < 3; col++ {
		if out[0].Cells[col].Style.Bg != bg {
			t.Fatalf("cell %d background = %+v, want %+v", col, out[0].Cells[col].Style.Bg, bg)
		}
	}
}

func testBuffer(rows, cols int) *screen.Buffer {
	e := screen.New(cols, rows, 0)
	return e.Active()
}
