package compositor

import (
	"github.com/mattn/go-runewidth"

	"github.com/dcosson/wshd/internal/cell"
	"github.com/dcosson/wshd/internal/screen"
)

// Composite builds the full rendered view a client sees: top panels (in
// registration order), the active screen buffer, bottom panels, with
// overlays painted atop the buffer region in registration order (spec.md
// §4.3 "Composite order": panels first, then base screen, then overlays).
// buf is the session's active buffer, already sized to the PTY's usable
// rows (totalRows - reserved panel rows); mode is the buffer's screen mode,
// used to filter elements tagged for the other mode.
func (c *Compositor) Composite(buf *screen.Buffer, mode screen.ScreenMode) []cell.Line {
	cols := buf.Cols()
	total := c.topPanelRows() + buf.Rows() + c.bottomPanelRows()
	out := make([]cell.Line, total)

	row := 0
	for _, p := range c.panels {
		if p.Position != EdgeTop || !modeMatches(p.ScreenMode, mode) {
			continue
		}
		c.renderPanel(out, row, cols, p)
		row += p.Height
	}

	ptyBase := row
	for r := 0; r < buf.Rows(); r++ {
		out[row+r] = buf.Line(r).Clone()
	}
	row += buf.Rows()

	for _, p := range c.panels {
		if p.Position != EdgeBottom || !modeMatches(p.ScreenMode, mode) {
			continue
		}
		c.renderPanel(out, row, cols, p)
		row += p.Height
	}

	for _, o := range c.overlays {
		if !modeMatches(o.ScreenMode, mode) {
			continue
		}
		c.renderOverlay(out, ptyBase, o)
	}

	return out
}

// modeMatches treats ModeNormal as "visible in both modes" (the zero value,
// so elements created without an explicit mode default to always-visible)
// and ModeAlt as "visible only while the alt screen is active".
func modeMatches(elementMode, active screen.ScreenMode) bool {
	return elementMode == screen.ModeNormal || elementMode == active
}

func (c *Compositor) renderPanel(out []cell.Line, baseRow, cols int, p *Panel) {
	for r := 0; r < p.Height; r++ {
		if p.Background != nil {
			out[baseRow+r] = cell.NewLineWithBg(cols, *p.Background)
		} else {
			out[baseRow+r] = cell.NewLine(cols)
		}
	}
	for _, s := range p.Spans {
		writeSpan(out, baseRow, 0, cols, s)
	}
}

// renderOverlay paints o atop out, whose PTY region starts at ptyBase. An
// opaque overlay (Background != nil) fills its rectangle before spans are
// written; a transparent one leaves the base cells showing through wherever
// no span covers them.
func (c *Compositor) renderOverlay(out []cell.Line, ptyBase int, o *Overlay) {
	if o.Background != nil {
		for r := 0; r < o.Height; r++ {
			row := ptyBase + o.Y + r
			if row < 0 || row >= len(out) {
				continue
			}
			line := out[row]
			for col := o.X; col < o.X+o.Width && col < len(line.Cells); col++ {
				if col < 0 {
					continue
				}
				line.Cells[col] = cell.BlankWithBg(*o.Background)
			}
		}
	}
	for _, s := range o.Spans {
		writeSpan(out, ptyBase+o.Y, o.X, o.X+o.Width, s)
	}
}

// writeSpan writes s.Text into out starting at (baseRow+s.Row, colOffset+s.Col),
// clipped to [colOffset, colLimit) and the output's row bounds. Wide runes
// (CJK labels, emoji) occupy two cells, with the second cell holding
// cell.WideTail to match the buffer's own wide-cell convention.
func writeSpan(out []cell.Line, baseRow, colOffset, colLimit int, s Span) {
	row := baseRow + s.Row
	if row < 0 || row >= len(out) {
		return
	}
	line := out[row]
	col := colOffset + s.Col
	for _, r := range s.Text {
		w := uint8(runewidth.RuneWidth(r))
		if w == 0 {
			w = 1
		}
		if col >= colLimit || col >= len(line.Cells) {
			break
		}
		if col >= 0 {
			line.Cells[col] = cell.Cell{Grapheme: string(r), Width: w, Style: s.Style}
		}
		if w == 2 && col+1 < colLimit && col+1 < len(line.Cells) {
			line.Cells[col+1] = cell.WideTail(s.Style)
		}
		col += int(w)
	}
}
