package screen

import (
	"github.com/dcosson/wshd/internal/cell"
	"github.com/dcosson/wshd/internal/vtparser"
)

// setSGR mutates the current pen style (spec.md §4.2 "SGR"). Each param may
// itself carry colon-joined sub-params (38:2::r:g:b); semicolon-joined
// legacy extended-color forms (38;5;n and 38;2;r;g;b) are also accepted
// since that's what most real-world emitters still produce.
func (e *Engine) setSGR(b *Buffer, params []vtparser.Param) {
	if len(params) == 0 {
		b.Cursor.Style = cell.DefaultStyle
		return
	}
	s := &b.Cursor.Style
	for i := 0; i < len(params); i++ {
		p := params[i]
		v := p.First(0)
		if len(p) > 1 {
			// Colon sub-params only apply to 38/48; p itself is the source
			// of the extended-color fields, read by extendedColorFromSubparams.
			if v == 38 || v == 48 {
				col, ok := extendedColorFromSubparams(p)
				if ok {
					if v == 38 {
						s.Fg = col
					} else {
						s.Bg = col
					}
				}
				continue
			}
		}
		switch {
		case v == 0:
			*s = cell.DefaultStyle
		case v == 1:
			s.Attrs |= cell.AttrBold
		case v == 2:
			s.Attrs |= cell.AttrDim
		case v == 3:
			s.Attrs |= cell.AttrItalic
		case v == 4:
			s.Underline = cell.UnderlineSingle
			// SGR 4:3 (colon sub-param) selects curly underline.
			if len(p) > 1 && p.Sub(1, 0) == 3 {
				s.Underline = cell.UnderlineCurly
			}
		case v == 5 || v == 6:
			s.Attrs |= cell.AttrBlink
		case v == 7:
			s.Attrs |= cell.AttrReverse
		case v == 8:
			s.Attrs |= cell.AttrHidden
		case v == 9:
			s.Attrs |= cell.AttrStrike
		case v == 21:
			s.Underline = cell.UnderlineDouble
		case v == 22:
			s.Attrs &^= cell.AttrBold | cell.AttrDim
		case v == 23:
			s.Attrs &^= cell.AttrItalic
		case v == 24:
			s.Underline = cell.UnderlineNone
		case v == 25:
			s.Attrs &^= cell.AttrBlink
		case v == 27:
			s.Attrs &^= cell.AttrReverse
		case v == 28:
			s.Attrs &^= cell.AttrHidden
		case v == 29:
			s.Attrs &^= cell.AttrStrike
		case v >= 30 && v <= 37:
			s.Fg = cell.Indexed(uint8(v - 30))
		case v == 38:
			n := i
			col, consumed, ok := extendedColorFromParams(params, i)
			if ok {
				s.Fg = col
				i = n + consumed
			}
		case v == 39:
			s.Fg = cell.Default
		case v >= 40 && v <= 47:
			s.Bg = cell.Indexed(uint8(v - 40))
		case v == 48:
			n := i
			col, consumed, ok := extendedColorFromParams(params, i)
			if ok {
				s.Bg = col
				i = n + consumed
			}
		case v == 49:
			s.Bg = cell.Default
		case v >= 90 && v <= 97:
			s.Fg = cell.Indexed(uint8(v - 90 + 8))
		case v >= 100 && v <= 107:
			s.Bg = cell.Indexed(uint8(v - 100 + 8))
		}
	}
}

// extendedColorFromParams handles the semicolon-joined legacy forms
// "38;5;n" and "38;2;r;g;b" starting at params[i] (params[i] is the 38/48
// itself). Returns how many additional params were consumed.
func extendedColorFromParams(params []vtparser.Param, i int) (cell.Color, int, bool) {
	if i+1 >= len(params) {
		return cell.Color{}, 0, false
	}
	switch params[i+1].First(0) {
	case 5:
		if i+2 >= len(params) {
			return cell.Color{}, 0, false
		}
		return cell.Indexed256(uint8(params[i+2].First(0))), 2, true
	case 2:
		if i+4 >= len(params) {
			return cell.Color{}, 0, false
		}
		r := uint8(params[i+2].First(0))
		g := uint8(params[i+3].First(0))
		bl := uint8(params[i+4].First(0))
		return cell.TrueColor(r, g, bl), 4, true
	}
	return cell.Color{}, 0, false
}

// extendedColorFromSubparams handles the colon-joined form the param itself
// carries: "38:5:n" or "38:2::r:g:b" (the 4th field is a colorspace id,
// conventionally empty, per ITU T.416).
func extendedColorFromSubparams(p vtparser.Param) (cell.Color, bool) {
	if len(p) < 2 {
		return cell.Color{}, false
	}
	switch p[1] {
	case 5:
		if len(p) < 3 {
			return cell.Color{}, false
		}
		return cell.Indexed256(uint8(p[2])), true
	case 2:
		// Accept both "38:2:r:g:b" and "38:2::r:g:b" (empty colorspace id).
		vals := p[2:]
		if len(vals) >= 4 {
			vals = vals[1:]
		}
		if len(vals) < 3 {
			return cell.Color{}, false
		}
		return cell.TrueColor(uint8(vals[0]), uint8(vals[1]), uint8(vals[2])), true
	}
	return cell.Color{}, false
}
