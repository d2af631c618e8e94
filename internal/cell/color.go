// Package cell defines the typed grid cell, style, and color model shared by
// the screen engine, scrollback ring, and compositor.
package cell

import "github.com/lucasb-eyer/go-colorful"

// ColorKind tags which variant of Color is populated.
type ColorKind uint8

const (
	ColorDefault ColorKind = iota
	ColorIndexed
	ColorIndexed256
	ColorTrueColor
)

// Color is a tagged union over the four ways a terminal can express a color:
// the implicit default, a 16-entry ANSI palette index, a 256-color palette
// index, or a direct 24-bit RGB triple (SGR 38/48;2).
type Color struct {
	Kind  ColorKind
	Index uint8 // valid for ColorIndexed (0-15) and ColorIndexed256 (0-255)
	R, G, B uint8 // valid for ColorTrueColor
}

// Default is the implicit foreground/background color.
var Default = Color{Kind: ColorDefault}

// Indexed builds a 16-color palette reference.
func Indexed(i uint8) Color { return Color{Kind: ColorIndexed, Index: i} }

// Indexed256 builds a 256-color palette reference.
func Indexed256(i uint8) Color { return Color{Kind: ColorIndexed256, Index: i} }

// TrueColor builds a direct RGB color.
func TrueColor(r, g, b uint8) Color { return Color{Kind: ColorTrueColor, R: r, G: g, B: b} }

// ansi256Palette is built once at package initialisation: the first 16
// entries are the standard ANSI palette, then the 6x6x6 color cube from the
// fixed channel steps 0/95/135/175/215/255, then the 24-step grayscale ramp
// (8, 18, ... 238).
var ansi256Palette = buildAnsi256Palette()

func buildAnsi256Palette() [256]colorful.Color {
	var p [256]colorful.Color
	base := [16][3]uint8{
		{0, 0, 0}, {205, 0, 0}, {0, 205, 0}, {205, 205, 0},
		{0, 0, 238}, {205, 0, 205}, {0, 205, 205}, {229, 229, 229},
		{127, 127, 127}, {255, 0, 0}, {0, 255, 0}, {255, 255, 0},
		{92, 92, 255}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
	}
	for i, rgb := range base {
		p[i], _ = colorful.MakeColor(rgbColor{rgb[0], rgb[1], rgb[2]})
	}
	steps := []uint8{0, 95, 135, 175, 215, 255}
	idx := 16
	for r := 0; r < 6; r++ {
		for g := 0; g < 6; g++ {
			for b := 0; b < 6; b++ {
				p[idx], _ = colorful.MakeColor(rgbColor{steps[r], steps[g], steps[b]})
				idx++
			}
		}
	}
	for i := 0; i < 24; i++ {
		v := uint8(8 + i*10)
		p[232+i], _ = colorful.MakeColor(rgbColor{v, v, v})
	}
	return p
}

// rgbColor adapts a plain RGB triple to color.Color for go-colorful's MakeColor.
type rgbColor struct{ r, g, b uint8 }

func (c rgbColor) RGBA() (r, g, b, a uint32) {
	r = uint32(c.r) * 0x101
	g = uint32(c.g) * 0x101
	b = uint32(c.b) * 0x101
	a = 0xffff
	return
}

// RGB resolves any Color variant to a concrete 8-bit RGB triple, using the
// ANSI-256 palette for indexed colors. ColorDefault resolves to the supplied
// fallback (typically the theme's fg/bg).
func (c Color) RGB(fallback [3]uint8) (r, g, b uint8) {
	switch c.Kind {
	case ColorTrueColor:
		return c.R, c.G, c.B
	case ColorIndexed, ColorIndexed256:
		rf, gf, bf := ansi256Palette[c.Index].RGB255()
		return rf, gf, bf
	default:
		return fallback[0], fallback[1], fallback[2]
	}
}
