package window

import (
	"github.com/gdamore/tcell/v2"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Theme holds the window's visual configuration.
type Theme struct {
	Border tcell.Style
	Title  tcell.Style
	Header tcell.Style
	Text   tcell.Style
	Dim    tcell.Style

	// Heat ramp endpoints for count coloring.
	heatLow  colorful.Color
	heatHigh colorful.Color
}

// DefaultTheme returns the standard window theme with the given heat
// ramp hex colors. Unparsable hex values fall back to a blue/red ramp.
func DefaultTheme(heatLowHex, heatHighHex string) Theme {
	base := tcell.StyleDefault.Background(tcell.ColorReset).Foreground(tcell.ColorReset)

	low, err := colorful.Hex(heatLowHex)
	if err != nil {
		low, _ = colorful.Hex("#5f87af")
	}
	high, err := colorful.Hex(heatHighHex)
	if err != nil {
		high, _ = colorful.Hex("#ff5f5f")
	}

	return Theme{
		Border:   base.Foreground(tcell.ColorGray),
		Title:    base.Bold(true),
		Header:   base.Bold(true).Underline(true),
		Text:     base,
		Dim:      base.Foreground(tcell.ColorGray),
		heatLow:  low,
		heatHigh: high,
	}
}

// HeatStyle returns the count cell style for a count relative to the
// page maximum. The ramp is interpolated in Luv space so the midpoints
// stay perceptually even.
func (t Theme) HeatStyle(count, max uint64) tcell.Style {
	if max == 0 {
		return t.Text
	}
	frac := float64(count) / float64(max)
	if frac > 1 {
		frac = 1
	}
	c := t.heatLow.BlendLuv(t.heatHigh, frac).Clamped()
	r, g, b := c.RGB255()
	return t.Text.Foreground(tcell.NewRGBColor(int32(r), int32(g), int32(b)))
}
