package render

import (
	"github.com/dnldd/candleview/shared"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// FontMeasurer measures label text with the fixed 7x13 bitmap face, scaling the result
// linearly to the requested font size.
type FontMeasurer struct {
	drawer *font.Drawer
}

var _ shared.TextMeasurer = (*FontMeasurer)(nil)

// NewFontMeasurer initializes a new font measurer.
func NewFontMeasurer() *FontMeasurer {
	return &FontMeasurer{drawer: &font.Drawer{Face: basicfont.Face7x13}}
}

// FaceHeight returns the pixel height of the measuring face.
func (m *FontMeasurer) FaceHeight() float64 {
	return float64(basicfont.Face7x13.Height)
}

// Measure returns the width of the provided text in pixels.
func (m *FontMeasurer) Measure(text string, fontSpec shared.FontSpec) float64 {
	if text == "" {
		return 0
	}

	width := float64(m.drawer.MeasureString(text)) / 64
	if fontSpec.Size <= 0 {
		return width
	}

	return width * fontSpec.Size / m.FaceHeight()
}
