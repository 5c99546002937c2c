// Package coords maps dataset indices to horizontal pixel positions and lays out the
// chart area inside its container.
package coords

import (
	"math"

	"github.com/dnldd/candleview/shared"
)

// IndexToX returns the horizontal pixel position of the center of the candle at the
// provided index.
func IndexToX(index int, candleWidth float64, marginLeft float64) float64 {
	return marginLeft + (float64(index)+0.5)*candleWidth
}

// XToIndex returns the index of the candle slot containing the provided horizontal pixel
// position. It is the inverse of IndexToX. A non-positive candle width maps to zero.
func XToIndex(x float64, candleWidth float64, marginLeft float64) int {
	if candleWidth <= 0 {
		return 0
	}

	return int(math.Floor((x - marginLeft) / candleWidth))
}

// Mapper converts between local candle indices and horizontal pixels for one frame.
type Mapper struct {
	CandleWidth float64
	MarginLeft  float64
}

// IndexToX returns the candle center for the provided local index.
func (m Mapper) IndexToX(index int) float64 {
	return IndexToX(index, m.CandleWidth, m.MarginLeft)
}

// XToIndex returns the local index for the provided horizontal pixel position.
func (m Mapper) XToIndex(x float64) int {
	return XToIndex(x, m.CandleWidth, m.MarginLeft)
}

// Margins represents the space reserved around the chart area.
type Margins struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// Dimensions represents the laid out chart area.
type Dimensions struct {
	Margin      Margins
	ChartWidth  float64
	ChartHeight float64
}

// ComputeChartDimensions subtracts the provided margins from the container size. Negative
// sizes are clamped to zero.
func ComputeChartDimensions(containerWidth float64, containerHeight float64, margins Margins) Dimensions {
	return Dimensions{
		Margin:      margins,
		ChartWidth:  math.Max(0, containerWidth-margins.Left-margins.Right),
		ChartHeight: math.Max(0, containerHeight-margins.Top-margins.Bottom),
	}
}

// DynamicMargins widens the right (price axis) margin to fit the widest of the provided
// labels plus padding, and the bottom (time axis) margin to fit one line of text.
// The base margins act as minimums.
func DynamicMargins(measurer shared.TextMeasurer, labels []string, font shared.FontSpec, base Margins, padding float64) Margins {
	if measurer == nil {
		return base
	}

	var widest float64
	for idx := range labels {
		w := measurer.Measure(labels[idx], font)
		if w > widest {
			widest = w
		}
	}

	margins := base
	margins.Right = math.Max(base.Right, math.Ceil(widest+2*padding))
	if font.Size > 0 {
		margins.Bottom = math.Max(base.Bottom, math.Ceil(font.Size+2*padding))
	}

	return margins
}
