// Package scale maps a visible window's price range to a padded domain and converts
// between prices and vertical pixel positions.
package scale

import (
	"math"

	"github.com/dnldd/candleview/shared"
	"github.com/shopspring/decimal"
)

const (
	// DefaultPaddingFraction is the fraction of the raw price range added to each side.
	DefaultPaddingFraction = 0.1
	// DefaultVerticalPadding is the fraction of the chart height reserved at the top and
	// bottom of the pixel mapping.
	DefaultVerticalPadding = 0.0125
)

// Range represents the price domain of a visible window.
type Range struct {
	// MinPrice and MaxPrice are the raw extremes of the window.
	MinPrice float64
	MaxPrice float64
	// PriceMin and PriceMax are the padded extremes.
	PriceMin  float64
	PriceMax  float64
	PriceDiff float64
}

// ComputeRange scans the open, high, low and close of every provided candle and returns
// the padded price range. Non-finite prices are ignored. An empty window (or one with no
// finite prices) returns the zero range.
func ComputeRange(candles []shared.Candlestick, paddingFraction float64) Range {
	minPrice := math.Inf(1)
	maxPrice := math.Inf(-1)

	fold := func(v float64) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return
		}
		if v < minPrice {
			minPrice = v
		}
		if v > maxPrice {
			maxPrice = v
		}
	}

	for idx := range candles {
		candle := &candles[idx]
		fold(candle.Open)
		fold(candle.High)
		fold(candle.Low)
		fold(candle.Close)
	}

	if minPrice > maxPrice {
		return Range{}
	}

	if paddingFraction < 0 || math.IsNaN(paddingFraction) {
		paddingFraction = 0
	}

	padding := (maxPrice - minPrice) * paddingFraction
	priceMin := minPrice - padding
	priceMax := maxPrice + padding

	return Range{
		MinPrice:  minPrice,
		MaxPrice:  maxPrice,
		PriceMin:  priceMin,
		PriceMax:  priceMax,
		PriceDiff: priceMax - priceMin,
	}
}

// IsDegenerate returns true if the range cannot be used as a divisor.
func (r Range) IsDegenerate() bool {
	return r.PriceDiff == 0 || math.IsNaN(r.PriceDiff) || math.IsInf(r.PriceDiff, 0)
}

// Label returns the raw range formatted for display, e.g. "8.00 - 14.00".
func (r Range) Label() string {
	places := labelPlaces(math.Max(math.Abs(r.MinPrice), math.Abs(r.MaxPrice)))
	min := decimal.NewFromFloat(r.MinPrice).StringFixed(places)
	max := decimal.NewFromFloat(r.MaxPrice).StringFixed(places)

	return min + " - " + max
}

// labelPlaces returns the number of decimal places used when labelling prices of the
// provided magnitude.
func labelPlaces(magnitude float64) int32 {
	switch {
	case magnitude >= 1:
		return 2
	case magnitude >= 0.01:
		return 4
	default:
		return 6
	}
}

// PriceToPixel converts the provided price to a vertical pixel position. Higher prices
// map closer to chartTop.
func PriceToPixel(price float64, r Range, chartTop float64, chartHeight float64) float64 {
	return chartTop + (r.PriceMax-price)/r.PriceDiff*chartHeight
}

// PixelToPrice converts the provided vertical pixel position to a price. It is the exact
// inverse of PriceToPixel.
func PixelToPrice(y float64, r Range, chartTop float64, chartHeight float64) float64 {
	return r.PriceMax - (y-chartTop)/chartHeight*r.PriceDiff
}

// Scale is the price to pixel mapping shared by every layer drawn in a frame.
type Scale struct {
	Range Range
	// Top and Height describe the chart area in pixels.
	Top    float64
	Height float64
	// VerticalPadding is the fraction of Height kept clear at the top and bottom.
	VerticalPadding float64
}

// New initializes a scale over the provided range and chart area.
func New(r Range, top float64, height float64, verticalPadding float64) *Scale {
	if verticalPadding < 0 || verticalPadding >= 0.5 {
		verticalPadding = 0
	}

	return &Scale{
		Range:           r,
		Top:             top,
		Height:          height,
		VerticalPadding: verticalPadding,
	}
}

// innerArea returns the padded drawing area of the scale.
func (s *Scale) innerArea() (float64, float64) {
	pad := s.Height * s.VerticalPadding
	return s.Top + pad, s.Height - 2*pad
}

// Usable returns true if the scale can map prices without dividing by zero.
func (s *Scale) Usable() bool {
	_, height := s.innerArea()
	return !s.Range.IsDegenerate() && height > 0
}

// PriceToPixel converts the provided price to a vertical pixel position.
func (s *Scale) PriceToPixel(price float64) float64 {
	top, height := s.innerArea()
	return PriceToPixel(price, s.Range, top, height)
}

// PixelToPrice converts the provided vertical pixel position to a price.
func (s *Scale) PixelToPrice(y float64) float64 {
	top, height := s.innerArea()
	return PixelToPrice(y, s.Range, top, height)
}
