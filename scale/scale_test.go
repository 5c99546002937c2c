package scale

import (
	"math"
	"testing"

	"github.com/dnldd/candleview/shared"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/peterldowns/testy/assert"
)

const epsilon = 1e-9

// approxEqual asserts the provided values are within a relative tolerance.
func approxEqual(a float64, b float64) bool {
	diff := math.Abs(a - b)
	return diff <= epsilon*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func sampleCandles() []shared.Candlestick {
	return []shared.Candlestick{
		{Open: 10, High: 12, Low: 9, Close: 11},
		{Open: 11, High: 14, Low: 10, Close: 13},
		{Open: 13, High: 13, Low: 8, Close: 9},
	}
}

func TestComputeRange(t *testing.T) {
	r := ComputeRange(sampleCandles(), 0.1)

	assert.Equal(t, r.MinPrice, float64(8))
	assert.Equal(t, r.MaxPrice, float64(14))
	assert.True(t, approxEqual(r.PriceMin, 7.4))
	assert.True(t, approxEqual(r.PriceMax, 14.6))
	assert.True(t, approxEqual(r.PriceDiff, 7.2))
	assert.False(t, r.IsDegenerate())
}

func TestComputeRangeEdgeCases(t *testing.T) {
	tests := []struct {
		name       string
		candles    []shared.Candlestick
		padding    float64
		want       Range
		degenerate bool
	}{
		{
			name:       "empty window returns the zero range",
			candles:    nil,
			padding:    0.1,
			want:       Range{},
			degenerate: true,
		},
		{
			name:    "flat window is degenerate",
			candles: []shared.Candlestick{{Open: 5, High: 5, Low: 5, Close: 5}, {Open: 5, High: 5, Low: 5, Close: 5}},
			padding: 0.1,
			want: Range{
				MinPrice: 5,
				MaxPrice: 5,
				PriceMin: 5,
				PriceMax: 5,
			},
			degenerate: true,
		},
		{
			name: "non-finite prices are ignored",
			candles: []shared.Candlestick{
				{Open: 10, High: math.NaN(), Low: 9, Close: 11},
				{Open: 11, High: 12, Low: math.Inf(-1), Close: 10},
			},
			padding: 0,
			want: Range{
				MinPrice:  9,
				MaxPrice:  12,
				PriceMin:  9,
				PriceMax:  12,
				PriceDiff: 3,
			},
		},
		{
			name:    "negative padding is treated as zero",
			candles: []shared.Candlestick{{Open: 1, High: 3, Low: 1, Close: 2}},
			padding: -1,
			want: Range{
				MinPrice:  1,
				MaxPrice:  3,
				PriceMin:  1,
				PriceMax:  3,
				PriceDiff: 2,
			},
		},
	}

	for _, test := range tests {
		got := ComputeRange(test.candles, test.padding)
		if got != test.want {
			t.Errorf("%s: expected range %+v, got %+v", test.name, test.want, got)
		}
		if got.IsDegenerate() != test.degenerate {
			t.Errorf("%s: expected degenerate %v, got %v", test.name, test.degenerate, got.IsDegenerate())
		}
	}
}

func TestComputeRangeLargeWindow(t *testing.T) {
	// Ensure very large windows are folded iteratively.
	candles := make([]shared.Candlestick, 500000)
	for idx := range candles {
		price := float64(idx%1000) + 100
		candles[idx] = shared.Candlestick{Open: price, High: price + 1, Low: price - 1, Close: price}
	}

	r := ComputeRange(candles, 0)
	assert.Equal(t, r.MinPrice, float64(99))
	assert.Equal(t, r.MaxPrice, float64(1100))
}

func TestRangeLabel(t *testing.T) {
	tests := []struct {
		name string
		r    Range
		want string
	}{
		{
			name: "equity prices",
			r:    Range{MinPrice: 8, MaxPrice: 14},
			want: "8.00 - 14.00",
		},
		{
			name: "sub-dollar prices",
			r:    Range{MinPrice: 0.0123, MaxPrice: 0.05},
			want: "0.0123 - 0.0500",
		},
		{
			name: "micro prices",
			r:    Range{MinPrice: 0.000012, MaxPrice: 0.000015},
			want: "0.000012 - 0.000015",
		},
	}

	for _, test := range tests {
		got := test.r.Label()
		if got != test.want {
			t.Errorf("%s: expected label %q, got %q", test.name, test.want, got)
		}
	}
}

func TestPriceToPixel(t *testing.T) {
	r := ComputeRange(sampleCandles(), 0.1)

	// Ensure the padded extremes map to the chart edges.
	assert.True(t, approxEqual(PriceToPixel(r.PriceMax, r, 20, 400), 20))
	assert.True(t, approxEqual(PriceToPixel(r.PriceMin, r, 20, 400), 420))

	// Ensure the midpoint maps to the vertical middle.
	mid := r.PriceMin + r.PriceDiff/2
	assert.True(t, approxEqual(PriceToPixel(mid, r, 20, 400), 220))
}

func TestScaleVerticalPadding(t *testing.T) {
	r := ComputeRange(sampleCandles(), 0)
	s := New(r, 0, 400, DefaultVerticalPadding)

	assert.True(t, s.Usable())
	assert.True(t, approxEqual(s.PriceToPixel(r.PriceMax), 5))
	assert.True(t, approxEqual(s.PriceToPixel(r.PriceMin), 395))
	assert.True(t, approxEqual(s.PixelToPrice(5), r.PriceMax))

	// Ensure invalid vertical padding is ignored.
	s = New(r, 0, 400, 0.75)
	assert.Equal(t, s.VerticalPadding, float64(0))

	// Ensure degenerate ranges and empty areas are unusable.
	assert.False(t, New(Range{}, 0, 400, 0).Usable())
	assert.False(t, New(r, 0, 0, 0).Usable())
}

func TestPriceRoundTripProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("PixelToPrice inverts PriceToPixel", prop.ForAll(
		func(price, priceMin, priceDiff, chartTop, chartHeight float64) bool {
			r := Range{PriceMin: priceMin, PriceMax: priceMin + priceDiff, PriceDiff: priceDiff}
			y := PriceToPixel(price, r, chartTop, chartHeight)
			got := PixelToPrice(y, r, chartTop, chartHeight)
			return math.Abs(got-price) <= 1e-6*math.Max(1, math.Abs(price)+math.Abs(priceMin)+priceDiff)
		},
		gen.Float64Range(-1e5, 1e5),
		gen.Float64Range(-1e5, 1e5),
		gen.Float64Range(0.01, 1e5),
		gen.Float64Range(0, 2000),
		gen.Float64Range(1, 4000),
	))

	properties.Property("scale round trip with vertical padding", prop.ForAll(
		func(price, chartHeight float64) bool {
			s := New(ComputeRange(sampleCandles(), 0.1), 10, chartHeight, DefaultVerticalPadding)
			got := s.PixelToPrice(s.PriceToPixel(price))
			return math.Abs(got-price) <= 1e-9*math.Max(1, math.Abs(price))
		},
		gen.Float64Range(0, 100),
		gen.Float64Range(10, 4000),
	))

	properties.TestingRun(t)
}
