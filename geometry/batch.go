// Package geometry converts a visible slice of candles into batched screen-space
// primitives and submits them to a rendering backend in a constant number of draw calls.
package geometry

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/davecgh/go-spew/spew"
	"github.com/dnldd/candleview/coords"
	"github.com/dnldd/candleview/scale"
	"github.com/dnldd/candleview/shared"
	"github.com/rs/zerolog"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	// DefaultBodyWidthRatio is the fraction of the candle slot covered by the body.
	DefaultBodyWidthRatio = 0.8
	// DefaultMinBodyWidth is the minimum body width in pixels.
	DefaultMinBodyWidth = 2
	// DefaultMinBodyHeight is the minimum body height in pixels, keeping doji candles visible.
	DefaultMinBodyHeight = 1
	// MaxDrawCalls is the number of draw calls a batch submission never exceeds.
	MaxDrawCalls = 3
)

// Segment represents a wick line at x spanning from the high to the low pixel.
type Segment struct {
	X     float64
	YHigh float64
	YLow  float64
}

// Rect represents a body rectangle with its top-left corner at (X, Y).
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// Batch represents the primitives of one frame, grouped by draw call.
type Batch struct {
	Wicks   []Segment
	Bullish []Rect
	Bearish []Rect
	// Skipped is the number of candles left out for having non-finite prices.
	Skipped int
}

// Reset empties the batch, keeping its capacity.
func (b *Batch) Reset() {
	b.Wicks = b.Wicks[:0]
	b.Bullish = b.Bullish[:0]
	b.Bearish = b.Bearish[:0]
	b.Skipped = 0
}

// Len returns the number of candles in the batch.
func (b *Batch) Len() int {
	return len(b.Wicks)
}

// Config represents the batcher configuration.
type Config struct {
	// BodyWidthRatio is the fraction of the candle slot covered by the body.
	BodyWidthRatio float64
	// MinBodyWidth is the minimum body width in pixels.
	MinBodyWidth float64
	// MinBodyHeight is the minimum body height in pixels.
	MinBodyHeight float64
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	if cfg.BodyWidthRatio <= 0 || cfg.BodyWidthRatio > 1 {
		errs = errors.Join(errs, fmt.Errorf("body width ratio must be in (0, 1]"))
	}
	if cfg.MinBodyWidth < 0 {
		errs = errors.Join(errs, fmt.Errorf("min body width cannot be negative"))
	}
	if cfg.MinBodyHeight <= 0 {
		errs = errors.Join(errs, fmt.Errorf("min body height must be positive"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// Batcher builds batches into a buffer reused across frames.
//
// The returned batch is only valid until the next call to Batch.
type Batcher struct {
	cfg   *Config
	batch Batch
}

// NewBatcher initializes a new batcher.
func NewBatcher(cfg *Config) (*Batcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating batcher config: %w", err)
	}

	return &Batcher{cfg: cfg}, nil
}

// Batch converts the visible candles into wick segments and bullish and bearish bodies in
// a single pass. Local index i of the slice is placed at mapper.IndexToX(i).
//
// An empty slice, or an unusable scale, produces an empty batch. Candles with non-finite
// prices are skipped.
func (b *Batcher) Batch(visible []shared.Candlestick, s *scale.Scale, mapper coords.Mapper) *Batch {
	batch := &b.batch
	batch.Reset()

	if len(visible) == 0 || s == nil || !s.Usable() || mapper.CandleWidth <= 0 {
		return batch
	}

	batch.Wicks = slices.Grow(batch.Wicks, len(visible))
	batch.Bullish = slices.Grow(batch.Bullish, len(visible))
	batch.Bearish = slices.Grow(batch.Bearish, len(visible))

	bodyWidth := math.Max(b.cfg.MinBodyWidth, mapper.CandleWidth*b.cfg.BodyWidthRatio)

	for idx := range visible {
		candle := &visible[idx]
		if !candle.IsFinite() {
			batch.Skipped++
			b.cfg.Logger.Warn().Msgf("skipping candle with non-finite prices at "+
				"local index %d: %s", idx, spew.Sdump(*candle))
			continue
		}

		x := mapper.IndexToX(idx)
		openY := s.PriceToPixel(candle.Open)
		closeY := s.PriceToPixel(candle.Close)
		highY := s.PriceToPixel(candle.High)
		lowY := s.PriceToPixel(candle.Low)

		batch.Wicks = append(batch.Wicks, Segment{X: x, YHigh: highY, YLow: lowY})

		body := Rect{
			X: x - bodyWidth/2,
			Y: math.Min(openY, closeY),
			W: bodyWidth,
			H: math.Max(b.cfg.MinBodyHeight, math.Abs(closeY-openY)),
		}

		// Equal open and close counts as bullish.
		if candle.IsBullish() {
			batch.Bullish = append(batch.Bullish, body)
		} else {
			batch.Bearish = append(batch.Bearish, body)
		}
	}

	return batch
}

// Style represents the paint used when submitting a batch.
type Style struct {
	Wick    shared.StrokeStyle
	Bullish drawing.Color
	Bearish drawing.Color
}

// Submit writes the batch to the provided path: one stroke over all wicks, one fill over
// all bullish bodies and one fill over all bearish bodies. Empty groups issue no draw
// call. It returns the number of draw calls issued.
func Submit(batch *Batch, path shared.Path, style Style) int {
	var calls int

	if len(batch.Wicks) > 0 {
		for idx := range batch.Wicks {
			wick := &batch.Wicks[idx]
			path.MoveTo(wick.X, wick.YHigh)
			path.LineTo(wick.X, wick.YLow)
		}
		path.Stroke(style.Wick)
		calls++
	}

	if len(batch.Bullish) > 0 {
		for idx := range batch.Bullish {
			body := &batch.Bullish[idx]
			path.Rect(body.X, body.Y, body.W, body.H)
		}
		path.Fill(style.Bullish)
		calls++
	}

	if len(batch.Bearish) > 0 {
		for idx := range batch.Bearish {
			body := &batch.Bearish[idx]
			path.Rect(body.X, body.Y, body.W, body.H)
		}
		path.Fill(style.Bearish)
		calls++
	}

	return calls
}
