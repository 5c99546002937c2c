// Package viewport implements the pan and zoom state of a chart: which slice of the
// dataset is visible and how many pixels each candle occupies.
package viewport

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	// DefaultCandleWidth is the default candle width in pixels.
	DefaultCandleWidth = 8
	// DefaultMinCandleWidth is the absolute minimum candle width in pixels. The effective
	// minimum is usually governed by the chart width over the dataset size.
	DefaultMinCandleWidth = 0.01
	// DefaultMaxCandleWidth is the maximum candle width in pixels.
	DefaultMaxCandleWidth = 100
	// DefaultZoomFactor is the width multiplier applied per zoom-in wheel step.
	DefaultZoomFactor = 1.1
	// visibleEpsilon absorbs float error when deriving the visible count.
	visibleEpsilon = 1e-9
)

// Anchor represents the point kept fixed while zooming.
type Anchor int

const (
	// AnchorRight keeps the most recent visible candle fixed.
	AnchorRight Anchor = iota
	// AnchorCenter keeps the horizontal midpoint of the viewport fixed.
	AnchorCenter
	// AnchorCursor keeps the candle under the cursor fixed.
	AnchorCursor
)

// String stringifies the provided anchor.
func (a Anchor) String() string {
	switch a {
	case AnchorRight:
		return "right"
	case AnchorCenter:
		return "center"
	case AnchorCursor:
		return "cursor"
	default:
		return "unknown"
	}
}

// ParseAnchor parses the provided anchor name.
func ParseAnchor(s string) (Anchor, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "right":
		return AnchorRight, nil
	case "center":
		return AnchorCenter, nil
	case "cursor":
		return AnchorCursor, nil
	default:
		return AnchorRight, fmt.Errorf("unknown zoom anchor %q", s)
	}
}

// State represents the interaction state of the viewport.
type State int

const (
	Idle State = iota
	Dragging
)

// String stringifies the provided state.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// Config represents the viewport configuration.
type Config struct {
	// CandleWidth is the initial candle width in pixels.
	CandleWidth float64
	// MinCandleWidth is the absolute minimum candle width in pixels.
	MinCandleWidth float64
	// MaxCandleWidth is the maximum candle width in pixels.
	MaxCandleWidth float64
	// DefaultVisibleCount, when positive, sizes candles on data load so that this many
	// of the most recent candles are shown.
	DefaultVisibleCount int
	// Anchor is the zoom anchor policy.
	Anchor Anchor
	// ZoomFactor is the width multiplier per zoom-in wheel step; zooming out divides by it.
	ZoomFactor float64
}

// DefaultConfig returns the default viewport configuration.
func DefaultConfig() Config {
	return Config{
		CandleWidth:    DefaultCandleWidth,
		MinCandleWidth: DefaultMinCandleWidth,
		MaxCandleWidth: DefaultMaxCandleWidth,
		Anchor:         AnchorRight,
		ZoomFactor:     DefaultZoomFactor,
	}
}

// Validate asserts the config sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	if cfg.MinCandleWidth <= 0 {
		errs = errors.Join(errs, fmt.Errorf("min candle width must be positive"))
	}
	if cfg.MaxCandleWidth < cfg.MinCandleWidth {
		errs = errors.Join(errs, fmt.Errorf("max candle width cannot be less than min candle width"))
	}
	if cfg.CandleWidth < cfg.MinCandleWidth || cfg.CandleWidth > cfg.MaxCandleWidth {
		errs = errors.Join(errs, fmt.Errorf("candle width %v outside [%v, %v]",
			cfg.CandleWidth, cfg.MinCandleWidth, cfg.MaxCandleWidth))
	}
	if cfg.DefaultVisibleCount < 0 {
		errs = errors.Join(errs, fmt.Errorf("default visible count cannot be negative"))
	}
	if cfg.ZoomFactor <= 1 {
		errs = errors.Join(errs, fmt.Errorf("zoom factor must be greater than one"))
	}
	if cfg.Anchor < AnchorRight || cfg.Anchor > AnchorCursor {
		errs = errors.Join(errs, fmt.Errorf("unknown zoom anchor %d", cfg.Anchor))
	}

	return errs
}

// Viewport represents the pan and zoom state of one chart.
//
// A viewport is owned by a single goroutine; it is not safe for concurrent use.
type Viewport struct {
	cfg          Config
	startIndex   int
	candleWidth  float64
	chartWidth   float64
	marginLeft   float64
	total        int
	state        State
	lastPointerX float64
}

// New initializes a new viewport.
func New(cfg *Config) (*Viewport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating viewport config: %w", err)
	}

	return &Viewport{
		cfg:         *cfg,
		candleWidth: cfg.CandleWidth,
	}, nil
}

// StartIndex returns the first visible dataset index.
func (v *Viewport) StartIndex() int {
	return v.startIndex
}

// CandleWidth returns the current candle width in pixels.
func (v *Viewport) CandleWidth() float64 {
	return v.candleWidth
}

// ChartWidth returns the chart area width in pixels.
func (v *Viewport) ChartWidth() float64 {
	return v.chartWidth
}

// MarginLeft returns the left margin of the chart area in pixels.
func (v *Viewport) MarginLeft() float64 {
	return v.marginLeft
}

// Total returns the dataset size the viewport is bound to.
func (v *Viewport) Total() int {
	return v.total
}

// State returns the interaction state.
func (v *Viewport) State() State {
	return v.state
}

// Anchor returns the zoom anchor policy.
func (v *Viewport) Anchor() Anchor {
	return v.cfg.Anchor
}

// visibleCountFor returns the number of candle slots that fit the chart at the provided width.
func (v *Viewport) visibleCountFor(width float64) int {
	if width <= 0 || v.chartWidth <= 0 {
		return 0
	}

	return int(math.Floor(v.chartWidth/width + visibleEpsilon))
}

// VisibleCount returns the number of candle slots that fit the chart.
func (v *Viewport) VisibleCount() int {
	return v.visibleCountFor(v.candleWidth)
}

// EndIndex returns the exclusive end of the visible window, bounded by the dataset size.
func (v *Viewport) EndIndex() int {
	end := v.startIndex + v.VisibleCount()
	if end > v.total {
		end = v.total
	}

	return end
}

// MaxStartIndex returns the largest valid start index.
func (v *Viewport) MaxStartIndex() int {
	return max(0, v.total-v.VisibleCount())
}

// EffectiveMinWidth returns the smallest permitted candle width: wide enough that the
// full dataset exactly fits the chart, and never below the configured minimum.
func (v *Viewport) EffectiveMinWidth() float64 {
	floor := v.cfg.MinCandleWidth
	if v.total > 0 && v.chartWidth > 0 {
		floor = math.Max(floor, v.chartWidth/float64(v.total))
	}

	return math.Min(floor, v.cfg.MaxCandleWidth)
}

// MaxWidth returns the largest permitted candle width.
func (v *Viewport) MaxWidth() float64 {
	return v.cfg.MaxCandleWidth
}

// clampWidth bounds the provided width to the permitted range.
func (v *Viewport) clampWidth(width float64) float64 {
	return math.Min(math.Max(width, v.EffectiveMinWidth()), v.cfg.MaxCandleWidth)
}

// clampStart bounds the start index to the valid range.
func (v *Viewport) clampStart() {
	maxStart := v.MaxStartIndex()
	switch {
	case v.startIndex < 0:
		v.startIndex = 0
	case v.startIndex > maxStart:
		v.startIndex = maxStart
	}
}

// Reset binds the viewport to a dataset of the provided size and shows its most recent
// candles.
func (v *Viewport) Reset(total int) {
	v.total = max(0, total)
	v.state = Idle

	if v.cfg.DefaultVisibleCount > 0 && v.chartWidth > 0 {
		v.candleWidth = v.chartWidth / float64(v.cfg.DefaultVisibleCount)
	}

	v.candleWidth = v.clampWidth(v.candleWidth)
	v.startIndex = v.MaxStartIndex()
}

// SetChartArea updates the chart area after a resize, keeping the most recent visible
// candle anchored. It returns true if the visible window changed.
func (v *Viewport) SetChartArea(chartWidth float64, marginLeft float64) bool {
	chartWidth = math.Max(0, chartWidth)
	if chartWidth == v.chartWidth && marginLeft == v.marginLeft {
		return false
	}

	atLatest := v.startIndex >= v.MaxStartIndex()
	end := v.EndIndex()

	v.chartWidth = chartWidth
	v.marginLeft = marginLeft
	v.candleWidth = v.clampWidth(v.candleWidth)

	if atLatest {
		v.startIndex = v.MaxStartIndex()
	} else {
		v.startIndex = end - v.VisibleCount()
	}
	v.clampStart()

	return true
}

// PointerDown starts a drag at the provided horizontal position.
func (v *Viewport) PointerDown(x float64) {
	v.state = Dragging
	v.lastPointerX = x
}

// PointerUp ends a drag.
func (v *Viewport) PointerUp() {
	v.state = Idle
}

// PointerLeave ends a drag when the pointer leaves the chart.
func (v *Viewport) PointerLeave() {
	v.state = Idle
}

// PointerMove pans the viewport while dragging. Dragging right reveals older candles.
// It returns true only if the start index changed.
func (v *Viewport) PointerMove(x float64) bool {
	if v.state != Dragging || v.candleWidth <= 0 {
		return false
	}

	delta := int(math.Round((x - v.lastPointerX) / v.candleWidth))
	if delta == 0 {
		// Sub-candle movements accumulate against the anchor until they amount to a candle.
		return false
	}

	// The anchor advances by the whole candles applied so the remainder carries over.
	v.lastPointerX += float64(delta) * v.candleWidth
	return v.Pan(-delta)
}

// Pan moves the start index by the provided number of candles, clamped to the valid
// range. Positive deltas move toward more recent candles. It returns true if the start
// index changed.
func (v *Viewport) Pan(delta int) bool {
	prev := v.startIndex
	v.startIndex += delta
	v.clampStart()

	return v.startIndex != prev
}

// Wheel maps a wheel delta to a zoom step: negative deltas zoom in, positive deltas zoom
// out. It returns true if the candle width changed.
func (v *Viewport) Wheel(deltaY float64, cursorX float64) bool {
	switch {
	case deltaY < 0:
		return v.Zoom(v.cfg.ZoomFactor, cursorX)
	case deltaY > 0:
		return v.Zoom(1/v.cfg.ZoomFactor, cursorX)
	default:
		return false
	}
}

// Zoom multiplies the candle width by the provided factor, clamped to the permitted
// range, and repositions the window according to the anchor policy. It returns true if
// the candle width changed.
func (v *Viewport) Zoom(factor float64, cursorX float64) bool {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return false
	}

	prevWidth := v.candleWidth
	next := v.clampWidth(prevWidth * factor)
	if next == prevWidth {
		return false
	}

	prevStart := v.startIndex
	prevVisible := v.VisibleCount()

	switch v.cfg.Anchor {
	case AnchorCenter:
		center := float64(prevStart) + float64(prevVisible)/2
		v.candleWidth = next
		v.startIndex = int(math.Round(center - float64(v.VisibleCount())/2))

	case AnchorCursor:
		offset := math.Min(math.Max(cursorX-v.marginLeft, 0), v.chartWidth)
		world := float64(prevStart) + offset/prevWidth
		v.candleWidth = next
		v.startIndex = int(math.Round(world - offset/next))

	default:
		end := min(prevStart+prevVisible, v.total) - 1
		v.candleWidth = next
		v.startIndex = end - v.VisibleCount() + 1
	}

	v.clampStart()
	return true
}
