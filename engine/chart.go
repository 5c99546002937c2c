// Package engine drives chart frames: it owns the viewport, turns the visible window of
// a dataset into batched geometry on every redraw and reports per-frame metrics.
package engine

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/dnldd/candleview/coords"
	"github.com/dnldd/candleview/geometry"
	"github.com/dnldd/candleview/scale"
	"github.com/dnldd/candleview/shared"
	"github.com/dnldd/candleview/viewport"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// DefaultGridTicks is the default number of price gridlines.
	DefaultGridTicks = 6
	// DefaultLabelPadding is the horizontal and vertical padding around axis labels.
	DefaultLabelPadding = 6
	// DefaultMemorySampleFrames is the default number of frames between heap samples.
	DefaultMemorySampleFrames = 60
)

// FrameStatus describes what a render call produced.
type FrameStatus int

const (
	// FrameSkipped indicates nothing changed since the last drawn frame.
	FrameSkipped FrameStatus = iota
	// FrameRendered indicates candle geometry was submitted.
	FrameRendered
	// FrameEmpty indicates the visible window holds no candles.
	FrameEmpty
	// FrameDegenerate indicates the visible window has a flat price range.
	FrameDegenerate
)

// String stringifies the provided frame status.
func (s FrameStatus) String() string {
	switch s {
	case FrameSkipped:
		return "skipped"
	case FrameRendered:
		return "rendered"
	case FrameEmpty:
		return "empty"
	case FrameDegenerate:
		return "degenerate"
	default:
		return "unknown"
	}
}

// FrameOutcome represents the result of a render call.
type FrameOutcome struct {
	Status FrameStatus
	// DrawCalls is the number of draw calls submitted, gridlines included.
	DrawCalls int
	// Visible is the number of candles in the visible window.
	Visible int
	// Skipped is the number of visible candles left out for non-finite prices.
	Skipped int
	// Metrics is the record emitted for the frame, nil for skipped frames.
	Metrics *shared.Metrics
}

// ChartConfig represents the configuration of a chart.
type ChartConfig struct {
	// Width and Height are the container size in pixels.
	Width  float64
	Height float64
	// Margins are the static margins around the chart area.
	Margins coords.Margins
	// DynamicMargins sizes the right and bottom margins from measured label text.
	DynamicMargins bool
	// Measurer measures label text, required with DynamicMargins.
	Measurer shared.TextMeasurer
	// Font is the axis label font.
	Font shared.FontSpec
	// Scene is the rendering backend node the chart draws into.
	Scene shared.Scene
	// Viewport is the pan and zoom configuration.
	Viewport viewport.Config
	// Geometry is the candle geometry configuration.
	Geometry geometry.Config
	// Style is the candle paint.
	Style geometry.Style
	// GridStyle is the gridline paint.
	GridStyle shared.StrokeStyle
	// ShowGrid enables price gridlines.
	ShowGrid bool
	// GridTicks is the target number of gridlines.
	GridTicks int
	// PaddingFraction is the fraction of the price range padded on each side.
	PaddingFraction float64
	// VerticalPadding is the fraction of the chart height kept clear at the top and bottom.
	VerticalPadding float64
	// ReportMemory includes heap usage in frame metrics.
	ReportMemory bool
	// MemorySampleFrames is the number of frames between heap samples; frames in between
	// report the last sample. Defaults to DefaultMemorySampleFrames.
	MemorySampleFrames int
	// EmitMetrics receives the metrics of every produced frame.
	EmitMetrics func(m shared.Metrics)
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *ChartConfig) Validate() error {
	var errs error

	if cfg.Width < 0 || cfg.Height < 0 {
		errs = errors.Join(errs, fmt.Errorf("container size cannot be negative"))
	}
	if cfg.Scene == nil {
		errs = errors.Join(errs, fmt.Errorf("scene cannot be nil"))
	}
	if cfg.DynamicMargins && cfg.Measurer == nil {
		errs = errors.Join(errs, fmt.Errorf("text measurer cannot be nil with dynamic margins"))
	}
	if cfg.PaddingFraction < 0 {
		errs = errors.Join(errs, fmt.Errorf("padding fraction cannot be negative"))
	}
	if cfg.VerticalPadding < 0 || cfg.VerticalPadding >= 0.5 {
		errs = errors.Join(errs, fmt.Errorf("vertical padding must be in [0, 0.5)"))
	}
	if cfg.MemorySampleFrames < 0 {
		errs = errors.Join(errs, fmt.Errorf("memory sample frames cannot be negative"))
	}
	if cfg.ShowGrid && cfg.GridTicks <= 0 {
		errs = errors.Join(errs, fmt.Errorf("grid ticks must be positive"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}
	if err := cfg.Viewport.Validate(); err != nil {
		errs = errors.Join(errs, err)
	}

	return errs
}

// frameKey identifies the window a frame was drawn for.
type frameKey struct {
	start       int
	count       int
	candleWidth float64
	chartWidth  float64
	chartHeight float64
	marginLeft  float64
	marginTop   float64
	dataset     uint64
}

// Chart renders one candlestick chart instance into its scene.
//
// A chart is owned by a single goroutine; it is not safe for concurrent use.
type Chart struct {
	cfg         *ChartConfig
	id          string
	viewport    *viewport.Viewport
	batcher     *geometry.Batcher
	dataset     *shared.Dataset
	datasetRev  uint64
	width       float64
	height      float64
	dims        coords.Dimensions
	scale       *scale.Scale
	candlePath  shared.Path
	gridPath    shared.Path
	needsRedraw bool
	drawn       bool
	drawnKey    frameKey
	drawnData   *shared.Dataset
	metrics     *shared.MetricsSnapshot
	frames      uint64
	memoryMB    uint32
	memSamples  uint64
	destroyed   bool
	logger      zerolog.Logger
}

// NewChart initializes a new chart, creating its drawables in the configured scene.
func NewChart(cfg *ChartConfig) (*Chart, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating chart config: %w", err)
	}

	id := uuid.New().String()
	logger := cfg.Logger.With().Str("chart", id).Logger()

	if cfg.Geometry.Logger == nil {
		cfg.Geometry.Logger = &logger
	}
	batcher, err := geometry.NewBatcher(&cfg.Geometry)
	if err != nil {
		return nil, fmt.Errorf("creating batcher: %w", err)
	}

	vp, err := viewport.New(&cfg.Viewport)
	if err != nil {
		return nil, fmt.Errorf("creating viewport: %w", err)
	}

	metrics, err := shared.NewMetricsSnapshot(shared.MetricsSnapshotSize)
	if err != nil {
		return nil, fmt.Errorf("creating metrics snapshot: %w", err)
	}

	gridPath, err := cfg.Scene.NewPath()
	if err != nil {
		return nil, fmt.Errorf("creating grid path: %w", err)
	}
	candlePath, err := cfg.Scene.NewPath()
	if err != nil {
		gridPath.Destroy()
		return nil, fmt.Errorf("creating candle path: %w", err)
	}

	// Gridlines sit beneath the candles.
	cfg.Scene.Add(gridPath)
	cfg.Scene.Add(candlePath)

	c := &Chart{
		cfg:         cfg,
		id:          id,
		viewport:    vp,
		batcher:     batcher,
		width:       cfg.Width,
		height:      cfg.Height,
		gridPath:    gridPath,
		candlePath:  candlePath,
		metrics:     metrics,
		needsRedraw: true,
		logger:      logger,
	}

	c.layout()

	return c, nil
}

// ID returns the unique identifier of the chart.
func (c *Chart) ID() string {
	return c.id
}

// Viewport returns the chart's viewport for inspection.
func (c *Chart) Viewport() *viewport.Viewport {
	return c.viewport
}

// Dimensions returns the current chart layout.
func (c *Chart) Dimensions() coords.Dimensions {
	return c.dims
}

// Dataset returns the bound dataset.
func (c *Chart) Dataset() *shared.Dataset {
	return c.dataset
}

// Metrics returns the snapshot of recent frame metrics.
func (c *Chart) Metrics() *shared.MetricsSnapshot {
	return c.metrics
}

// NeedsRedraw returns true if a state change is pending a render.
func (c *Chart) NeedsRedraw() bool {
	return c.needsRedraw
}

// markDirty flags a redraw if the provided mutation changed the chart.
func (c *Chart) markDirty(changed bool) bool {
	if changed && !c.destroyed {
		c.needsRedraw = true
	}

	return changed
}

// axisLabels returns the formatted price labels the axis margin has to fit.
func (c *Chart) axisLabels() []string {
	r := scale.ComputeRange(c.dataset.Candles(), c.cfg.PaddingFraction)
	if r.IsDegenerate() {
		return nil
	}

	n := c.cfg.GridTicks
	if n <= 0 {
		n = DefaultGridTicks
	}

	ticks := scale.NiceTicks(r.PriceMin, r.PriceMax, n)
	labels := make([]string, 0, len(ticks)+2)
	for _, tick := range ticks {
		labels = append(labels, scale.FormatTick(tick))
	}
	labels = append(labels, scale.FormatTick(r.PriceMin), scale.FormatTick(r.PriceMax))

	return labels
}

// layout recomputes the chart area from the container size and margins. It returns true
// if the visible window changed.
func (c *Chart) layout() bool {
	margins := c.cfg.Margins
	if c.cfg.DynamicMargins && c.dataset.Len() > 0 {
		margins = coords.DynamicMargins(c.cfg.Measurer, c.axisLabels(), c.cfg.Font,
			margins, DefaultLabelPadding)
	}

	prev := c.dims
	c.dims = coords.ComputeChartDimensions(c.width, c.height, margins)
	changed := c.viewport.SetChartArea(c.dims.ChartWidth, c.dims.Margin.Left)

	return changed || prev != c.dims
}

// SetDataset binds the provided dataset and shows its most recent candles.
func (c *Chart) SetDataset(dataset *shared.Dataset) {
	if c.destroyed {
		return
	}

	c.dataset = dataset
	c.datasetRev++
	c.layout()
	c.viewport.Reset(dataset.Len())
	c.needsRedraw = true

	c.logger.Debug().Msgf("bound dataset with %d candles, showing %d from index %d",
		dataset.Len(), c.viewport.VisibleCount(), c.viewport.StartIndex())
}

// Resize updates the container size. It returns true if the layout changed.
func (c *Chart) Resize(width float64, height float64) bool {
	if c.destroyed {
		return false
	}

	width = math.Max(0, width)
	height = math.Max(0, height)
	if width == c.width && height == c.height {
		return false
	}

	c.width = width
	c.height = height

	return c.markDirty(c.layout())
}

// PointerDown starts a drag at the provided position.
func (c *Chart) PointerDown(x float64) {
	c.viewport.PointerDown(x)
}

// PointerMove pans the chart while dragging. It returns true if the window moved.
func (c *Chart) PointerMove(x float64) bool {
	return c.markDirty(c.viewport.PointerMove(x))
}

// PointerUp ends a drag.
func (c *Chart) PointerUp() {
	c.viewport.PointerUp()
}

// PointerLeave ends a drag when the pointer leaves the chart.
func (c *Chart) PointerLeave() {
	c.viewport.PointerLeave()
}

// Pan moves the window by the provided number of candles. It returns true if the window
// moved.
func (c *Chart) Pan(delta int) bool {
	return c.markDirty(c.viewport.Pan(delta))
}

// Wheel zooms by one step per the sign of the provided delta. It returns true if the
// candle width changed.
func (c *Chart) Wheel(deltaY float64, cursorX float64) bool {
	return c.markDirty(c.viewport.Wheel(deltaY, cursorX))
}

// Zoom multiplies the candle width by the provided factor. It returns true if the candle
// width changed.
func (c *Chart) Zoom(factor float64, cursorX float64) bool {
	return c.markDirty(c.viewport.Zoom(factor, cursorX))
}

// currentKey returns the key of the window the viewport currently shows.
func (c *Chart) currentKey() frameKey {
	return frameKey{
		start:       c.viewport.StartIndex(),
		count:       c.viewport.VisibleCount(),
		candleWidth: c.viewport.CandleWidth(),
		chartWidth:  c.dims.ChartWidth,
		chartHeight: c.dims.ChartHeight,
		marginLeft:  c.dims.Margin.Left,
		marginTop:   c.dims.Margin.Top,
		dataset:     c.datasetRev,
	}
}

// Render draws the visible window if a redraw is pending. Redundant calls, and calls for
// a window identical to the last drawn one, are skipped. Flat or empty windows clear the
// chart instead of drawing.
func (c *Chart) Render() FrameOutcome {
	if c.destroyed || !c.needsRedraw {
		return FrameOutcome{Status: FrameSkipped}
	}

	key := c.currentKey()
	if c.drawn && key == c.drawnKey {
		c.needsRedraw = false
		return FrameOutcome{Status: FrameSkipped}
	}

	started := time.Now()

	// The drawables are reused across frames; clearing them bounds memory to one frame.
	c.gridPath.Clear()
	c.candlePath.Clear()
	c.scale = nil

	visible := c.dataset.Slice(c.viewport.StartIndex(), c.viewport.VisibleCount())
	outcome := FrameOutcome{Visible: len(visible)}

	var r scale.Range
	switch {
	case len(visible) == 0:
		outcome.Status = FrameEmpty
		c.logger.Debug().Msgf("empty visible window at index %d", c.viewport.StartIndex())

	default:
		r = scale.ComputeRange(visible, c.cfg.PaddingFraction)
		if r.IsDegenerate() {
			outcome.Status = FrameDegenerate
			c.logger.Debug().Msgf("flat price range %v over %d candles, skipping geometry",
				r.MinPrice, len(visible))
			break
		}

		s := scale.New(r, c.dims.Margin.Top, c.dims.ChartHeight, c.cfg.VerticalPadding)
		if !s.Usable() {
			outcome.Status = FrameDegenerate
			c.logger.Debug().Msgf("chart area %vx%v too small to draw",
				c.dims.ChartWidth, c.dims.ChartHeight)
			break
		}
		c.scale = s

		if c.cfg.ShowGrid {
			outcome.DrawCalls += c.drawGrid(s)
		}

		mapper := coords.Mapper{
			CandleWidth: c.viewport.CandleWidth(),
			MarginLeft:  c.dims.Margin.Left,
		}
		batch := c.batcher.Batch(visible, s, mapper)
		outcome.DrawCalls += geometry.Submit(batch, c.candlePath, c.cfg.Style)
		outcome.Skipped = batch.Skipped
		outcome.Status = FrameRendered
	}

	c.needsRedraw = false
	c.drawn = true
	c.drawnKey = key
	c.drawnData = c.dataset

	outcome.Metrics = c.emitMetrics(started, r, outcome)

	return outcome
}

// drawGrid strokes the price gridlines through the provided scale in one draw call.
func (c *Chart) drawGrid(s *scale.Scale) int {
	ticks := s.Ticks(c.cfg.GridTicks)
	if len(ticks) == 0 {
		return 0
	}

	left := c.dims.Margin.Left
	right := left + c.dims.ChartWidth
	for _, tick := range ticks {
		y := s.PriceToPixel(tick)
		c.gridPath.MoveTo(left, y)
		c.gridPath.LineTo(right, y)
	}
	c.gridPath.Stroke(c.cfg.GridStyle)

	return 1
}

// emitMetrics records the metrics of a produced frame and relays them to the observer.
func (c *Chart) emitMetrics(started time.Time, r scale.Range, outcome FrameOutcome) *shared.Metrics {
	now := time.Now()

	m := &shared.Metrics{
		ChartID:        c.id,
		RenderTimeMs:   float64(now.Sub(started).Microseconds()) / 1000,
		VisibleCandles: uint32(outcome.Visible),
		TotalCandles:   uint32(c.dataset.Len()),
		CandleWidthPx:  c.viewport.CandleWidth(),
		StartIndex:     uint32(c.viewport.StartIndex()),
		DrawCalls:      uint32(outcome.DrawCalls),
		RenderedAt:     now,
	}

	if outcome.Visible > 0 {
		m.PriceRangeLabel = r.Label()
	}

	// Frames within the last second, this one included.
	m.FPS = c.metrics.FPS(now) + 1

	if c.cfg.ReportMemory {
		m.MemoryUsageMB = c.sampleMemory()
	}
	c.frames++

	c.metrics.Update(m)

	if c.cfg.EmitMetrics != nil {
		c.cfg.EmitMetrics(*m)
	}

	return m
}

// sampleMemory returns the heap usage in megabytes, reading it afresh on the first frame
// and every MemorySampleFrames frames after.
func (c *Chart) sampleMemory() uint32 {
	every := uint64(c.cfg.MemorySampleFrames)
	if every == 0 {
		every = DefaultMemorySampleFrames
	}

	if c.frames%every == 0 {
		var stats runtime.MemStats
		runtime.ReadMemStats(&stats)
		c.memoryMB = uint32(stats.HeapAlloc / (1 << 20))
		c.memSamples++
	}

	return c.memoryMB
}

// Crosshair represents the chart values under a pointer position.
type Crosshair struct {
	// Index is the dataset index under the pointer.
	Index int
	// Candle is the candle at Index, nil past either end of the dataset.
	Candle *shared.Candlestick
	// Price is the price at the pointer's vertical position.
	Price float64
}

// Crosshair returns the values under the provided pointer position as shown by the last
// drawn frame, ignoring pans, zooms and resizes not yet rendered. It returns false if the
// position is outside the drawn chart area or no frame with a usable scale has been drawn.
func (c *Chart) Crosshair(x float64, y float64) (Crosshair, bool) {
	if c.scale == nil || c.destroyed {
		return Crosshair{}, false
	}

	frame := c.drawnKey
	left := frame.marginLeft
	top := frame.marginTop
	if x < left || x >= left+frame.chartWidth || y < top || y > top+frame.chartHeight {
		return Crosshair{}, false
	}

	mapper := coords.Mapper{CandleWidth: frame.candleWidth, MarginLeft: left}
	index := frame.start + mapper.XToIndex(x)

	hair := Crosshair{
		Index: index,
		Price: c.scale.PixelToPrice(y),
	}
	if index >= 0 && index < c.drawnData.Len() {
		hair.Candle = &c.drawnData.Candles()[index]
	}

	return hair, true
}

// Destroy detaches and releases the chart's drawables. Destroying twice is a no-op.
func (c *Chart) Destroy() {
	if c.destroyed {
		return
	}

	c.cfg.Scene.Remove(c.candlePath)
	c.cfg.Scene.Remove(c.gridPath)
	c.candlePath.Destroy()
	c.gridPath.Destroy()

	c.destroyed = true
	c.needsRedraw = false
	c.scale = nil

	c.logger.Debug().Msg("chart destroyed")
}
