package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dnldd/candleview/coords"
	"github.com/dnldd/candleview/engine"
	"github.com/dnldd/candleview/fetch"
	"github.com/dnldd/candleview/geometry"
	"github.com/dnldd/candleview/render"
	"github.com/dnldd/candleview/scale"
	"github.com/dnldd/candleview/shared"
	"github.com/dnldd/candleview/viewport"
	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

const (
	// DefaultSyntheticCandles is the size of the generated dataset used without a data file.
	DefaultSyntheticCandles = 49072
	// statsWindow is the number of recent frames averaged in stats reports.
	statsWindow = 60
)

// ViewerConfig represents the configuration struct for the viewer service.
type ViewerConfig struct {
	// DataFile is the filepath to the candle data. A synthetic dataset is generated when empty.
	DataFile string
	// Strict rejects datasets with inconsistent candles.
	Strict bool
	// SyntheticCandles is the size of the generated dataset.
	SyntheticCandles int
	// Output is the filepath the final frame is written to.
	Output string
	// Format is the output image format.
	Format render.Format
	// Width and Height are the chart container size in pixels.
	Width  int
	Height int
	// CandleWidth is the initial candle width in pixels.
	CandleWidth float64
	// Visible, when positive, sizes candles so that many recent candles are shown on load.
	Visible int
	// Anchor is the zoom anchor policy.
	Anchor viewport.Anchor
	// ThemePath is the optional YAML theme filepath.
	ThemePath string
	// ShowGrid enables price gridlines.
	ShowGrid bool
	// Frames is the number of scripted interaction frames.
	Frames int
	// Realtime paces the session at the display frame rate instead of a simulated clock.
	Realtime bool
	// StatsInterval is the time between stats reports.
	StatsInterval time.Duration
}

// Validate asserts the config sane inputs.
func (cfg *ViewerConfig) Validate() error {
	var errs error

	if cfg.Output == "" {
		errs = errors.Join(errs, fmt.Errorf("output filepath cannot be an empty string"))
	}
	if cfg.DataFile == "" && cfg.SyntheticCandles <= 0 {
		errs = errors.Join(errs, fmt.Errorf("synthetic candle count must be positive without a data file"))
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		errs = errors.Join(errs, fmt.Errorf("chart size must be positive, got %dx%d", cfg.Width, cfg.Height))
	}
	if cfg.CandleWidth <= 0 {
		errs = errors.Join(errs, fmt.Errorf("candle width must be positive"))
	}
	if cfg.Visible < 0 {
		errs = errors.Join(errs, fmt.Errorf("visible candle count cannot be negative"))
	}
	if cfg.Frames < 0 {
		errs = errors.Join(errs, fmt.Errorf("frame count cannot be negative"))
	}
	if cfg.StatsInterval <= 0 {
		errs = errors.Join(errs, fmt.Errorf("stats interval must be positive"))
	}

	return errs
}

// Viewer represents a headless chart viewer service: it loads a dataset, drives a chart
// through a scripted pan and zoom session and writes the final frame to disk.
type Viewer struct {
	cfg          *ViewerConfig
	dataset      *shared.Dataset
	canvas       *render.Canvas
	chart        *engine.Chart
	driver       *engine.Driver
	jobScheduler *gocron.Scheduler
	logger       *zerolog.Logger
}

// NewViewer initializes a new viewer service.
func NewViewer(cfg *ViewerConfig) (*Viewer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating viewer config: %w", err)
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	logger := log.With().Str("service", "viewer").Logger()

	theme := render.DefaultTheme()
	if cfg.ThemePath != "" {
		var err error
		theme, err = render.LoadTheme(cfg.ThemePath)
		if err != nil {
			return nil, fmt.Errorf("loading theme: %v", err)
		}
	}

	fetchLogger := logger.With().Str("component", "fetch").Logger()
	dataset, err := loadDataset(cfg, &fetchLogger)
	if err != nil {
		return nil, err
	}

	canvasLogger := logger.With().Str("component", "canvas").Logger()
	canvas, err := render.NewCanvas(&render.CanvasConfig{
		Width:      cfg.Width,
		Height:     cfg.Height,
		Format:     cfg.Format,
		Background: theme.Background,
		Logger:     &canvasLogger,
	})
	if err != nil {
		logger.Error().Msgf("creating canvas: %v", err)
		return nil, fmt.Errorf("creating canvas: %w", err)
	}

	vpCfg := viewport.DefaultConfig()
	vpCfg.CandleWidth = cfg.CandleWidth
	vpCfg.DefaultVisibleCount = cfg.Visible
	vpCfg.Anchor = cfg.Anchor
	if vpCfg.CandleWidth > vpCfg.MaxCandleWidth {
		vpCfg.MaxCandleWidth = vpCfg.CandleWidth
	}

	chartLogger := logger.With().Str("component", "chart").Logger()
	chart, err := engine.NewChart(&engine.ChartConfig{
		Width:          float64(cfg.Width),
		Height:         float64(cfg.Height),
		Margins:        coords.Margins{Top: 10, Right: 10, Bottom: 10, Left: 10},
		DynamicMargins: true,
		Measurer:       render.NewFontMeasurer(),
		Font:           shared.FontSpec{Family: "basic", Size: 13},
		Scene:          canvas,
		Viewport:       vpCfg,
		Geometry: geometry.Config{
			BodyWidthRatio: geometry.DefaultBodyWidthRatio,
			MinBodyWidth:   geometry.DefaultMinBodyWidth,
			MinBodyHeight:  geometry.DefaultMinBodyHeight,
		},
		Style: geometry.Style{
			Wick:    shared.StrokeStyle{Color: theme.Wick, Width: theme.WickWidth},
			Bullish: theme.Bullish,
			Bearish: theme.Bearish,
		},
		GridStyle:       shared.StrokeStyle{Color: theme.Grid, Width: theme.GridWidth},
		ShowGrid:        cfg.ShowGrid,
		GridTicks:       engine.DefaultGridTicks,
		PaddingFraction: scale.DefaultPaddingFraction,
		VerticalPadding: scale.DefaultVerticalPadding,
		ReportMemory:    true,
		EmitMetrics: func(m shared.Metrics) {
			chartLogger.Debug().Msgf("frame: %.3fms, %d/%d candles from %d at %.3fpx, "+
				"%d draw calls, range %s", m.RenderTimeMs, m.VisibleCandles, m.TotalCandles,
				m.StartIndex, m.CandleWidthPx, m.DrawCalls, m.PriceRangeLabel)
		},
		Logger: &chartLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating chart: %v", err)
	}

	driverLogger := logger.With().Str("component", "driver").Logger()
	driver, err := engine.NewDriver(&engine.DriverConfig{
		Chart:          chart,
		FrameInterval:  engine.DefaultFrameInterval,
		ResizeDebounce: engine.DefaultResizeDebounce,
		OnResize: func(width float64, height float64) {
			if err := canvas.Resize(int(width), int(height)); err != nil {
				driverLogger.Error().Msgf("resizing canvas: %v", err)
			}
		},
		Logger: &driverLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating driver: %v", err)
	}

	viewer := &Viewer{
		cfg:          cfg,
		dataset:      dataset,
		canvas:       canvas,
		chart:        chart,
		driver:       driver,
		jobScheduler: gocron.NewScheduler(time.UTC),
		logger:       &logger,
	}

	_, err = viewer.jobScheduler.Every(cfg.StatsInterval).Do(viewer.logStats)
	if err != nil {
		return nil, fmt.Errorf("scheduling stats job: %v", err)
	}

	return viewer, nil
}

// loadDataset reads the configured data file, or generates a dataset without one.
func loadDataset(cfg *ViewerConfig, logger *zerolog.Logger) (*shared.Dataset, error) {
	if cfg.DataFile != "" {
		dataset, err := fetch.LoadDataset(&fetch.DatasetConfig{
			FilePath: cfg.DataFile,
			Strict:   cfg.Strict,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("loading dataset: %w", err)
		}

		return dataset, nil
	}

	dataset, err := fetch.GenerateDataset(&fetch.SyntheticConfig{
		Market:     "SYNTH",
		Count:      cfg.SyntheticCandles,
		StartPrice: 100,
		Volatility: 0.004,
		Start:      time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
		Interval:   time.Minute,
		Seed:       uint64(cfg.SyntheticCandles),
	})
	if err != nil {
		return nil, fmt.Errorf("generating dataset: %w", err)
	}

	logger.Info().Msgf("generated %d synthetic candles", dataset.Len())

	return dataset, nil
}

// Chart returns the chart driven by the viewer.
func (v *Viewer) Chart() *engine.Chart {
	return v.chart
}

// Driver returns the viewer's frame driver.
func (v *Viewer) Driver() *engine.Driver {
	return v.driver
}

// logStats reports the recent frame statistics.
func (v *Viewer) logStats() {
	stats := v.driver.Stats()
	snapshot := v.chart.Metrics()

	last := snapshot.Last()
	if last == nil {
		v.logger.Info().Msgf("no frames rendered yet, %d ticks", stats.Ticks)
		return
	}

	v.logger.Info().Msgf("frames: %d rendered, %d skipped, %d inputs coalesced; "+
		"avg render %.3fms over %d frames, %d fps, %dMB heap; showing %d/%d candles "+
		"from %d at %.3fpx, range %s", stats.Rendered, stats.Skipped, stats.Coalesced,
		snapshot.AverageRenderTimeN(statsWindow), min(snapshot.Count(), statsWindow),
		snapshot.FPS(time.Now()), last.MemoryUsageMB, last.VisibleCandles,
		last.TotalCandles, last.StartIndex, last.CandleWidthPx, last.PriceRangeLabel)
}

// writeOutput renders the canvas to the configured output file.
func (v *Viewer) writeOutput() error {
	f, err := os.Create(v.cfg.Output)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}

	if err := v.canvas.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("rendering %s: %w", v.cfg.Output, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output file: %w", err)
	}

	v.logger.Info().Msgf("wrote %dx%d %s frame to %s", v.cfg.Width, v.cfg.Height,
		v.cfg.Format, v.cfg.Output)

	return nil
}

// Run handles the lifecycle processes of the viewer service.
func (v *Viewer) Run(ctx context.Context) error {
	v.jobScheduler.StartAsync()
	defer v.jobScheduler.Stop()

	v.driver.SendDataset(v.dataset)

	var err error
	switch v.cfg.Realtime {
	case true:
		err = v.runRealtime(ctx)
	default:
		err = v.runSimulated(ctx)
	}
	if err != nil {
		return err
	}

	v.logStats()

	if err := v.writeOutput(); err != nil {
		return err
	}

	v.chart.Destroy()

	return nil
}

// runSimulated ticks the driver on a simulated clock, one frame interval per scripted
// frame, then lets pending resizes settle.
func (v *Viewer) runSimulated(ctx context.Context) error {
	script := newSession(v.cfg.Frames, float64(v.cfg.Width), float64(v.cfg.Height))
	now := time.Now()

	for frame := 0; frame < v.cfg.Frames; frame++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		script.step(frame, v.driver)
		v.driver.Tick(now)
		now = now.Add(engine.DefaultFrameInterval)
	}

	v.driver.Tick(now)
	for v.driver.ResizePending() {
		now = now.Add(engine.DefaultFrameInterval)
		v.driver.Tick(now)
	}

	return nil
}

// runRealtime runs the driver on its own frame loop and feeds it the scripted input at
// the display frame rate.
func (v *Viewer) runRealtime(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		v.driver.Run(runCtx)
		close(done)
	}()

	stop := func() {
		cancel()
		<-done
	}

	script := newSession(v.cfg.Frames, float64(v.cfg.Width), float64(v.cfg.Height))
	ticker := time.NewTicker(engine.DefaultFrameInterval)
	defer ticker.Stop()

	for frame := 0; frame < v.cfg.Frames; frame++ {
		select {
		case <-ctx.Done():
			stop()
			return ctx.Err()
		case <-ticker.C:
			script.step(frame, v.driver)
		}
	}

	// Give a trailing resize time to settle and render.
	select {
	case <-ctx.Done():
		stop()
		return ctx.Err()
	case <-time.After(engine.DefaultResizeDebounce + engine.DefaultFrameInterval*3):
	}

	stop()

	// The driver goroutine has exited, the chart can be read safely again.
	v.chart.Render()

	return nil
}
