package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dnldd/candleview/shared"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

const (
	// bufferSize is the default buffer size for channels.
	bufferSize = 256
	// DefaultFrameInterval is the frame interval of a 60Hz display.
	DefaultFrameInterval = time.Second / 60
	// DefaultResizeDebounce is the quiet period required before a resize is applied.
	DefaultResizeDebounce = time.Millisecond * 100
)

// PointerKind represents the kind of a pointer event.
type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
	PointerLeave
)

// String stringifies the provided pointer kind.
func (k PointerKind) String() string {
	switch k {
	case PointerDown:
		return "down"
	case PointerMove:
		return "move"
	case PointerUp:
		return "up"
	case PointerLeave:
		return "leave"
	default:
		return "unknown"
	}
}

// PointerEvent represents a pointer input at a chart position.
type PointerEvent struct {
	Kind PointerKind
	X    float64
	Y    float64
}

// WheelEvent represents a wheel input at a horizontal cursor position.
type WheelEvent struct {
	DeltaY  float64
	CursorX float64
}

// ResizeEvent represents a container size change.
type ResizeEvent struct {
	Width  float64
	Height float64
}

// DriverConfig represents the configuration of a frame driver.
type DriverConfig struct {
	// Chart is the chart driven.
	Chart *Chart
	// FrameInterval is the time between frame ticks.
	FrameInterval time.Duration
	// ResizeDebounce is the quiet period required before a resize is applied.
	ResizeDebounce time.Duration
	// OnResize, if set, is called with the container size after a resize is applied.
	OnResize func(width float64, height float64)
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *DriverConfig) Validate() error {
	var errs error

	if cfg.Chart == nil {
		errs = errors.Join(errs, fmt.Errorf("chart cannot be nil"))
	}
	if cfg.FrameInterval <= 0 {
		errs = errors.Join(errs, fmt.Errorf("frame interval must be positive"))
	}
	if cfg.ResizeDebounce < 0 {
		errs = errors.Join(errs, fmt.Errorf("resize debounce cannot be negative"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// DriverStats represents the frame counters of a driver.
type DriverStats struct {
	Ticks     uint64
	Rendered  uint64
	Skipped   uint64
	Coalesced uint64
}

// Driver owns a chart and applies queued input to it once per frame tick. Pointer moves
// and wheel steps arriving within a frame are coalesced to the latest one; resizes are
// applied once they have been quiet for the debounce period.
//
// The Send methods are safe for concurrent use. Only the goroutine calling Tick, or Run,
// may touch the chart.
type Driver struct {
	cfg      *DriverConfig
	pointers chan PointerEvent
	wheels   chan WheelEvent
	resizes  chan ResizeEvent
	datasets chan *shared.Dataset

	pendingResize *ResizeEvent
	resizeDue     time.Time

	ticks     atomic.Uint64
	rendered  atomic.Uint64
	skipped   atomic.Uint64
	coalesced atomic.Uint64

	logger zerolog.Logger
}

// NewDriver initializes a new frame driver.
func NewDriver(cfg *DriverConfig) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating driver config: %w", err)
	}

	return &Driver{
		cfg:      cfg,
		pointers: make(chan PointerEvent, bufferSize),
		wheels:   make(chan WheelEvent, bufferSize),
		resizes:  make(chan ResizeEvent, bufferSize),
		datasets: make(chan *shared.Dataset, 1),
		logger:   cfg.Logger.With().Str("component", "driver").Logger(),
	}, nil
}

// SendPointer relays the provided pointer event for processing.
func (d *Driver) SendPointer(event PointerEvent) {
	select {
	case d.pointers <- event:
		// do nothing.
	default:
		d.logger.Error().Msgf("pointer channel at capacity: %d/%d",
			len(d.pointers), bufferSize)
	}
}

// SendWheel relays the provided wheel event for processing.
func (d *Driver) SendWheel(event WheelEvent) {
	select {
	case d.wheels <- event:
		// do nothing.
	default:
		d.logger.Error().Msgf("wheel channel at capacity: %d/%d",
			len(d.wheels), bufferSize)
	}
}

// SendResize relays the provided resize event for processing.
func (d *Driver) SendResize(event ResizeEvent) {
	select {
	case d.resizes <- event:
		// do nothing.
	default:
		d.logger.Error().Msgf("resize channel at capacity: %d/%d",
			len(d.resizes), bufferSize)
	}
}

// SendDataset relays the provided dataset for binding to the chart.
func (d *Driver) SendDataset(dataset *shared.Dataset) {
	select {
	case d.datasets <- dataset:
		// do nothing.
	default:
		d.logger.Error().Msgf("dataset channel at capacity: %d/%d",
			len(d.datasets), cap(d.datasets))
	}
}

// applyPointer applies the provided pointer event to the chart.
func (d *Driver) applyPointer(event PointerEvent) {
	chart := d.cfg.Chart

	switch event.Kind {
	case PointerDown:
		chart.PointerDown(event.X)
	case PointerMove:
		chart.PointerMove(event.X)
	case PointerUp:
		chart.PointerUp()
	case PointerLeave:
		chart.PointerLeave()
	default:
		d.logger.Error().Msgf("unknown pointer event kind %d", event.Kind)
	}
}

// drainPointers applies queued pointer events in order, collapsing each run of moves to
// its latest position.
func (d *Driver) drainPointers() {
	var move *PointerEvent

	for {
		select {
		case event := <-d.pointers:
			if event.Kind == PointerMove {
				if move != nil {
					d.coalesced.Inc()
				}
				move = &event
				continue
			}

			if move != nil {
				d.applyPointer(*move)
				move = nil
			}
			d.applyPointer(event)

		default:
			if move != nil {
				d.applyPointer(*move)
			}
			return
		}
	}
}

// drainWheels applies the latest queued wheel event.
func (d *Driver) drainWheels() {
	var latest *WheelEvent

	for {
		select {
		case event := <-d.wheels:
			if latest != nil {
				d.coalesced.Inc()
			}
			latest = &event

		default:
			if latest != nil {
				d.cfg.Chart.Wheel(latest.DeltaY, latest.CursorX)
			}
			return
		}
	}
}

// drainResizes keeps the latest queued resize and applies it once the debounce period
// has passed without another resize.
func (d *Driver) drainResizes(now time.Time) {
drain:
	for {
		select {
		case event := <-d.resizes:
			if d.pendingResize != nil {
				d.coalesced.Inc()
			}
			d.pendingResize = &event
			d.resizeDue = now.Add(d.cfg.ResizeDebounce)

		default:
			break drain
		}
	}

	if d.pendingResize != nil && !now.Before(d.resizeDue) {
		event := *d.pendingResize
		d.pendingResize = nil

		if d.cfg.Chart.Resize(event.Width, event.Height) && d.cfg.OnResize != nil {
			d.cfg.OnResize(event.Width, event.Height)
		}
	}
}

// drainDatasets binds the latest queued dataset.
func (d *Driver) drainDatasets() {
	select {
	case dataset := <-d.datasets:
		d.cfg.Chart.SetDataset(dataset)
	default:
		// do nothing.
	}
}

// Tick processes queued input and renders the chart if it needs a redraw.
func (d *Driver) Tick(now time.Time) FrameOutcome {
	d.ticks.Inc()

	d.drainDatasets()
	d.drainResizes(now)
	d.drainPointers()
	d.drainWheels()

	outcome := d.cfg.Chart.Render()
	switch outcome.Status {
	case FrameSkipped:
		d.skipped.Inc()
	default:
		d.rendered.Inc()
	}

	return outcome
}

// ResizePending returns true if a resize is waiting out its debounce period.
func (d *Driver) ResizePending() bool {
	return d.pendingResize != nil || len(d.resizes) > 0
}

// Stats returns the driver's frame counters.
func (d *Driver) Stats() DriverStats {
	return DriverStats{
		Ticks:     d.ticks.Load(),
		Rendered:  d.rendered.Load(),
		Skipped:   d.skipped.Load(),
		Coalesced: d.coalesced.Load(),
	}
}

// Run ticks the driver every frame interval until the provided context is cancelled.
func (d *Driver) Run(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.FrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case now := <-ticker.C:
			d.Tick(now)
		}
	}
}
