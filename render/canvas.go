package render

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/dnldd/candleview/shared"
	"github.com/rs/zerolog"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// CanvasConfig represents the configuration of a canvas.
type CanvasConfig struct {
	// Width and Height are the canvas size in pixels.
	Width  int
	Height int
	// Format is the output image format.
	Format Format
	// Background is painted across the canvas before any path.
	Background drawing.Color
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *CanvasConfig) Validate() error {
	var errs error

	if cfg.Width <= 0 {
		errs = errors.Join(errs, fmt.Errorf("canvas width must be positive"))
	}
	if cfg.Height <= 0 {
		errs = errors.Join(errs, fmt.Errorf("canvas height must be positive"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// Canvas is a retained scene of paths rendered in insertion order.
type Canvas struct {
	cfg      *CanvasConfig
	provider chart.RendererProvider
	children []*Path
	width    int
	height   int
	logger   zerolog.Logger
	mtx      sync.RWMutex
}

var _ shared.Scene = (*Canvas)(nil)

// NewCanvas initializes a new canvas. It errors with shared.ErrBackendUnavailable if the
// renderer for the configured format cannot be created.
func NewCanvas(cfg *CanvasConfig) (*Canvas, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating canvas config: %w", err)
	}

	provider, err := cfg.Format.Provider()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrBackendUnavailable, err)
	}

	// Probe the backend once so a broken renderer fails at construction.
	if _, err := provider(cfg.Width, cfg.Height); err != nil {
		return nil, fmt.Errorf("%w: creating %s renderer: %w",
			shared.ErrBackendUnavailable, cfg.Format, err)
	}

	return &Canvas{
		cfg:      cfg,
		provider: provider,
		width:    cfg.Width,
		height:   cfg.Height,
		logger:   cfg.Logger.With().Str("component", "canvas").Logger(),
	}, nil
}

// NewPath creates a new drawable path.
func (c *Canvas) NewPath() (shared.Path, error) {
	return &Path{}, nil
}

// Add attaches the provided path to the canvas. Adding an attached path is a no-op.
func (c *Canvas) Add(path shared.Path) {
	p, ok := path.(*Path)
	if !ok {
		c.logger.Error().Msgf("unexpected path type %T", path)
		return
	}
	if p.Destroyed() {
		c.logger.Warn().Msg("ignoring destroyed path")
		return
	}

	c.mtx.Lock()
	defer c.mtx.Unlock()

	if slices.Contains(c.children, p) {
		return
	}
	c.children = append(c.children, p)
}

// Remove detaches the provided path from the canvas.
func (c *Canvas) Remove(path shared.Path) {
	p, ok := path.(*Path)
	if !ok {
		return
	}

	c.mtx.Lock()
	c.children = slices.DeleteFunc(c.children, func(child *Path) bool {
		return child == p
	})
	c.mtx.Unlock()
}

// Clear detaches all paths from the canvas.
func (c *Canvas) Clear() {
	c.mtx.Lock()
	c.children = c.children[:0]
	c.mtx.Unlock()
}

// Children returns the number of attached paths.
func (c *Canvas) Children() int {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	return len(c.children)
}

// Resize changes the canvas size.
func (c *Canvas) Resize(width int, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid canvas size %dx%d", width, height)
	}

	c.mtx.Lock()
	c.width = width
	c.height = height
	c.mtx.Unlock()

	return nil
}

// Size returns the canvas size in pixels.
func (c *Canvas) Size() (int, int) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	return c.width, c.height
}

// DrawCalls returns the number of draw calls recorded across attached paths.
func (c *Canvas) DrawCalls() int {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	var calls int
	for _, child := range c.children {
		calls += child.DrawCalls()
	}

	return calls
}

// Render paints the background and replays every attached path, writing the encoded
// image to the provided writer.
func (c *Canvas) Render(w io.Writer) error {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	r, err := c.provider(c.width, c.height)
	if err != nil {
		return fmt.Errorf("%w: creating %s renderer: %w",
			shared.ErrBackendUnavailable, c.cfg.Format, err)
	}

	r.SetFillColor(c.cfg.Background)
	r.SetStrokeColor(drawing.ColorTransparent)
	r.MoveTo(0, 0)
	r.LineTo(c.width, 0)
	r.LineTo(c.width, c.height)
	r.LineTo(0, c.height)
	r.Close()
	r.Fill()

	for _, child := range c.children {
		if child.Destroyed() {
			continue
		}
		child.replay(r)
	}

	if err := r.Save(w); err != nil {
		return fmt.Errorf("saving %s image: %w", c.cfg.Format, err)
	}

	return nil
}
