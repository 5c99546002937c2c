package engine

import (
	"context"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/rs/zerolog"
)

func setupDriver(t *testing.T, chart *Chart) *Driver {
	logger := zerolog.Nop()
	driver, err := NewDriver(&DriverConfig{
		Chart:          chart,
		FrameInterval:  DefaultFrameInterval,
		ResizeDebounce: DefaultResizeDebounce,
		Logger:         &logger,
	})
	assert.NoError(t, err)

	return driver
}

func TestDriverConfigValidate(t *testing.T) {
	logger := zerolog.Nop()
	chart := setupChart(t, testChartConfig(setupCanvas(t)))

	tests := []struct {
		name    string
		cfg     DriverConfig
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: DriverConfig{Chart: chart, FrameInterval: DefaultFrameInterval,
				ResizeDebounce: DefaultResizeDebounce, Logger: &logger},
			wantErr: false,
		},
		{
			name:    "missing chart",
			cfg:     DriverConfig{FrameInterval: DefaultFrameInterval, Logger: &logger},
			wantErr: true,
		},
		{
			name:    "zero frame interval",
			cfg:     DriverConfig{Chart: chart, Logger: &logger},
			wantErr: true,
		},
		{
			name: "negative debounce",
			cfg: DriverConfig{Chart: chart, FrameInterval: DefaultFrameInterval,
				ResizeDebounce: -time.Second, Logger: &logger},
			wantErr: true,
		},
	}

	for _, test := range tests {
		err := test.cfg.Validate()
		if (err != nil) != test.wantErr {
			t.Errorf("%s: expected error %v, got %v", test.name, test.wantErr, err)
		}
	}
}

func TestDriverCoalescesInput(t *testing.T) {
	chart := setupChart(t, testChartConfig(setupCanvas(t)))
	driver := setupDriver(t, chart)
	now := time.Now()

	driver.SendDataset(generateDataset(1000))
	outcome := driver.Tick(now)
	assert.Equal(t, outcome.Status, FrameRendered)
	assert.Equal(t, chart.Viewport().StartIndex(), 900)

	// Ensure an idle tick renders nothing.
	now = now.Add(DefaultFrameInterval)
	assert.Equal(t, driver.Tick(now).Status, FrameSkipped)

	// Ensure only the latest move of a drag is applied.
	driver.SendPointer(PointerEvent{Kind: PointerDown, X: 400})
	driver.SendPointer(PointerEvent{Kind: PointerMove, X: 410})
	driver.SendPointer(PointerEvent{Kind: PointerMove, X: 420})
	driver.SendPointer(PointerEvent{Kind: PointerMove, X: 480})
	driver.SendPointer(PointerEvent{Kind: PointerUp, X: 480})

	now = now.Add(DefaultFrameInterval)
	outcome = driver.Tick(now)
	assert.Equal(t, outcome.Status, FrameRendered)
	assert.Equal(t, chart.Viewport().StartIndex(), 890)
	assert.Equal(t, driver.Stats().Coalesced, uint64(2))

	// Ensure only the latest wheel step of a frame is applied.
	driver.SendWheel(WheelEvent{DeltaY: -1, CursorX: 400})
	driver.SendWheel(WheelEvent{DeltaY: -1, CursorX: 400})
	driver.SendWheel(WheelEvent{DeltaY: -1, CursorX: 400})

	now = now.Add(DefaultFrameInterval)
	outcome = driver.Tick(now)
	assert.Equal(t, outcome.Status, FrameRendered)
	assert.Equal(t, chart.Viewport().CandleWidth(), 8*1.1)
	assert.Equal(t, chart.Viewport().StartIndex(), 900)

	stats := driver.Stats()
	assert.Equal(t, stats.Ticks, uint64(4))
	assert.Equal(t, stats.Rendered, uint64(3))
	assert.Equal(t, stats.Skipped, uint64(1))
	assert.Equal(t, stats.Coalesced, uint64(4))
}

func TestDriverDebouncesResize(t *testing.T) {
	chart := setupChart(t, testChartConfig(setupCanvas(t)))
	driver := setupDriver(t, chart)
	start := time.Now()

	var resized []ResizeEvent
	driver.cfg.OnResize = func(width float64, height float64) {
		resized = append(resized, ResizeEvent{Width: width, Height: height})
	}

	driver.SendDataset(generateDataset(1000))
	driver.Tick(start)

	driver.SendResize(ResizeEvent{Width: 400, Height: 720})
	assert.True(t, driver.ResizePending())
	driver.Tick(start)
	assert.Equal(t, chart.Dimensions().ChartWidth, 800.0)

	driver.Tick(start.Add(time.Millisecond * 50))
	assert.Equal(t, chart.Dimensions().ChartWidth, 800.0)

	// Ensure a later resize restarts the quiet period.
	driver.SendResize(ResizeEvent{Width: 500, Height: 720})
	driver.Tick(start.Add(time.Millisecond * 50))
	driver.Tick(start.Add(time.Millisecond * 120))
	assert.Equal(t, chart.Dimensions().ChartWidth, 800.0)

	outcome := driver.Tick(start.Add(time.Millisecond * 150))
	assert.Equal(t, chart.Dimensions().ChartWidth, 500.0)
	assert.Equal(t, outcome.Status, FrameRendered)
	assert.Equal(t, outcome.Visible, 62)
	assert.Equal(t, resized, []ResizeEvent{{Width: 500, Height: 720}})
	assert.False(t, driver.ResizePending())
}

func TestDriverSendAtCapacity(t *testing.T) {
	chart := setupChart(t, testChartConfig(setupCanvas(t)))
	driver := setupDriver(t, chart)

	// Ensure sends never block when the queues are full.
	driver.SendDataset(sampleDataset())
	driver.SendDataset(generateDataset(10))
	for range bufferSize + 10 {
		driver.SendWheel(WheelEvent{DeltaY: 1})
	}

	assert.Equal(t, len(driver.wheels), bufferSize)

	driver.Tick(time.Now())
	assert.Equal(t, chart.Dataset().Len(), 3)
	assert.Equal(t, len(driver.wheels), 0)
}

func TestDriverRun(t *testing.T) {
	chart := setupChart(t, testChartConfig(setupCanvas(t)))
	logger := zerolog.Nop()
	driver, err := NewDriver(&DriverConfig{
		Chart:          chart,
		FrameInterval:  time.Millisecond,
		ResizeDebounce: DefaultResizeDebounce,
		Logger:         &logger,
	})
	assert.NoError(t, err)

	driver.SendDataset(sampleDataset())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		driver.Run(ctx)
		close(done)
	}()

	// Ensure the driver renders the dataset and terminates gracefully.
	deadline := time.After(time.Second * 2)
	for driver.Stats().Rendered < 1 {
		select {
		case <-deadline:
			t.Fatalf("expected the dataset frame to render")
		case <-time.After(time.Millisecond * 5):
		}
	}

	cancel()
	<-done

	assert.Equal(t, chart.Dataset().Len(), 3)
	assert.False(t, chart.NeedsRedraw())
}
