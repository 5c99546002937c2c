package shared

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/atomic"
)

const (
	// MetricsSnapshotSize is the default number of frame metrics retained.
	MetricsSnapshotSize = 120
)

// Metrics represents the performance record emitted for a rendered frame.
type Metrics struct {
	ChartID         string
	RenderTimeMs    float64
	FPS             uint32
	MemoryUsageMB   uint32
	VisibleCandles  uint32
	TotalCandles    uint32
	CandleWidthPx   float64
	StartIndex      uint32
	PriceRangeLabel string
	DrawCalls       uint32
	RenderedAt      time.Time
}

// MetricsSnapshot represents a rolling snapshot of frame metrics.
type MetricsSnapshot struct {
	data    []*Metrics
	dataMtx sync.RWMutex
	start   atomic.Int32
	count   atomic.Int32
	size    atomic.Int32
}

// NewMetricsSnapshot initializes a new metrics snapshot.
func NewMetricsSnapshot(size int32) (*MetricsSnapshot, error) {
	if size < 0 {
		return nil, errors.New("snapshot size cannot be negative")
	}
	if size == 0 {
		return nil, errors.New("snapshot size cannot be zero")
	}

	snapshot := &MetricsSnapshot{
		data: make([]*Metrics, size),
	}

	snapshot.size.Store(size)
	return snapshot, nil
}

// Update adds the provided metrics to the snapshot.
func (s *MetricsSnapshot) Update(m *Metrics) {
	s.dataMtx.Lock()
	defer s.dataMtx.Unlock()

	start := s.start.Load()
	count := s.count.Load()
	size := s.size.Load()
	end := (start + count) % size
	s.data[end] = m

	if count == size {
		// Overwrite the oldest entry when the snapshot is at capacity.
		s.start.Store((start + 1) % size)
	} else {
		s.count.Add(1)
	}
}

// Count returns the number of entries in the snapshot.
func (s *MetricsSnapshot) Count() int32 {
	return s.count.Load()
}

// Last returns the last added entry for the snapshot.
func (s *MetricsSnapshot) Last() *Metrics {
	s.dataMtx.RLock()
	defer s.dataMtx.RUnlock()

	start := s.start.Load()
	count := s.count.Load()
	size := s.size.Load()
	if count == 0 {
		return nil
	}

	end := (start + count - 1) % size
	return s.data[end]
}

// LastN fetches the last n number of elements from the snapshot, oldest first.
func (s *MetricsSnapshot) LastN(n int32) []*Metrics {
	s.dataMtx.RLock()
	defer s.dataMtx.RUnlock()

	if n <= 0 {
		return nil
	}

	start := s.start.Load()
	count := s.count.Load()
	size := s.size.Load()

	// Clamp the number of elements expected if it is greater than the snapshot count.
	if n > count {
		n = count
	}

	set := make([]*Metrics, n)
	start = (start + count - n + size) % size

	for i := range n {
		idx := (start + i) % size
		set[i] = s.data[idx]
	}

	return set
}

// FPS returns the number of frames rendered within the second preceding now.
func (s *MetricsSnapshot) FPS(now time.Time) uint32 {
	set := s.LastN(s.count.Load())
	cutoff := now.Add(-time.Second)

	var frames uint32
	for idx := len(set) - 1; idx >= 0; idx-- {
		if !set[idx].RenderedAt.After(cutoff) {
			break
		}
		if set[idx].RenderedAt.After(now) {
			continue
		}
		frames++
	}

	return frames
}

// AverageRenderTimeN returns the average render time of the last n frames in milliseconds.
func (s *MetricsSnapshot) AverageRenderTimeN(n int32) float64 {
	set := s.LastN(n)
	if len(set) == 0 {
		return 0
	}

	var sum float64
	for idx := range set {
		sum += set[idx].RenderTimeMs
	}

	return sum / float64(len(set))
}
