package scale

import (
	"testing"

	"github.com/peterldowns/testy/assert"
)

func TestNiceTicks(t *testing.T) {
	// Ensure invalid inputs produce no ticks.
	assert.Nil(t, NiceTicks(0, 10, 1))
	assert.Nil(t, NiceTicks(10, 10, 5))
	assert.Nil(t, NiceTicks(10, 5, 5))

	ticks := NiceTicks(7.4, 14.6, 6)
	assert.True(t, len(ticks) >= 2)
	assert.LessThanOrEqual(t, len(ticks), 8)

	// Ensure ticks are increasing, inside the range and evenly spaced.
	step := ticks[1] - ticks[0]
	for idx := range ticks {
		assert.True(t, ticks[idx] >= 7.4 && ticks[idx] <= 14.6)
		if idx > 0 {
			assert.True(t, approxEqual(ticks[idx]-ticks[idx-1], step))
		}
	}

	// Ensure the scale delegates to its padded range.
	s := New(Range{PriceMin: 100, PriceMax: 200, PriceDiff: 100}, 0, 400, 0)
	ticks = s.Ticks(5)
	assert.Equal(t, ticks[0], float64(100))
	assert.Equal(t, ticks[len(ticks)-1], float64(200))
}

func TestFormatTick(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{0, "0"},
		{1234.4, "1234"},
		{12.34, "12.3"},
		{7.456, "7.46"},
		{0.01234, "0.0123"},
	}

	for _, test := range tests {
		got := FormatTick(test.value)
		if got != test.want {
			t.Errorf("expected %v to format as %q, got %q", test.value, test.want, got)
		}
	}
}
