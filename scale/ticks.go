package scale

import (
	"fmt"
	"math"
)

// tickSteps are the preferred tick increments, scaled by a power of ten.
var tickSteps = []float64{1, 2, 2.5, 5, 10}

// Ticks returns up to n+2 gridline prices at "nice" increments that fall inside the
// padded range of the scale.
func (s *Scale) Ticks(n int) []float64 {
	return NiceTicks(s.Range.PriceMin, s.Range.PriceMax, n)
}

// NiceTicks generates tick values between min and max using nice increments.
func NiceTicks(min float64, max float64, n int) []float64 {
	if n < 2 || math.IsNaN(min) || math.IsNaN(max) || max <= min {
		return nil
	}

	span := max - min
	mag := math.Pow(10, math.Floor(math.Log10(span/float64(n-1))))
	if mag == 0 || math.IsInf(mag, 0) {
		return nil
	}

	bestStep := mag
	bestScore := math.MaxFloat64
	for _, c := range tickSteps {
		step := c * mag
		count := math.Ceil(span / step)
		if count < 2 {
			count = 2
		}
		score := math.Abs(count - float64(n))
		if score < bestScore {
			bestScore = score
			bestStep = step
		}
	}

	start := math.Ceil(min/bestStep) * bestStep
	ticks := make([]float64, 0, n+2)
	for v := start; v <= max && len(ticks) < n+2; v += bestStep {
		ticks = append(ticks, v)
	}

	return ticks
}

// FormatTick formats a tick value with precision suited to its magnitude.
func FormatTick(v float64) string {
	av := math.Abs(v)
	switch {
	case v == 0:
		return "0"
	case av >= 100:
		return fmt.Sprintf("%.0f", v)
	case av >= 10:
		return fmt.Sprintf("%.1f", v)
	case av >= 1:
		return fmt.Sprintf("%.2f", v)
	default:
		return fmt.Sprintf("%.4f", v)
	}
}
