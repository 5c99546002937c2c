package shared

import (
	"math"
	"time"
)

// Sentiment represents the candlestick sentiment.
type Sentiment int

const (
	Bullish Sentiment = iota
	Bearish
)

// String stringifies the provided sentiment.
func (s Sentiment) String() string {
	switch s {
	case Bullish:
		return "bullish"
	case Bearish:
		return "bearish"
	default:
		return "unknown"
	}
}

// Candlestick represents a unit candlestick of a dataset.
type Candlestick struct {
	Open   float64
	Low    float64
	High   float64
	Close  float64
	Volume float64
	Date   time.Time
}

// FetchSentiment returns the provided candlestick's sentiment.
//
// A candle whose close equals its open is classified bullish.
func (c *Candlestick) FetchSentiment() Sentiment {
	if c.Close >= c.Open {
		return Bullish
	}

	return Bearish
}

// IsBullish returns true if the candle closed at or above its open.
func (c *Candlestick) IsBullish() bool {
	return c.FetchSentiment() == Bullish
}

// IsFinite returns true if all price fields of the candle are finite.
func (c *Candlestick) IsFinite() bool {
	return isFinite(c.Open) && isFinite(c.High) && isFinite(c.Low) && isFinite(c.Close)
}

// IsConsistent asserts the high and low of the candle bound its open and close.
func (c *Candlestick) IsConsistent() bool {
	return c.Low <= math.Min(c.Open, c.Close) && c.High >= math.Max(c.Open, c.Close)
}

// isFinite returns true if the provided value is neither NaN nor infinite.
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
