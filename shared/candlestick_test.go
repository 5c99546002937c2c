package shared

import (
	"math"
	"testing"

	"github.com/peterldowns/testy/assert"
)

func TestFetchSentiment(t *testing.T) {
	tests := []struct {
		name   string
		candle Candlestick
		want   Sentiment
	}{
		{
			name: "doji candle",
			candle: Candlestick{
				Open:  5,
				Close: 5,
				High:  9,
				Low:   1,
			},
			want: Bullish,
		},
		{
			name: "bullish candle",
			candle: Candlestick{
				Open:  5,
				Close: 15,
				High:  20,
				Low:   1,
			},
			want: Bullish,
		},
		{
			name: "bearish candle",
			candle: Candlestick{
				Open:  15,
				Close: 5,
				High:  20,
				Low:   1,
			},
			want: Bearish,
		},
	}

	for _, test := range tests {
		sentiment := test.candle.FetchSentiment()
		if sentiment != test.want {
			t.Errorf("%s: expected %s sentiment, got %s",
				test.name, test.want.String(), sentiment.String())
		}
	}
}

func TestIsFinite(t *testing.T) {
	candle := Candlestick{Open: 1, High: 2, Low: 0.5, Close: 1.5}
	assert.True(t, candle.IsFinite())

	candle.High = math.NaN()
	assert.False(t, candle.IsFinite())

	candle.High = 2
	candle.Low = math.Inf(-1)
	assert.False(t, candle.IsFinite())
}

func TestIsConsistent(t *testing.T) {
	tests := []struct {
		name   string
		candle Candlestick
		want   bool
	}{
		{
			name:   "consistent candle",
			candle: Candlestick{Open: 10, High: 12, Low: 9, Close: 11},
			want:   true,
		},
		{
			name:   "high below close",
			candle: Candlestick{Open: 10, High: 10.5, Low: 9, Close: 11},
			want:   false,
		},
		{
			name:   "low above open",
			candle: Candlestick{Open: 10, High: 12, Low: 10.5, Close: 11},
			want:   false,
		},
		{
			name:   "flat candle",
			candle: Candlestick{Open: 10, High: 10, Low: 10, Close: 10},
			want:   true,
		},
	}

	for _, test := range tests {
		got := test.candle.IsConsistent()
		if got != test.want {
			t.Errorf("%s: expected consistency %v, got %v", test.name, test.want, got)
		}
	}
}
