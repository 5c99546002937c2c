package fetch

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/dnldd/candleview/shared"
)

// SyntheticConfig represents the configuration of a generated dataset.
type SyntheticConfig struct {
	// Market names the dataset.
	Market string
	// Count is the number of candles generated.
	Count int
	// StartPrice is the open of the first candle.
	StartPrice float64
	// Volatility is the standard deviation of the per-candle return.
	Volatility float64
	// Start is the date of the first candle.
	Start time.Time
	// Interval is the time between candles.
	Interval time.Duration
	// Seed makes generation reproducible.
	Seed uint64
}

// Validate asserts the config sane inputs.
func (cfg *SyntheticConfig) Validate() error {
	var errs error

	if cfg.Count <= 0 {
		errs = errors.Join(errs, fmt.Errorf("candle count must be positive"))
	}
	if cfg.StartPrice <= 0 {
		errs = errors.Join(errs, fmt.Errorf("start price must be positive"))
	}
	if cfg.Volatility < 0 {
		errs = errors.Join(errs, fmt.Errorf("volatility cannot be negative"))
	}
	if cfg.Interval <= 0 {
		errs = errors.Join(errs, fmt.Errorf("interval must be positive"))
	}

	return errs
}

// GenerateDataset creates a geometric random walk of consistent candles.
func GenerateDataset(cfg *SyntheticConfig) (*shared.Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating synthetic config: %w", err)
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	candles := make([]shared.Candlestick, cfg.Count)

	price := cfg.StartPrice
	for idx := range candles {
		open := price
		close := open * math.Exp(rng.NormFloat64()*cfg.Volatility)
		wick := open * cfg.Volatility * math.Abs(rng.NormFloat64()) / 2

		candles[idx] = shared.Candlestick{
			Open:   open,
			Close:  close,
			High:   math.Max(open, close) + wick,
			Low:    math.Max(0, math.Min(open, close)-wick),
			Volume: math.Round(1000 + rng.Float64()*9000),
			Date:   cfg.Start.Add(cfg.Interval * time.Duration(idx)),
		}

		price = close
	}

	return shared.NewDataset(cfg.Market, candles), nil
}
