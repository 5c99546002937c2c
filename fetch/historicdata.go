// Package fetch loads candlestick datasets from JSON files.
package fetch

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/dnldd/candleview/shared"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// DatasetConfig represents the dataset source configuration.
type DatasetConfig struct {
	// FilePath is the filepath to the historic market data.
	FilePath string
	// Market names the dataset when the data does not.
	Market string
	// Strict rejects candles whose high and low do not bound their open and close.
	Strict bool
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *DatasetConfig) Validate() error {
	var errs error

	if cfg.FilePath == "" {
		errs = errors.Join(errs, fmt.Errorf("dataset filepath cannot be an empty string"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// loadHistoricData loads the historic data bytes from the provided file path.
func loadHistoricData(filepath string) ([]byte, error) {
	readb, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("reading historic data from file with path '%s': %v", filepath, err)
	}

	return readb, nil
}

// LoadDataset reads and parses the dataset at the configured file path.
func LoadDataset(cfg *DatasetConfig) (*shared.Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating dataset config: %w", err)
	}

	b, err := loadHistoricData(cfg.FilePath)
	if err != nil {
		return nil, fmt.Errorf("loading historic data: %w", err)
	}

	return ParseDataset(b, cfg)
}

// ParseDataset parses a dataset from the provided json. The data is either an array of
// candles or an object with a "market" name and a "candles" array. Candles are returned
// in chronological order.
func ParseDataset(data []byte, cfg *DatasetConfig) (*shared.Dataset, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("historic data is not valid json")
	}

	root := gjson.ParseBytes(data)
	market := cfg.Market

	var entries []gjson.Result
	switch {
	case root.IsArray():
		entries = root.Array()
	case root.IsObject():
		if name := root.Get("market").String(); name != "" {
			market = name
		}
		entries = root.Get("candles").Array()
	default:
		return nil, fmt.Errorf("unexpected historic data root type %s", root.Type)
	}

	if len(entries) == 0 {
		return nil, shared.ErrEmptyDataset
	}

	candles, err := ParseCandlesticks(entries)
	if err != nil {
		return nil, fmt.Errorf("parsing candlesticks: %w", err)
	}

	slices.SortStableFunc(candles, func(a, b shared.Candlestick) int {
		return a.Date.Compare(b.Date)
	})

	var inconsistent int
	for idx := range candles {
		candle := &candles[idx]
		if candle.IsConsistent() {
			continue
		}
		if cfg.Strict {
			return nil, fmt.Errorf("%w at index %d (%s): o=%v h=%v l=%v c=%v",
				shared.ErrInconsistentCandle, idx, candle.Date.Format(shared.DateLayout),
				candle.Open, candle.High, candle.Low, candle.Close)
		}
		inconsistent++
	}

	if inconsistent > 0 && cfg.Logger != nil {
		cfg.Logger.Warn().Msgf("%d of %d candles have a high/low that does not bound "+
			"their open/close", inconsistent, len(candles))
	}

	if cfg.Logger != nil {
		first := candles[0].Date
		last := candles[len(candles)-1].Date
		cfg.Logger.Info().Msgf("loaded %d %s candles covering %.2f hours, from %s, to %s",
			len(candles), market, last.Sub(first).Hours(),
			first.Format(time.RFC1123), last.Format(time.RFC1123))
	}

	return shared.NewDataset(market, candles), nil
}

// priceFields are the fields every candle must carry.
var priceFields = []string{"open", "high", "low", "close"}

// ParseCandlesticks parses candlesticks from the provided json data.
func ParseCandlesticks(data []gjson.Result) ([]shared.Candlestick, error) {
	candles := make([]shared.Candlestick, len(data))

	for idx := range data {
		entry := data[idx]
		for _, field := range priceFields {
			if !entry.Get(field).Exists() {
				return nil, fmt.Errorf("candle at index %d has no %s price", idx, field)
			}
		}

		candle := &candles[idx]
		candle.Open = entry.Get("open").Float()
		candle.Low = entry.Get("low").Float()
		candle.High = entry.Get("high").Float()
		candle.Close = entry.Get("close").Float()
		candle.Volume = entry.Get("volume").Float()

		date, err := parseDate(entry)
		if err != nil {
			return nil, fmt.Errorf("parsing date of candle at index %d: %w", idx, err)
		}
		candle.Date = date
	}

	return candles, nil
}

// parseDate reads the candle time from a "date" string, or a "timestamp" or "time" in
// unix milliseconds. A candle without any of them has the zero time.
func parseDate(entry gjson.Result) (time.Time, error) {
	if date := entry.Get("date"); date.Exists() {
		value := strings.TrimSpace(date.String())
		if dt, err := time.Parse(shared.DateLayout, value); err == nil {
			return dt, nil
		}
		if dt, err := time.Parse(shared.DateOnlyLayout, value); err == nil {
			return dt, nil
		}

		return time.Parse(time.RFC3339, value)
	}

	for _, key := range []string{"timestamp", "time"} {
		if ts := entry.Get(key); ts.Exists() {
			if ts.Type != gjson.Number {
				return time.Time{}, fmt.Errorf("%s is not a number: %s", key, ts.Raw)
			}

			return time.UnixMilli(ts.Int()).UTC(), nil
		}
	}

	return time.Time{}, nil
}
