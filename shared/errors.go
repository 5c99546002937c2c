package shared

import "errors"

var (
	// ErrBackendUnavailable is returned when a rendering context cannot be created.
	ErrBackendUnavailable = errors.New("rendering backend unavailable")
	// ErrEmptyDataset is returned when a dataset without candles is loaded.
	ErrEmptyDataset = errors.New("dataset has no candles")
	// ErrInvalidConfig is returned when a configuration fails validation.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrInconsistentCandle is returned when a candle's high/low do not bound its open/close.
	ErrInconsistentCandle = errors.New("inconsistent candle")
)
