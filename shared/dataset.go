package shared

// Dataset represents an ordered, immutable sequence of candlesticks.
//
// Candles are indexed 0..N-1 by chronological position. The dataset is owned by the
// loader and borrowed read-only by charts; slices handed out alias the backing array.
type Dataset struct {
	// Market is the market the candles belong to, if known.
	Market  string
	candles []Candlestick
}

// NewDataset initializes a new dataset over the provided candles. The candles are not copied.
func NewDataset(market string, candles []Candlestick) *Dataset {
	return &Dataset{
		Market:  market,
		candles: candles,
	}
}

// Len returns the number of candles in the dataset.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}

	return len(d.candles)
}

// Candles returns the full candle slice.
func (d *Dataset) Candles() []Candlestick {
	if d == nil {
		return nil
	}

	return d.candles
}

// Slice returns the candles in [start, start+count), clamped to the dataset bounds.
func (d *Dataset) Slice(start int, count int) []Candlestick {
	n := d.Len()
	if n == 0 || count <= 0 {
		return nil
	}

	if start < 0 {
		start = 0
	}
	if start >= n {
		return nil
	}

	end := start + count
	if end > n {
		end = n
	}

	return d.candles[start:end]
}
