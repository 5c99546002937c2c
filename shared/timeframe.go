package shared

const (
	// DateLayout is the format layout for parsing candle dates.
	DateLayout = "2006-01-02 15:04:05"
	// DateOnlyLayout is the format layout for parsing daily candle dates.
	DateOnlyLayout = "2006-01-02"
)
