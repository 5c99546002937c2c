package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"reflect"
	"strconv"

	"github.com/dnldd/candleview/render"
	"github.com/dnldd/candleview/shared"
	"github.com/dnldd/candleview/viewport"
	"github.com/joho/godotenv"
)

// Config is the configuration struct for the viewer.
type Config struct {
	// DataFile is the filepath to the candle data.
	DataFile string
	// Candles is the size of the generated dataset used without a data file.
	Candles int
	// Strict rejects datasets with inconsistent candles.
	Strict bool
	// Output is the filepath the final frame is written to.
	Output string
	// Format is the output image format, png or svg.
	Format string
	// Width and Height are the chart size in pixels.
	Width  int
	Height int
	// CandleWidth is the initial candle width in pixels.
	CandleWidth float64
	// Visible is the number of recent candles shown on load.
	Visible int
	// Anchor is the zoom anchor, right, center or cursor.
	Anchor string
	// Theme is the optional YAML theme filepath.
	Theme string
	// Grid enables price gridlines.
	Grid bool
	// Frames is the number of scripted interaction frames.
	Frames int
	// Realtime paces the session at the display frame rate.
	Realtime bool
	// StatsInterval is the number of seconds between stats reports.
	StatsInterval int
	// Debug enables debug logging.
	Debug bool

	registeredFlags map[string]bool
}

// Validate asserts the config sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	if cfg.DataFile == "" && cfg.Candles <= 0 {
		errs = errors.Join(errs, fmt.Errorf("candle count must be positive without a data file"))
	}
	if cfg.Output == "" {
		errs = errors.Join(errs, fmt.Errorf("output filepath cannot be an empty string"))
	}
	if _, err := render.ParseFormat(cfg.Format); err != nil {
		errs = errors.Join(errs, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		errs = errors.Join(errs, fmt.Errorf("chart size must be positive, got %dx%d", cfg.Width, cfg.Height))
	}
	if cfg.CandleWidth <= 0 {
		errs = errors.Join(errs, fmt.Errorf("candle width must be positive"))
	}
	if cfg.Visible < 0 {
		errs = errors.Join(errs, fmt.Errorf("visible candle count cannot be negative"))
	}
	if _, err := viewport.ParseAnchor(cfg.Anchor); err != nil {
		errs = errors.Join(errs, err)
	}
	if cfg.Frames < 0 {
		errs = errors.Join(errs, fmt.Errorf("frame count cannot be negative"))
	}
	if cfg.StatsInterval <= 0 {
		errs = errors.Join(errs, fmt.Errorf("stats interval must be positive"))
	}

	if errs != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidConfig, errs)
	}

	return nil
}

// registerFlag registers command line arguments of any type and tracks them to avoid reregistration.
// The environment value of the same name, or the fallback when unset, is the default.
func (cfg *Config) registerFlag(name string, value interface{}, fallback string, usage string) error {
	if cfg.registeredFlags == nil {
		cfg.registeredFlags = make(map[string]bool)
	}

	if cfg.registeredFlags[name] {
		return nil
	}

	cfg.registeredFlags[name] = true

	defValue := os.Getenv(name)
	if defValue == "" {
		defValue = fallback
	}
	val := reflect.ValueOf(value)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("%s: value must be a non-nil pointer", name)
	}

	switch val.Elem().Kind() {
	case reflect.String:
		flag.StringVar(value.(*string), name, defValue, usage)
	case reflect.Bool:
		var def bool
		if defValue != "" {
			def, _ = strconv.ParseBool(defValue)
		}
		flag.BoolVar(value.(*bool), name, def, usage)
	case reflect.Int:
		var def int
		if defValue != "" {
			def, _ = strconv.Atoi(defValue)
		}
		flag.IntVar(value.(*int), name, def, usage)
	case reflect.Float64:
		var def float64
		if defValue != "" {
			def, _ = strconv.ParseFloat(defValue, 64)
		}
		flag.Float64Var(value.(*float64), name, def, usage)
	default:
		return fmt.Errorf("%s: unsupported type", name)
	}

	return nil
}

// loadConfig loads the configuration from environment variables and command line flags.
func loadConfig(cfg *Config, path string) error {
	if path == "" {
		path = ".env"
	}

	// Check if the expected .env file exists before loading it.
	_, err := os.Stat(path)
	if err == nil {
		err := godotenv.Load(path)
		if err != nil {
			return fmt.Errorf("loading .env file: %w", err)
		}
	}

	flags := []struct {
		name     string
		value    interface{}
		fallback string
		usage    string
	}{
		{"datafile", &cfg.DataFile, "", "the candle data filepath, a synthetic dataset is generated when empty"},
		{"candles", &cfg.Candles, "49072", "the synthetic dataset size"},
		{"strict", &cfg.Strict, "false", "reject candles whose high/low do not bound open/close"},
		{"output", &cfg.Output, "chart.png", "the output image filepath"},
		{"format", &cfg.Format, "png", "the output image format (png|svg)"},
		{"width", &cfg.Width, "1280", "the chart width in pixels"},
		{"height", &cfg.Height, "720", "the chart height in pixels"},
		{"candlewidth", &cfg.CandleWidth, "8", "the initial candle width in pixels"},
		{"visible", &cfg.Visible, "0", "the number of recent candles shown on load"},
		{"anchor", &cfg.Anchor, "right", "the zoom anchor (right|center|cursor)"},
		{"theme", &cfg.Theme, "", "the yaml theme filepath"},
		{"grid", &cfg.Grid, "true", "draw price gridlines"},
		{"frames", &cfg.Frames, "240", "the number of scripted interaction frames"},
		{"realtime", &cfg.Realtime, "false", "pace the session at the display frame rate"},
		{"statsinterval", &cfg.StatsInterval, "5", "the seconds between stats reports"},
		{"debug", &cfg.Debug, "false", "enable debug logging"},
	}

	// Register command line arguments using loaded environment variables as defaults.
	for _, f := range flags {
		err = cfg.registerFlag(f.name, f.value, f.fallback, f.usage)
		if err != nil {
			return err
		}
	}

	// Parse command-line flags.
	flag.Parse()

	return cfg.Validate()
}
