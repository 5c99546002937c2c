package render

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"
	"gopkg.in/yaml.v3"
)

// Theme represents the chart palette.
type Theme struct {
	Background drawing.Color
	Wick       drawing.Color
	Bullish    drawing.Color
	Bearish    drawing.Color
	Grid       drawing.Color
	WickWidth  float64
	GridWidth  float64
}

// DefaultTheme returns the dark palette used when no theme file is provided.
func DefaultTheme() Theme {
	return Theme{
		Background: drawing.ColorFromHex("131722"),
		Wick:       drawing.ColorFromHex("8c8c8c"),
		Bullish:    drawing.ColorFromHex("26a69a"),
		Bearish:    drawing.ColorFromHex("ef5350"),
		Grid:       drawing.ColorFromHex("2a2e39"),
		WickWidth:  1,
		GridWidth:  1,
	}
}

// themeFile is the on-disk theme layout. Omitted keys keep their default.
type themeFile struct {
	Background string   `yaml:"background"`
	Wick       string   `yaml:"wick"`
	Bullish    string   `yaml:"bullish"`
	Bearish    string   `yaml:"bearish"`
	Grid       string   `yaml:"grid"`
	WickWidth  *float64 `yaml:"wick_width"`
	GridWidth  *float64 `yaml:"grid_width"`
}

// parseHexColor parses a 3 or 6 digit hex color, with or without a leading '#'.
func parseHexColor(value string) (drawing.Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(hex) != 3 && len(hex) != 6 {
		return drawing.Color{}, fmt.Errorf("invalid hex color %q", value)
	}
	if _, err := strconv.ParseUint(hex, 16, 32); err != nil {
		return drawing.Color{}, fmt.Errorf("invalid hex color %q", value)
	}

	return drawing.ColorFromHex(hex), nil
}

// ParseTheme parses the provided YAML theme over the default theme.
func ParseTheme(data []byte) (Theme, error) {
	theme := DefaultTheme()

	var file themeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return theme, fmt.Errorf("unmarshaling theme: %w", err)
	}

	var errs error
	set := func(name string, value string, dst *drawing.Color) {
		if value == "" {
			return
		}
		color, err := parseHexColor(value)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("%s: %w", name, err))
			return
		}
		*dst = color
	}

	set("background", file.Background, &theme.Background)
	set("wick", file.Wick, &theme.Wick)
	set("bullish", file.Bullish, &theme.Bullish)
	set("bearish", file.Bearish, &theme.Bearish)
	set("grid", file.Grid, &theme.Grid)

	if file.WickWidth != nil {
		if *file.WickWidth <= 0 {
			errs = errors.Join(errs, fmt.Errorf("wick width must be positive"))
		} else {
			theme.WickWidth = *file.WickWidth
		}
	}
	if file.GridWidth != nil {
		if *file.GridWidth <= 0 {
			errs = errors.Join(errs, fmt.Errorf("grid width must be positive"))
		} else {
			theme.GridWidth = *file.GridWidth
		}
	}

	if errs != nil {
		return DefaultTheme(), errs
	}

	return theme, nil
}

// LoadTheme reads and parses the theme at the provided path.
func LoadTheme(path string) (Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultTheme(), fmt.Errorf("reading theme file: %w", err)
	}

	return ParseTheme(data)
}
