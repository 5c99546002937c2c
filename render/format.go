// Package render provides the retained-mode scene the chart draws into, backed by the
// go-chart raster and vector renderers.
package render

import (
	"fmt"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
)

// Format represents an output image format.
type Format int

const (
	FormatPNG Format = iota
	FormatSVG
)

// String stringifies the provided format.
func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatSVG:
		return "svg"
	default:
		return "unknown"
	}
}

// ParseFormat parses the provided format name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "png":
		return FormatPNG, nil
	case "svg":
		return FormatSVG, nil
	default:
		return 0, fmt.Errorf("unknown output format: %q", name)
	}
}

// Provider returns the go-chart renderer provider for the format.
func (f Format) Provider() (chart.RendererProvider, error) {
	switch f {
	case FormatPNG:
		return chart.PNG, nil
	case FormatSVG:
		return chart.SVG, nil
	default:
		return nil, fmt.Errorf("no renderer for format %d", f)
	}
}
