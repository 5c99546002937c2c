package shared

import (
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// StrokeStyle represents the style applied when stroking accumulated path segments.
type StrokeStyle struct {
	Color drawing.Color
	Width float64
}

// FontSpec describes the font used for measuring label text.
type FontSpec struct {
	Family string
	// Size is the font size in pixels.
	Size float64
}

// Path defines the requirements for an accumulating 2D drawable.
//
// Stroke and Fill apply to everything accumulated since the previous Stroke or Fill,
// each counting as one draw call.
type Path interface {
	// MoveTo starts a new sub-path at the provided point.
	MoveTo(x, y float64)
	// LineTo adds a line segment from the current point.
	LineTo(x, y float64)
	// Rect adds a closed rectangle sub-path.
	Rect(x, y, w, h float64)
	// Stroke strokes all pending geometry with the provided style.
	Stroke(style StrokeStyle)
	// Fill fills all pending geometry with the provided color.
	Fill(color drawing.Color)
	// Clear drops all geometry and draw commands while keeping the path reusable.
	Clear()
	// Destroy releases the path. A destroyed path must not be used again.
	Destroy()
}

// Scene defines the requirements for the container node drawables are attached to.
type Scene interface {
	// NewPath creates a new drawable path.
	NewPath() (Path, error)
	// Add attaches the provided path to the scene.
	Add(path Path)
	// Remove detaches the provided path from the scene.
	Remove(path Path)
	// Clear detaches all paths from the scene.
	Clear()
}

// TextMeasurer defines the requirements for measuring label text.
type TextMeasurer interface {
	// Measure returns the rendered width of the provided text in pixels.
	Measure(text string, font FontSpec) float64
}
