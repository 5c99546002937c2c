package service

import (
	"github.com/dnldd/candleview/engine"
)

const (
	// dragStep is the pointer travel per frame while dragging, in pixels.
	dragStep = 6
	// shrinkRatio is the container scale applied during the resize phase.
	shrinkRatio = 0.8
)

// session scripts a pan and zoom interaction over a fixed number of frames: a drag
// toward older candles, a zoom in, a zoom out and a resize that is restored on the last
// frame. Several events are sent per frame so the driver has input to coalesce.
type session struct {
	frames  int
	width   float64
	height  float64
	quarter int
	dragX   float64
}

// newSession initializes a scripted session for a container of the provided size.
func newSession(frames int, width float64, height float64) *session {
	return &session{
		frames:  frames,
		width:   width,
		height:  height,
		quarter: max(1, frames/4),
		dragX:   width / 4,
	}
}

// step sends the input of the provided frame to the driver.
func (s *session) step(frame int, driver *engine.Driver) {
	center := s.width / 2

	switch {
	case frame < s.quarter:
		if frame == 0 {
			driver.SendPointer(engine.PointerEvent{Kind: engine.PointerDown, X: s.dragX})
		}
		driver.SendPointer(engine.PointerEvent{Kind: engine.PointerMove, X: s.dragX + dragStep/2})
		s.dragX += dragStep
		driver.SendPointer(engine.PointerEvent{Kind: engine.PointerMove, X: s.dragX})
		if frame == s.quarter-1 {
			driver.SendPointer(engine.PointerEvent{Kind: engine.PointerUp, X: s.dragX})
		}

	case frame < 2*s.quarter:
		driver.SendWheel(engine.WheelEvent{DeltaY: -1, CursorX: center})
		driver.SendWheel(engine.WheelEvent{DeltaY: -1, CursorX: center})

	case frame < 3*s.quarter:
		if frame%2 == 0 {
			driver.SendWheel(engine.WheelEvent{DeltaY: 1, CursorX: center})
		}

	case frame == 3*s.quarter:
		driver.SendResize(engine.ResizeEvent{
			Width:  s.width * shrinkRatio,
			Height: s.height * shrinkRatio,
		})
	}

	if frame == s.frames-1 && frame >= 3*s.quarter {
		driver.SendResize(engine.ResizeEvent{Width: s.width, Height: s.height})
	}
}
