package render

import (
	"math"

	"github.com/dnldd/candleview/shared"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

type opKind uint8

const (
	opMove opKind = iota
	opLine
	opClose
)

type op struct {
	kind opKind
	x, y int
}

type commandKind uint8

const (
	commandStroke commandKind = iota
	commandFill
)

// command is a draw call over the ops in [start, end).
type command struct {
	kind  commandKind
	start int
	end   int
	color drawing.Color
	width float64
}

// Path accumulates geometry and the draw calls applied to it. Draw calls are replayed
// against a go-chart renderer when the owning canvas renders.
type Path struct {
	ops       []op
	pending   int
	commands  []command
	destroyed bool
}

var _ shared.Path = (*Path)(nil)

// toPixel snaps the provided coordinate to the renderer's integer grid.
func toPixel(v float64) int {
	return int(math.Round(v))
}

// MoveTo starts a new sub-path at the provided point.
func (p *Path) MoveTo(x, y float64) {
	if p.destroyed {
		return
	}
	p.ops = append(p.ops, op{kind: opMove, x: toPixel(x), y: toPixel(y)})
}

// LineTo adds a line segment from the current point.
func (p *Path) LineTo(x, y float64) {
	if p.destroyed {
		return
	}
	p.ops = append(p.ops, op{kind: opLine, x: toPixel(x), y: toPixel(y)})
}

// Rect adds a closed rectangle sub-path.
func (p *Path) Rect(x, y, w, h float64) {
	if p.destroyed {
		return
	}

	left, top := toPixel(x), toPixel(y)
	right, bottom := toPixel(x+w), toPixel(y+h)

	// Sub-pixel sizes still cover one pixel.
	if right == left {
		right++
	}
	if bottom == top {
		bottom++
	}

	p.ops = append(p.ops,
		op{kind: opMove, x: left, y: top},
		op{kind: opLine, x: right, y: top},
		op{kind: opLine, x: right, y: bottom},
		op{kind: opLine, x: left, y: bottom},
		op{kind: opClose},
	)
}

// Stroke records a stroke over all geometry added since the previous draw call.
func (p *Path) Stroke(style shared.StrokeStyle) {
	p.record(command{kind: commandStroke, color: style.Color, width: style.Width})
}

// Fill records a fill over all geometry added since the previous draw call.
func (p *Path) Fill(color drawing.Color) {
	p.record(command{kind: commandFill, color: color})
}

// record closes the pending geometry into a draw call. Draw calls without geometry are
// dropped.
func (p *Path) record(cmd command) {
	if p.destroyed || p.pending == len(p.ops) {
		return
	}

	cmd.start = p.pending
	cmd.end = len(p.ops)
	p.commands = append(p.commands, cmd)
	p.pending = len(p.ops)
}

// DrawCalls returns the number of draw calls recorded.
func (p *Path) DrawCalls() int {
	return len(p.commands)
}

// Clear drops all geometry and draw calls, keeping the buffers for reuse.
func (p *Path) Clear() {
	p.ops = p.ops[:0]
	p.commands = p.commands[:0]
	p.pending = 0
}

// Destroy releases the path buffers.
func (p *Path) Destroy() {
	p.ops = nil
	p.commands = nil
	p.pending = 0
	p.destroyed = true
}

// Destroyed returns true if the path has been destroyed.
func (p *Path) Destroyed() bool {
	return p.destroyed
}

// replay issues the recorded draw calls against the provided renderer.
func (p *Path) replay(r chart.Renderer) {
	for idx := range p.commands {
		cmd := &p.commands[idx]

		for _, o := range p.ops[cmd.start:cmd.end] {
			switch o.kind {
			case opMove:
				r.MoveTo(o.x, o.y)
			case opLine:
				r.LineTo(o.x, o.y)
			case opClose:
				r.Close()
			}
		}

		switch cmd.kind {
		case commandStroke:
			r.SetStrokeColor(cmd.color)
			r.SetStrokeWidth(cmd.width)
			r.Stroke()
		case commandFill:
			r.SetFillColor(cmd.color)
			r.SetStrokeColor(drawing.ColorTransparent)
			r.Fill()
		}
	}
}
