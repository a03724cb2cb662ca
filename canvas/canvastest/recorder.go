// Package canvastest provides a canvas.Surface that records calls instead
// of rasterizing them.
package canvastest

import (
	"image/color"
	"math"
)

// Recorder counts every call made on it. Fill and Stroke are the draw calls;
// everything else only shapes state or paths.
type Recorder struct {
	W, H int

	Calls   int
	Fills   int
	Strokes int
	Depth   int
	NaN     bool
	Colors  []color.Color
}

// New returns a recorder reporting the given surface size.
func New(w, h int) *Recorder { return &Recorder{W: w, H: h} }

// Draws returns the number of fills plus strokes.
func (r *Recorder) Draws() int { return r.Fills + r.Strokes }

func (r *Recorder) Width() int { return r.W }
func (r *Recorder) Height() int { return r.H }

func (r *Recorder) Push() { r.Calls++; r.Depth++ }
func (r *Recorder) Pop() { r.Calls++; r.Depth-- }

func (r *Recorder) Translate(x, y float64) { r.check(x, y) }
func (r *Recorder) Rotate(a float64) { r.check(a) }
func (r *Recorder) Scale(x, y float64) { r.check(x, y) }

func (r *Recorder) SetColor(c color.Color) { r.Calls++; r.Colors = append(r.Colors, c) }
func (r *Recorder) SetLineWidth(w float64) { r.check(w) }

func (r *Recorder) MoveTo(x, y float64) { r.check(x, y) }
func (r *Recorder) LineTo(x, y float64) { r.check(x, y) }
func (r *Recorder) ClosePath() { r.Calls++ }
func (r *Recorder) NewSubPath() { r.Calls++ }

func (r *Recorder) DrawCircle(x, y, rad float64) { r.check(x, y, rad) }
func (r *Recorder) DrawEllipse(x, y, rx, ry float64) { r.check(x, y, rx, ry) }
func (r *Recorder) DrawRectangle(x, y, w, h float64) { r.check(x, y, w, h) }
func (r *Recorder) DrawArc(x, y, rad, a1, a2 float64) { r.check(x, y, rad, a1, a2) }

func (r *Recorder) Fill() { r.Calls++; r.Fills++ }
func (r *Recorder) Stroke() { r.Calls++; r.Strokes++ }
func (r *Recorder) Clip() { r.Calls++ }
func (r *Recorder) ResetClip() { r.Calls++ }

func (r *Recorder) check(vs ...float64) {
	r.Calls++
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			r.NaN = true
		}
	}
}
