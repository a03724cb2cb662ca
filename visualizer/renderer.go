// Package visualizer draws the audio-reactive spectrum shapes on top of the
// particle field.
package visualizer

import (
	"image/color"
	"math"

	"beatcanvas/canvas"
	"beatcanvas/spectrum"
)

// HueStep is how far the rainbow hue moves per frame, in degrees.
const HueStep = 0.5

// Paint chooses the stroke and fill colors.
type Paint struct {
	Fixed   color.RGBA
	Rainbow bool
}

// Renderer draws one style per frame. The hue accumulator is its only
// state; it advances once per frame whether or not audio is playing.
type Renderer struct {
	hue float64
}

func NewRenderer() *Renderer { return &Renderer{} }

// Advance moves the rainbow hue by HueStep.
func (r *Renderer) Advance() {
	r.hue = math.Mod(r.hue+HueStep, 360)
}

// Hue returns the current hue in [0, 360).
func (r *Renderer) Hue() float64 { return r.hue }

// frame is what every style handler sees.
type frame struct {
	s      canvas.Surface
	snap   *spectrum.Snapshot
	w, h   float64
	cx, cy float64
	unit   float64 // size percent of the shorter side
	paint  Paint
	hue    float64
}

type drawFunc func(f *frame)

// Draw paints snap in the given style. size is a percentage of the shorter
// surface dimension. A silent snapshot or a non-positive size draws nothing.
func (r *Renderer) Draw(s canvas.Surface, snap spectrum.Snapshot, style Style, size float64, paint Paint) {
	if snap.Silent() || math.IsNaN(size) || size <= 0 {
		return
	}
	if !style.Valid() {
		style = RadialBars
	}
	size = math.Min(size, 200)
	w, h := float64(s.Width()), float64(s.Height())
	if w <= 0 || h <= 0 {
		return
	}
	f := &frame{
		s:     s,
		snap:  &snap,
		w:     w,
		h:     h,
		cx:    w / 2,
		cy:    h / 2,
		unit:  math.Min(w, h) * size / 100,
		paint: paint,
		hue:   r.hue,
	}
	s.Push()
	draws[style](f)
	s.Pop()
}

// color picks the paint for element i of n.
func (f *frame) color(i, n int) color.RGBA {
	if !f.paint.Rainbow {
		return f.paint.Fixed
	}
	if n <= 0 {
		n = 1
	}
	return canvas.HSL(f.hue+360*float64(i)/float64(n), 0.85, 0.6)
}

// band averages the spectrum into n bands over the lower three quarters of
// the bins, where music carries its energy, and returns band i in [0, 1].
func (f *frame) band(i, n int) float64 {
	const usable = spectrum.Bins * 3 / 4
	if n <= 0 || i < 0 || i >= n {
		return 0
	}
	lo := i * usable / n
	hi := max(lo+1, (i+1)*usable/n)
	var sum float64
	for k := lo; k < hi; k++ {
		sum += f.snap.Level(k)
	}
	return sum / float64(hi-lo)
}

func (f *frame) energy() float64 { return f.snap.Energy() }

// polar returns the point at angle a and radius r around the center.
func (f *frame) polar(a, r float64) (float64, float64) {
	return f.cx + math.Cos(a)*r, f.cy + math.Sin(a)*r
}

func (f *frame) lineWidth(base float64) {
	f.s.SetLineWidth(math.Max(1, base*f.unit/400))
}
