package particles

import (
	"math"

	"beatcanvas/canvas"
)

// shapeFunc draws one particle of radius r centered on the origin.
type shapeFunc func(s canvas.Surface, r float64)

var shapes = [NumStyles]shapeFunc{
	Drift:     dot,
	Snow:      flake,
	Bubbles:   ring,
	Rain:      streak(6),
	Fireflies: glow,
	Wind:      streak(3),
	Spiral:    dot,
	Stars:     star,
	Confetti:  square,
	Embers:    glow,
	Orbit:     dot,
	Zigzag:    square,
	Pulse:     glow,
	Vortex:    dot,
	Meteors:   streak(10),
	Leaves:    leaf,
	Hearts:    heart,
	Sparkles:  cross,
	Galaxy:    star,
	Bokeh:     dot,
}

func dot(s canvas.Surface, r float64) {
	s.DrawCircle(0, 0, r)
	s.Fill()
}

func ring(s canvas.Surface, r float64) {
	s.SetLineWidth(math.Max(1, r*0.3))
	s.DrawCircle(0, 0, r*1.5)
	s.Stroke()
}

func glow(s canvas.Surface, r float64) {
	s.DrawCircle(0, 0, r*2)
	s.Fill()
	s.DrawCircle(0, 0, r)
	s.Fill()
}

func streak(length float64) shapeFunc {
	return func(s canvas.Surface, r float64) {
		s.SetLineWidth(math.Max(1, r*0.5))
		s.MoveTo(0, -r*length/2)
		s.LineTo(0, r*length/2)
		s.Stroke()
	}
}

func flake(s canvas.Surface, r float64) {
	s.SetLineWidth(math.Max(1, r*0.35))
	for i := range 3 {
		a := float64(i) * math.Pi / 3
		dx, dy := math.Cos(a)*r*1.5, math.Sin(a)*r*1.5
		s.MoveTo(-dx, -dy)
		s.LineTo(dx, dy)
	}
	s.Stroke()
}

func star(s canvas.Surface, r float64) {
	for i := range 10 {
		rad := r * 1.8
		if i%2 == 1 {
			rad = r * 0.7
		}
		a := float64(i)*math.Pi/5 - math.Pi/2
		x, y := math.Cos(a)*rad, math.Sin(a)*rad
		if i == 0 {
			s.MoveTo(x, y)
		} else {
			s.LineTo(x, y)
		}
	}
	s.ClosePath()
	s.Fill()
}

func square(s canvas.Surface, r float64) {
	s.DrawRectangle(-r, -r*0.6, r*2, r*1.2)
	s.Fill()
}

func leaf(s canvas.Surface, r float64) {
	s.DrawEllipse(0, 0, r*1.8, r*0.8)
	s.Fill()
}

func heart(s canvas.Surface, r float64) {
	s.DrawCircle(-r*0.5, -r*0.3, r*0.6)
	s.DrawCircle(r*0.5, -r*0.3, r*0.6)
	s.Fill()
	s.MoveTo(-r*1.05, -r*0.1)
	s.LineTo(0, r*1.2)
	s.LineTo(r*1.05, -r*0.1)
	s.ClosePath()
	s.Fill()
}

func cross(s canvas.Surface, r float64) {
	s.SetLineWidth(math.Max(1, r*0.4))
	s.MoveTo(-r*2, 0)
	s.LineTo(r*2, 0)
	s.MoveTo(0, -r*2)
	s.LineTo(0, r*2)
	s.Stroke()
}
