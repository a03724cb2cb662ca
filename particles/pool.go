// Package particles implements the fixed-capacity particle field drawn
// behind the visualizer.
package particles

import (
	"image/color"
	"math"
	"math/rand"

	"beatcanvas/canvas"
)

const (
	// DefaultCapacity is the pool size allocated by NewPool when capacity <= 0.
	DefaultCapacity = 300

	// MinCoord and MaxCoord bound every normalized coordinate.
	MinCoord = -0.1
	MaxCoord = 1.1

	// EnergyScale is how much a full-energy spectrum grows particles.
	EnergyScale = 1.5

	minSize = 0.002
	maxSize = 0.008
)

// Particle is one reusable record. X and Y are normalized to the surface.
type Particle struct {
	X, Y     float64
	Size     float64 // fraction of the shorter surface dimension
	VX, VY   float64 // per-particle speed factors in [-1, 1]
	Rotation float64
	Opacity  float64
	Phase    float64
	Style    Style
}

// Pool owns a fixed set of particles. It is not safe for concurrent use;
// the render loop is its only caller.
type Pool struct {
	particles []Particle
	rng       *rand.Rand
	t         float64
	scale     float64
}

// NewPool allocates capacity particles scattered over the surface.
func NewPool(capacity int, seed int64) *Pool {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	p := &Pool{
		particles: make([]Particle, capacity),
		rng:       rand.New(rand.NewSource(seed)),
		scale:     1,
	}
	for i := range p.particles {
		p.particles[i] = p.spawn()
	}
	return p
}

func (p *Pool) spawn() Particle {
	return Particle{
		X:       p.rng.Float64(),
		Y:       p.rng.Float64(),
		Size:    minSize + p.rng.Float64()*(maxSize-minSize),
		VX:      p.rng.Float64()*2 - 1,
		VY:      p.rng.Float64()*2 - 1,
		Opacity: 0.4 + p.rng.Float64()*0.6,
		Phase:   p.rng.Float64() * 2 * math.Pi,
	}
}

// Len returns the pool capacity.
func (p *Pool) Len() int { return len(p.particles) }

// Particles exposes the records for inspection. Callers must not retain it
// across Step calls.
func (p *Pool) Particles() []Particle { return p.particles }

// Time returns the accumulated animation time in seconds.
func (p *Pool) Time() float64 { return p.t }

// Scale returns the size multiplier derived from the last energy boost.
func (p *Pool) Scale() float64 { return p.scale }

// Step advances every particle by dt seconds under the given style. It runs
// over the whole pool regardless of how many particles are drawn, so the
// field is ready when density is dialed back up.
func (p *Pool) Step(dt float64, style Style, energyBoost float64) {
	if !style.Valid() {
		style = Drift
	}
	if math.IsNaN(dt) || dt < 0 {
		dt = 0
	}
	if math.IsNaN(energyBoost) || math.IsInf(energyBoost, 0) || energyBoost < 0 {
		energyBoost = 0
	}
	p.scale = 1 + min(energyBoost, 1)*EnergyScale
	p.t += dt

	move := motions[style]
	for i := range p.particles {
		pt := &p.particles[i]
		pt.Style = style
		m := move(pt, p.t)
		pt.X += m.dx * dt
		pt.Y += m.dy * dt
		pt.Rotation = math.Mod(pt.Rotation+m.dr*dt, 2*math.Pi)
		if centered[style] {
			p.recycleCentered(pt)
		} else {
			pt.X = wrap(pt.X)
			pt.Y = wrap(pt.Y)
		}
	}
}

// wrap moves a coordinate that left [MinCoord, MaxCoord] to the opposite edge.
func wrap(v float64) float64 {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return 0.5
	case v < MinCoord:
		return MaxCoord
	case v > MaxCoord:
		return MinCoord
	}
	return v
}

func (p *Pool) recycleCentered(pt *Particle) {
	out := math.IsNaN(pt.X) || math.IsNaN(pt.Y) ||
		pt.X < MinCoord || pt.X > MaxCoord || pt.Y < MinCoord || pt.Y > MaxCoord
	d := math.Hypot(pt.X-0.5, pt.Y-0.5)
	switch {
	case pt.Style == Vortex && (out || d < 0.02):
		pt.X = 0.5 + math.Cos(pt.Phase)*0.6
		pt.Y = 0.5 + math.Sin(pt.Phase)*0.6
		pt.Phase = math.Mod(pt.Phase+2.39996, 2*math.Pi)
	case out:
		pt.X = 0.5 + math.Cos(pt.Phase)*0.05
		pt.Y = 0.5 + math.Sin(pt.Phase)*0.05
		pt.Phase = math.Mod(pt.Phase+2.39996, 2*math.Pi)
	}
	pt.X = math.Max(MinCoord, math.Min(MaxCoord, pt.X))
	pt.Y = math.Max(MinCoord, math.Min(MaxCoord, pt.Y))
}

// Draw renders the first active particles. active <= 0 issues no calls at all.
func (p *Pool) Draw(s canvas.Surface, active int, style Style, c color.RGBA) {
	if active <= 0 {
		return
	}
	if active > len(p.particles) {
		active = len(p.particles)
	}
	if !style.Valid() {
		style = Drift
	}
	w, h := float64(s.Width()), float64(s.Height())
	unit := math.Min(w, h)
	shape := shapes[style]
	for i := range active {
		pt := &p.particles[i]
		r := pt.Size * unit * p.scale
		if style == Bokeh {
			r *= 4
		}
		s.Push()
		s.Translate(pt.X*w, pt.Y*h)
		s.Rotate(pt.Rotation)
		s.SetColor(canvas.WithAlpha(c, pt.Opacity))
		shape(s, r)
		s.Pop()
	}
}
