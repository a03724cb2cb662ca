package particles

import "math"

// motion is a per-second displacement: normalized dx, dy and radians of spin.
type motion struct {
	dx, dy, dr float64
}

// motionFunc computes a particle's velocity at pool time t. Handlers may
// also animate Opacity.
type motionFunc func(p *Particle, t float64) motion

// motions holds exactly one handler per style; the array length ties the
// table to the enum so a missing entry is a nil slot the tests catch.
var motions = [NumStyles]motionFunc{
	Drift: func(p *Particle, t float64) motion {
		return motion{p.VX * 0.02, p.VY*0.02 + math.Sin(t+p.Phase)*0.005, 0.2}
	},
	Snow: func(p *Particle, t float64) motion {
		return motion{math.Sin(t*0.8+p.Phase) * 0.02, 0.04 + math.Abs(p.VY)*0.03, 0.5}
	},
	Bubbles: func(p *Particle, t float64) motion {
		return motion{math.Sin(t*2+p.Phase) * 0.015, -(0.05 + math.Abs(p.VY)*0.05), 0}
	},
	Rain: func(p *Particle, t float64) motion {
		return motion{0.01, 0.6 + math.Abs(p.VY)*0.4, 0}
	},
	Fireflies: func(p *Particle, t float64) motion {
		p.Opacity = 0.55 + 0.45*math.Sin(t*3+p.Phase)
		return motion{math.Cos(t*1.3+p.Phase)*0.04 + p.VX*0.01, math.Sin(t*1.7+p.Phase*1.3) * 0.04, 0}
	},
	Wind: func(p *Particle, t float64) motion {
		return motion{0.25 + math.Abs(p.VX)*0.2, math.Sin(t*3+p.Phase) * 0.03, 2}
	},
	Spiral: func(p *Particle, t float64) motion {
		ux, uy, d := radial(p)
		return motion{ux*0.06 - uy*d*0.8, uy*0.06 + ux*d*0.8, 1}
	},
	Stars: func(p *Particle, t float64) motion {
		p.Opacity = 0.6 + 0.4*math.Sin(t*2+p.Phase*2)
		return motion{p.VX * 0.003, p.VY * 0.003, 0}
	},
	Confetti: func(p *Particle, t float64) motion {
		return motion{math.Sin(t*4+p.Phase) * 0.05, 0.12 + math.Abs(p.VY)*0.08, 4 * sign(p.VX)}
	},
	Embers: func(p *Particle, t float64) motion {
		p.Opacity = 0.7 + 0.3*math.Sin(t*11+p.Phase)
		return motion{math.Sin(t*2.5+p.Phase)*0.02 + p.VX*0.01, -(0.1 + math.Abs(p.VY)*0.1), 0}
	},
	Orbit: func(p *Particle, t float64) motion {
		ux, uy, d := radial(p)
		w := 0.6 + math.Abs(p.VX)*0.4
		return motion{-uy * d * w, ux * d * w, 0}
	},
	Zigzag: func(p *Particle, t float64) motion {
		return motion{sign(math.Sin(t*2+p.Phase)) * 0.08, 0.06 + math.Abs(p.VY)*0.02, 0}
	},
	Pulse: func(p *Particle, t float64) motion {
		ux, uy, d := radial(p)
		k := math.Cos(t*2+p.Phase) * 0.6 * max(d, 0.05)
		return motion{ux * k, uy * k, 0}
	},
	Vortex: func(p *Particle, t float64) motion {
		ux, uy, d := radial(p)
		return motion{-ux*0.08 - uy*d*1.5, -uy*0.08 + ux*d*1.5, 2}
	},
	Meteors: func(p *Particle, t float64) motion {
		return motion{0.45 + math.Abs(p.VX)*0.2, 0.3 + math.Abs(p.VY)*0.15, 0}
	},
	Leaves: func(p *Particle, t float64) motion {
		return motion{math.Sin(t*1.5+p.Phase) * 0.08, 0.07 + math.Abs(p.VY)*0.03, math.Cos(t+p.Phase) * 2}
	},
	Hearts: func(p *Particle, t float64) motion {
		return motion{math.Sin(t*1.2+p.Phase) * 0.02, -(0.06 + math.Abs(p.VY)*0.04), 0}
	},
	Sparkles: func(p *Particle, t float64) motion {
		p.Opacity = 0.5 + 0.5*math.Abs(math.Sin(t*6+p.Phase))
		return motion{math.Sin(t*9+p.Phase*3) * 0.03, math.Cos(t*7+p.Phase*2) * 0.03, 3}
	},
	Galaxy: func(p *Particle, t float64) motion {
		ux, uy, d := radial(p)
		w := 0.3 + 0.2/(d+0.1)
		return motion{ux*0.01 - uy*d*w, uy*0.01 + ux*d*w, 0.5}
	},
	Bokeh: func(p *Particle, t float64) motion {
		p.Opacity = 0.25 + 0.15*math.Sin(t*0.7+p.Phase)
		return motion{p.VX * 0.01, p.VY*0.01 - 0.005, 0}
	},
}

// centered marks the styles whose motion is relative to the surface center.
// They recycle onto a ring instead of wrapping to the opposite edge, which
// would otherwise bounce them between edges forever.
var centered = [NumStyles]bool{
	Spiral: true,
	Vortex: true,
	Galaxy: true,
}

// radial returns the unit vector from the center to p and the distance.
func radial(p *Particle) (ux, uy, d float64) {
	rx, ry := p.X-0.5, p.Y-0.5
	d = math.Hypot(rx, ry)
	if d < 1e-6 {
		return math.Cos(p.Phase), math.Sin(p.Phase), 0
	}
	return rx / d, ry / d, d
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
