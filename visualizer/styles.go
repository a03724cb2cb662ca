package visualizer

import "math"

var draws = [NumStyles]drawFunc{
	RadialBars:      radialBars,
	CircularWave:    circularWave,
	BottomSpectrum:  bottomSpectrum,
	MirroredBars:    mirroredBars,
	ConcentricRings: concentricRings,
	DotRing:         dotRing,
	DualWave:        dualWave,
	StarBurst:       starBurst,
	HexagonPulse:    hexagonPulse,
	Spiral:          spiral,
	Tunnel:          tunnel,
	HeartBeat:       heartBeat,
	Barcode:         barcode,
	Eclipse:         eclipse,
	Flower:          flower,
	Orbitals:        orbitals,
	Lightning:       lightning,
	LedMeter:        ledMeter,
	PulseCircle:     pulseCircle,
	WaveLine:        waveLine,
}

const tau = 2 * math.Pi

func radialBars(f *frame) {
	const n = 64
	r0 := f.unit * 0.25
	f.lineWidth(6)
	for i := range n {
		a := tau*float64(i)/n - math.Pi/2
		l := f.band(i, n) * f.unit * 0.25
		x0, y0 := f.polar(a, r0)
		x1, y1 := f.polar(a, r0+l+1)
		f.s.SetColor(f.color(i, n))
		f.s.MoveTo(x0, y0)
		f.s.LineTo(x1, y1)
		f.s.Stroke()
	}
}

func circularWave(f *frame) {
	const n = 128
	r0 := f.unit * 0.3
	f.lineWidth(4)
	f.s.SetColor(f.color(0, 1))
	for i := range n {
		// Mirror the bands so the closed curve meets itself smoothly.
		k := i
		if k >= n/2 {
			k = n - 1 - k
		}
		r := r0 + f.band(k, n/2)*f.unit*0.15
		x, y := f.polar(tau*float64(i)/n, r)
		if i == 0 {
			f.s.MoveTo(x, y)
		} else {
			f.s.LineTo(x, y)
		}
	}
	f.s.ClosePath()
	f.s.Stroke()
}

func bottomSpectrum(f *frame) {
	const n = 64
	bw := f.w / n
	maxH := f.unit * 0.4
	for i := range n {
		bh := f.band(i, n) * maxH
		f.s.SetColor(f.color(i, n))
		f.s.DrawRectangle(float64(i)*bw+1, f.h-bh, math.Max(1, bw-2), bh)
		f.s.Fill()
	}
}

func mirroredBars(f *frame) {
	const n = 48
	width := f.unit
	bw := width / n
	x0 := f.cx - width/2
	maxH := f.unit * 0.25
	for i := range n {
		bh := f.band(i, n)*maxH + 1
		f.s.SetColor(f.color(i, n))
		f.s.DrawRectangle(x0+float64(i)*bw, f.cy-bh, math.Max(1, bw-1), 2*bh)
		f.s.Fill()
	}
}

func concentricRings(f *frame) {
	const n = 8
	for i := range n {
		b := f.band(i, n)
		r := f.unit * 0.4 * float64(i+1) / n * (1 + b*0.3)
		f.lineWidth(2 + 10*b)
		f.s.SetColor(f.color(i, n))
		f.s.DrawCircle(f.cx, f.cy, r)
		f.s.Stroke()
	}
}

func dotRing(f *frame) {
	const n = 48
	r0 := f.unit * 0.32
	for i := range n {
		b := f.band(i, n)
		x, y := f.polar(tau*float64(i)/n, r0)
		f.s.SetColor(f.color(i, n))
		f.s.DrawCircle(x, y, f.unit*(0.004+0.02*b))
		f.s.Fill()
	}
}

func dualWave(f *frame) {
	const n = 96
	amp := f.unit * 0.2
	f.lineWidth(3)
	for side, sign := range []float64{-1, 1} {
		f.s.SetColor(f.color(side, 2))
		for i := range n {
			x := f.w * float64(i) / (n - 1)
			y := f.cy + sign*f.band(i, n)*amp*math.Sin(math.Pi*float64(i)/(n-1))
			if i == 0 {
				f.s.MoveTo(x, y)
			} else {
				f.s.LineTo(x, y)
			}
		}
		f.s.Stroke()
	}
}

func starBurst(f *frame) {
	const n = 32
	f.lineWidth(3)
	for i := range n {
		a := tau*float64(i)/n + f.hue*math.Pi/180
		l := f.unit * (0.05 + 0.4*f.band(i, n))
		x, y := f.polar(a, l)
		f.s.SetColor(f.color(i, n))
		f.s.MoveTo(f.cx, f.cy)
		f.s.LineTo(x, y)
		f.s.Stroke()
	}
}

func hexagonPulse(f *frame) {
	const n = 3
	for i := range n {
		b := f.band(i*8, 24)
		r := f.unit * (0.15 + 0.1*float64(i)) * (1 + 0.5*b)
		f.lineWidth(3 + 6*b)
		f.s.SetColor(f.color(i, n))
		for k := range 6 {
			x, y := f.polar(tau*float64(k)/6+math.Pi/6, r)
			if k == 0 {
				f.s.MoveTo(x, y)
			} else {
				f.s.LineTo(x, y)
			}
		}
		f.s.ClosePath()
		f.s.Stroke()
	}
}

func spiral(f *frame) {
	const n = 96
	turns := 3.0
	for i := range n {
		t := float64(i) / n
		a := t*turns*tau + f.hue*math.Pi/180
		x, y := f.polar(a, f.unit*0.45*t)
		f.s.SetColor(f.color(i, n))
		f.s.DrawCircle(x, y, f.unit*(0.003+0.015*f.band(i, n)))
		f.s.Fill()
	}
}

func tunnel(f *frame) {
	const n = 10
	e := f.energy()
	f.lineWidth(2)
	for i := range n {
		side := f.unit * 0.9 * float64(n-i) / n * (0.8 + 0.4*e)
		f.s.Push()
		f.s.Translate(f.cx, f.cy)
		f.s.Rotate(float64(i)*0.08*(1+e) + f.hue*math.Pi/360)
		f.s.SetColor(f.color(i, n))
		f.s.DrawRectangle(-side/2, -side/2, side, side)
		f.s.Stroke()
		f.s.Pop()
	}
}

func heartBeat(f *frame) {
	const n = 32
	step := f.w / n
	amp := f.unit * 0.3
	f.lineWidth(3)
	f.s.SetColor(f.color(0, 1))
	f.s.MoveTo(0, f.cy)
	for i := range n {
		x := float64(i) * step
		b := f.band(i, n)
		f.s.LineTo(x+step*0.3, f.cy)
		f.s.LineTo(x+step*0.45, f.cy-b*amp)
		f.s.LineTo(x+step*0.6, f.cy+b*amp*0.5)
		f.s.LineTo(x+step*0.7, f.cy)
	}
	f.s.LineTo(f.w, f.cy)
	f.s.Stroke()
}

func barcode(f *frame) {
	const n = 80
	step := f.w / n
	hgt := f.unit * 0.5
	for i := range n {
		b := f.band(i, n)
		if b == 0 {
			continue
		}
		f.s.SetColor(f.color(i, n))
		f.s.DrawRectangle(float64(i)*step, f.cy-hgt/2, math.Max(1, step*b), hgt)
		f.s.Fill()
	}
}

func eclipse(f *frame) {
	const n = 72
	r := f.unit * 0.25
	e := f.energy()
	f.lineWidth(4 + 20*e)
	f.s.SetColor(f.color(0, 1))
	f.s.DrawCircle(f.cx, f.cy, r)
	f.s.Stroke()
	f.lineWidth(2)
	for i := range n {
		a := tau * float64(i) / n
		x0, y0 := f.polar(a, r*1.05)
		x1, y1 := f.polar(a, r*(1.05+0.6*f.band(i, n)))
		f.s.SetColor(f.color(i, n))
		f.s.MoveTo(x0, y0)
		f.s.LineTo(x1, y1)
		f.s.Stroke()
	}
	f.s.SetColor(f.color(0, 1))
	f.s.DrawCircle(f.cx, f.cy, r*0.9)
	f.s.Fill()
}

func flower(f *frame) {
	const n = 12
	for i := range n {
		b := f.band(i, n)
		l := f.unit * (0.08 + 0.2*b)
		a := tau * float64(i) / n
		f.s.Push()
		f.s.Translate(f.cx, f.cy)
		f.s.Rotate(a)
		f.s.SetColor(f.color(i, n))
		f.s.DrawEllipse(l, 0, l, l*0.35)
		f.s.Fill()
		f.s.Pop()
	}
}

func orbitals(f *frame) {
	const n = 6
	f.lineWidth(1)
	for i := range n {
		b := f.band(i, n)
		r := f.unit * 0.07 * float64(i+1)
		f.s.SetColor(f.color(i, n))
		f.s.DrawCircle(f.cx, f.cy, r)
		f.s.Stroke()
		a := f.hue*math.Pi/180*float64(n-i) + float64(i)
		x, y := f.polar(a, r)
		f.s.DrawCircle(x, y, f.unit*(0.008+0.03*b))
		f.s.Fill()
	}
}

func lightning(f *frame) {
	const (
		bolts    = 6
		segments = 8
	)
	f.lineWidth(2)
	for i := range bolts {
		a := tau*float64(i)/bolts + f.hue*math.Pi/180
		reach := f.unit * (0.15 + 0.35*f.band(i, bolts))
		f.s.SetColor(f.color(i, bolts))
		f.s.MoveTo(f.cx, f.cy)
		for k := 1; k <= segments; k++ {
			t := float64(k) / segments
			// Jag perpendicular to the bolt, driven by the fine bins.
			jag := (f.snap.Level(i*segments+k)*2 - 1) * f.unit * 0.04
			x, y := f.polar(a, reach*t)
			x += -math.Sin(a) * jag
			y += math.Cos(a) * jag
			f.s.LineTo(x, y)
		}
		f.s.Stroke()
	}
}

func ledMeter(f *frame) {
	const (
		cols = 16
		rows = 12
	)
	width := f.unit
	cell := width / cols
	x0 := f.cx - width/2
	y0 := f.cy + cell*rows/2
	for c := range cols {
		lit := int(math.Round(f.band(c, cols) * rows))
		for r := range lit {
			f.s.SetColor(f.color(r, rows))
			f.s.DrawRectangle(x0+float64(c)*cell+1, y0-float64(r+1)*cell+1, cell-2, cell-2)
			f.s.Fill()
		}
	}
}

func pulseCircle(f *frame) {
	e := f.energy()
	r := f.unit * (0.1 + 0.3*e)
	f.s.SetColor(f.color(0, 1))
	f.s.DrawCircle(f.cx, f.cy, r)
	f.s.Fill()
	f.lineWidth(3)
	f.s.DrawCircle(f.cx, f.cy, r*1.25)
	f.s.Stroke()
}

func waveLine(f *frame) {
	const n = 128
	amp := f.unit * 0.25
	f.lineWidth(3)
	f.s.SetColor(f.color(0, 1))
	for i := range n {
		x := f.w * float64(i) / (n - 1)
		y := f.cy - f.band(i, n)*amp*math.Sin(float64(i)*0.35)
		if i == 0 {
			f.s.MoveTo(x, y)
		} else {
			f.s.LineTo(x, y)
		}
	}
	f.s.Stroke()
}
