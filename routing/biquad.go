package routing

import "math"

type filterKind int

const (
	lowpass filterKind = iota
	highpass
)

func (k filterKind) String() string {
	if k == highpass {
		return "highpass"
	}
	return "lowpass"
}

// butterworthQ gives a maximally flat passband.
const butterworthQ = math.Sqrt2 / 2

// biquad is a second-order IIR filter per the Audio EQ Cookbook with
// independent state for two channels.
type biquad struct {
	kind filterKind
	freq float64
	q    float64
	sr   float64

	x1, x2 [2]float64
	y1, y2 [2]float64

	b0, b1, b2, a1, a2 float64
}

func newBiquad(kind filterKind, freq, q, sr float64) *biquad {
	b := &biquad{kind: kind, freq: freq, q: q, sr: sr}
	b.calcCoeffs()
	return b
}

func (b *biquad) calcCoeffs() {
	w0 := 2 * math.Pi * b.freq / b.sr
	sinW0 := math.Sin(w0)
	cosW0 := math.Cos(w0)
	alpha := sinW0 / (2 * b.q)

	var b0, b1, b2 float64
	switch b.kind {
	case highpass:
		b0 = (1 + cosW0) / 2
		b1 = -(1 + cosW0)
		b2 = (1 + cosW0) / 2
	default:
		b0 = (1 - cosW0) / 2
		b1 = 1 - cosW0
		b2 = (1 - cosW0) / 2
	}
	a0 := 1 + alpha
	a1 := -2 * cosW0
	a2 := 1 - alpha

	b.b0 = b0 / a0
	b.b1 = b1 / a0
	b.b2 = b2 / a0
	b.a1 = a1 / a0
	b.a2 = a2 / a0
}

// process filters one sample on channel ch (0 or 1).
func (b *biquad) process(x float64, ch int) float64 {
	y := b.b0*x + b.b1*b.x1[ch] + b.b2*b.x2[ch] - b.a1*b.y1[ch] - b.a2*b.y2[ch]
	b.x2[ch] = b.x1[ch]
	b.x1[ch] = x
	b.y2[ch] = b.y1[ch]
	b.y1[ch] = y
	return y
}

func (b *biquad) reset() {
	b.x1, b.x2 = [2]float64{}, [2]float64{}
	b.y1, b.y2 = [2]float64{}, [2]float64{}
}
