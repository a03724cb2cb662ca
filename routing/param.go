package routing

import (
	"math"
	"sync/atomic"
)

// Param is a gain that the control thread retargets and the audio thread
// ramps toward, one sample at a time, with an exponential time constant.
// Targets cross threads through an atomic; the ramped value itself is owned
// by the audio thread and published once per block for observers.
type Param struct {
	target  atomic.Uint64
	current atomic.Uint64

	value float64
	coeff float64
	lo    float64
	hi    float64
}

func newParam(initial, tau, sampleRate, lo, hi float64) *Param {
	p := &Param{
		value: clampGain(initial, lo, hi),
		coeff: 1 - math.Exp(-1/(tau*sampleRate)),
		lo:    lo,
		hi:    hi,
	}
	p.target.Store(math.Float64bits(p.value))
	p.current.Store(math.Float64bits(p.value))
	return p
}

// SetTarget schedules a ramp toward v, clamped to the parameter range.
func (p *Param) SetTarget(v float64) {
	p.target.Store(math.Float64bits(clampGain(v, p.lo, p.hi)))
}

// Target returns the value the parameter is ramping toward.
func (p *Param) Target() float64 {
	return math.Float64frombits(p.target.Load())
}

// Value returns the ramped value as of the last processed block.
func (p *Param) Value() float64 {
	return math.Float64frombits(p.current.Load())
}

// next advances the ramp by one sample. Audio thread only.
func (p *Param) next() float64 {
	t := math.Float64frombits(p.target.Load())
	p.value += (t - p.value) * p.coeff
	return p.value
}

func (p *Param) publish() {
	p.current.Store(math.Float64bits(p.value))
}

// silence drops the parameter to zero immediately. Only used once the graph
// has been disconnected from the output, where a jump cannot be heard.
func (p *Param) silence() {
	p.target.Store(0)
	p.value = 0
	p.publish()
}

func clampGain(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
