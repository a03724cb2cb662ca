package spectrum

import (
	"math"
	"math/cmplx"

	"github.com/madelynnblue/go-dsp/fft"
)

const (
	// Bins is the analysis resolution, independent of the sample rate.
	Bins = 128
	// FFTSize is the number of time-domain samples per analysis.
	FFTSize = 2 * Bins

	// Smoothing blends each bin with its previous value.
	Smoothing = 0.8

	// MinDecibels and MaxDecibels map magnitudes onto the 0-255 byte range.
	MinDecibels = -100.0
	MaxDecibels = -30.0
)

// Snapshot is one frame's view of the spectrum.
type Snapshot struct {
	Magnitudes [Bins]uint8
	// Average is the mean bin value normalized to [0, 1].
	Average float32
}

// Silent reports whether every bin is zero.
func (s Snapshot) Silent() bool {
	for _, m := range s.Magnitudes {
		if m != 0 {
			return false
		}
	}
	return true
}

// Energy returns Average as a float64 in [0, 1].
func (s Snapshot) Energy() float64 {
	return float64(s.Average)
}

// Level returns bin i normalized to [0, 1].
func (s Snapshot) Level(i int) float64 {
	if i < 0 || i >= Bins {
		return 0
	}
	return float64(s.Magnitudes[i]) / 255
}

// Source supplies the most recent time-domain samples. *Tap implements it.
type Source interface {
	Latest(dst []float64) (n int, busy bool)
}

// Sampler turns a Source into smoothed snapshots. It belongs to the render
// loop and is not safe for concurrent use.
type Sampler struct {
	src    Source
	window [FFTSize]float64
	buf    []float64
	smooth [Bins]float64
	last   Snapshot
}

// NewSampler creates a Sampler over src. A nil src always yields silence,
// which is how the engine runs when the routing graph is unavailable.
func NewSampler(src Source) *Sampler {
	s := &Sampler{src: src, buf: make([]float64, FFTSize)}
	for i := range FFTSize {
		s.window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(FFTSize-1)))
	}
	return s
}

// Sample returns the current snapshot. It never blocks: when the audio
// thread holds the tap the previous snapshot is returned unchanged.
func (s *Sampler) Sample() Snapshot {
	if s == nil || s.src == nil {
		return Snapshot{}
	}
	n, busy := s.src.Latest(s.buf)
	if busy {
		return s.last
	}
	if n == 0 {
		s.Reset()
		return s.last
	}

	for i := range FFTSize {
		s.buf[i] *= s.window[i]
	}
	spectrum := fft.FFTReal(s.buf)

	var snap Snapshot
	var sum float64
	for k := range Bins {
		mag := cmplx.Abs(spectrum[k]) / FFTSize
		s.smooth[k] = Smoothing*s.smooth[k] + (1-Smoothing)*mag
		b := toByte(s.smooth[k])
		snap.Magnitudes[k] = b
		sum += float64(b)
	}
	snap.Average = float32(sum / Bins / 255)
	s.last = snap
	return snap
}

// Reset clears the smoothing history.
func (s *Sampler) Reset() {
	s.smooth = [Bins]float64{}
	s.last = Snapshot{}
}

func toByte(mag float64) uint8 {
	if mag <= 0 || math.IsNaN(mag) {
		return 0
	}
	db := 20 * math.Log10(mag)
	v := 255 * (db - MinDecibels) / (MaxDecibels - MinDecibels)
	return uint8(math.Max(0, math.Min(255, v)))
}
