// Package spectrum taps the final audio output and turns it into per-frame
// frequency snapshots for the visual layers.
package spectrum

import (
	"sync"

	"github.com/gopxl/beep/v2"
)

// Tap is a streamer wrapper that copies a mono mix of everything passing
// through it into a ring buffer. It sits between the routing graph and the
// speaker; the speaker goroutine writes, the render loop reads.
type Tap struct {
	s       beep.Streamer
	mu      sync.Mutex
	buf     []float64
	pos     int
	written int
}

// NewTap wraps a streamer with a ring buffer of the given size.
func NewTap(s beep.Streamer, bufSize int) *Tap {
	return &Tap{
		s:   s,
		buf: make([]float64, bufSize),
	}
}

// Stream passes audio through while capturing the mono mix.
func (t *Tap) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.s.Stream(samples)
	t.mu.Lock()
	size := len(t.buf)
	for i := range n {
		t.buf[t.pos] = (samples[i][0] + samples[i][1]) / 2
		t.pos = (t.pos + 1) % size
	}
	t.written = min(t.written+n, size)
	t.mu.Unlock()
	return n, ok
}

// Err returns the underlying streamer's error.
func (t *Tap) Err() error {
	return t.s.Err()
}

// Latest copies the most recent len(dst) samples into dst in chronological
// order. It never waits on the audio thread: if the ring is being written it
// returns busy=true and leaves dst untouched. n is the number of valid
// samples, right-aligned in dst (older slots are zeroed).
func (t *Tap) Latest(dst []float64) (n int, busy bool) {
	if !t.mu.TryLock() {
		return 0, true
	}
	defer t.mu.Unlock()

	size := len(t.buf)
	want := min(len(dst), size)
	n = min(want, t.written)
	clear(dst)
	start := (t.pos - n + size) % size
	off := len(dst) - n
	for i := range n {
		dst[off+i] = t.buf[(start+i)%size]
	}
	return n, false
}

// Reset forgets everything captured so far.
func (t *Tap) Reset() {
	t.mu.Lock()
	clear(t.buf)
	t.pos = 0
	t.written = 0
	t.mu.Unlock()
}
