package routing

import (
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep/v2"
)

// MixedOutput fans the graph's final mix out to subscribers such as the
// capture exporter. The audio thread never waits on a subscriber.
type MixedOutput struct {
	sr     beep.SampleRate
	mu     sync.Mutex
	subs   []*Subscription
	closed bool
}

// Block is one published run of interleaved stereo samples.
type Block struct {
	// Gap is the number of stereo frames dropped just before this block
	// because the receiver fell behind.
	Gap     int
	Samples []float32
}

// Subscription receives blocks in stream order. C is closed when the
// subscription or the graph goes away.
type Subscription struct {
	C <-chan Block

	c       chan Block
	out     *MixedOutput
	done    bool
	gap     int // frames dropped since the last delivered block
	dropped atomic.Int64
}

// SampleRate is the rate of every published block.
func (m *MixedOutput) SampleRate() beep.SampleRate { return m.sr }

// Subscribe registers a receiver buffering up to depth blocks. Subscribing
// to a torn-down graph returns an already-closed subscription.
func (m *MixedOutput) Subscribe(depth int) *Subscription {
	if depth < 1 {
		depth = 1
	}
	c := make(chan Block, depth)
	s := &Subscription{C: c, c: c, out: m}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		s.done = true
		close(c)
		return s
	}
	m.subs = append(m.subs, s)
	return s
}

// Close detaches the subscription and closes C. Safe to call twice.
func (s *Subscription) Close() {
	m := s.out
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.done {
		return
	}
	s.done = true
	close(s.c)
	for i, sub := range m.subs {
		if sub == s {
			m.subs = append(m.subs[:i], m.subs[i+1:]...)
			break
		}
	}
}

// Dropped counts blocks discarded because the receiver fell behind.
func (s *Subscription) Dropped() int64 { return s.dropped.Load() }

// TrailingGap is the number of frames dropped after the last delivered
// block. Read it once C is closed to finish the timeline.
func (s *Subscription) TrailingGap() int {
	s.out.mu.Lock()
	defer s.out.mu.Unlock()
	return s.gap
}

// publish runs on the audio thread.
func (m *MixedOutput) publish(samples [][2]float64) {
	if len(samples) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.subs) == 0 {
		return
	}
	block := make([]float32, 2*len(samples))
	for i, s := range samples {
		block[2*i] = float32(s[0])
		block[2*i+1] = float32(s[1])
	}
	for _, sub := range m.subs {
		select {
		case sub.c <- Block{Gap: sub.gap, Samples: block}:
			sub.gap = 0
		default:
			sub.gap += len(samples)
			sub.dropped.Add(1)
		}
	}
}

func (m *MixedOutput) close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for _, sub := range m.subs {
		sub.done = true
		close(sub.c)
	}
	m.subs = nil
}
