// Package routing builds the signal graph between the decoded track and the
// speaker: a dry path and a vocal-suppressed path that crossfade smoothly.
//
//	           ┌─ dry gain ───────────────────────────┐
//	source ────┼─ L−R ─ highpass ─ wet gain ──────────┼─ mix ─ out
//	           └─ lowpass ─ bass gain ────────────────┘
package routing

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep/v2"
)

// ErrGraphInit reports that the graph could not be constructed.
var ErrGraphInit = errors.New("routing: graph initialization failed")

// MaxGain bounds every path gain.
const MaxGain = 1.5

// Options configures a Graph. The gain constants were picked by ear; they
// are knobs, not derived values.
type Options struct {
	SampleRate beep.SampleRate

	// CrossoverHz is both the highpass cutoff on the cancelled signal and
	// the lowpass cutoff of the bass recovery branch.
	CrossoverHz float64
	// TimeConstant is the gain ramp time constant in seconds.
	TimeConstant float64

	NormalGain       float64
	SuppressedGain   float64
	BassRecoveryGain float64

	// Suppressed starts the graph on the vocal-suppressed path.
	Suppressed bool

	Logger *log.Logger
}

// DefaultOptions returns the stock crossover, ramp and gains for sr.
func DefaultOptions(sr beep.SampleRate) Options {
	return Options{
		SampleRate:       sr,
		CrossoverHz:      120,
		TimeConstant:     0.1,
		NormalGain:       1.0,
		SuppressedGain:   1.5,
		BassRecoveryGain: 1.0,
	}
}

func (o Options) validate() error {
	switch {
	case o.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate %d", ErrGraphInit, o.SampleRate)
	case o.CrossoverHz <= 0 || o.CrossoverHz >= float64(o.SampleRate)/2:
		return fmt.Errorf("%w: crossover %.1f Hz outside (0, %d)", ErrGraphInit, o.CrossoverHz, o.SampleRate/2)
	case o.TimeConstant <= 0:
		return fmt.Errorf("%w: time constant %v", ErrGraphInit, o.TimeConstant)
	}
	for _, g := range []float64{o.NormalGain, o.SuppressedGain, o.BassRecoveryGain} {
		if math.IsNaN(g) || g < 0 || g > MaxGain {
			return fmt.Errorf("%w: gain %v outside [0, %v]", ErrGraphInit, g, MaxGain)
		}
	}
	return nil
}

// node is one constructed element of the graph.
type node interface {
	name() string
	disconnect()
}

type sourceNode struct{ s beep.Streamer }

func (n *sourceNode) name() string { return "source" }
func (n *sourceNode) disconnect() { n.s = nil }

type cancelNode struct{}

func (cancelNode) name() string { return "cancel" }
func (cancelNode) disconnect() {}

// process inverts the right channel and sums it with the left, removing
// whatever is identical in both.
func (cancelNode) process(l, r float64) float64 { return l - r }

type filterNode struct{ *biquad }

func (n filterNode) name() string { return n.kind.String() }
func (n filterNode) disconnect() { n.reset() }

type gainNode struct {
	label string
	*Param
}

func (n gainNode) name() string { return n.label }
func (n gainNode) disconnect() { n.silence() }

type outputNode struct{ *MixedOutput }

func (outputNode) name() string { return "output" }
func (n outputNode) disconnect() { n.close() }

// Graph is the handle owning every node. It is a beep.Streamer; the speaker
// goroutine pulls it while the control layer flips suppression.
type Graph struct {
	opts Options
	log  *log.Logger

	mu       sync.Mutex
	nodes    []node
	src      *sourceNode
	cancel   cancelNode
	highpass filterNode
	lowpass  filterNode
	dry      *Param
	wet      *Param
	bass     *Param
	out      *MixedOutput

	suppressed atomic.Bool
	torn       atomic.Bool
	teardown   []string
}

// Configure builds the graph on top of src. On error nothing is retained.
func Configure(src beep.Streamer, opts Options) (*Graph, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil source", ErrGraphInit)
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	sr := float64(opts.SampleRate)
	g := &Graph{
		opts: opts,
		log:  logger.With("component", "routing"),
		src:  &sourceNode{s: src},
		out:  &MixedOutput{sr: opts.SampleRate},
	}
	g.highpass = filterNode{newBiquad(highpass, opts.CrossoverHz, butterworthQ, sr)}
	g.lowpass = filterNode{newBiquad(lowpass, opts.CrossoverHz, butterworthQ, sr)}

	dry, wet, bass := g.targets(opts.Suppressed)
	g.dry = newParam(dry, opts.TimeConstant, sr, 0, MaxGain)
	g.wet = newParam(wet, opts.TimeConstant, sr, 0, MaxGain)
	g.bass = newParam(bass, opts.TimeConstant, sr, 0, MaxGain)
	g.suppressed.Store(opts.Suppressed)

	g.nodes = []node{
		g.src,
		g.cancel,
		g.highpass,
		g.lowpass,
		gainNode{"dry", g.dry},
		gainNode{"wet", g.wet},
		gainNode{"bass", g.bass},
		outputNode{g.out},
	}
	g.log.Debug("graph configured", "rate", opts.SampleRate, "crossover", opts.CrossoverHz, "suppressed", opts.Suppressed)
	return g, nil
}

func (g *Graph) targets(suppressed bool) (dry, wet, bass float64) {
	if suppressed {
		return 0, g.opts.SuppressedGain, g.opts.BassRecoveryGain
	}
	return g.opts.NormalGain, 0, 0
}

// SetSuppression crossfades between the dry and suppressed paths. It only
// writes ramp targets and never waits on the audio thread, which performs
// the fade. Calling it on a nil or torn-down graph does nothing.
func (g *Graph) SetSuppression(enabled bool) {
	if g == nil || g.torn.Load() {
		return
	}
	if g.suppressed.Swap(enabled) == enabled {
		return
	}
	dry, wet, bass := g.targets(enabled)
	g.dry.SetTarget(dry)
	g.wet.SetTarget(wet)
	g.bass.SetTarget(bass)
	g.log.Debug("suppression", "enabled", enabled)
}

// Suppressed reports the requested path, not the ramp position.
func (g *Graph) Suppressed() bool {
	if g == nil {
		return false
	}
	return g.suppressed.Load()
}

// Gains returns the ramped dry, wet and bass gains as of the last block.
func (g *Graph) Gains() (dry, wet, bass float64) {
	return g.dry.Value(), g.wet.Value(), g.bass.Value()
}

// MixedOutput returns the handle capture subscribes to.
func (g *Graph) MixedOutput() *MixedOutput { return g.out }

// Nodes lists node names in construction order.
func (g *Graph) Nodes() []string {
	names := make([]string, len(g.nodes))
	for i, n := range g.nodes {
		names[i] = n.name()
	}
	return names
}

// Stream implements beep.Streamer.
func (g *Graph) Stream(samples [][2]float64) (int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.torn.Load() || g.src.s == nil {
		return 0, false
	}
	n, ok := g.src.s.Stream(samples)
	for i := range n {
		l, r := samples[i][0], samples[i][1]
		d := g.dry.next()
		w := g.wet.next()
		b := g.bass.next()

		wet := g.highpass.process(g.cancel.process(l, r), 0) * w
		bl := g.lowpass.process(l, 0) * b
		br := g.lowpass.process(r, 1) * b

		samples[i][0] = l*d + wet + bl
		samples[i][1] = r*d + wet + br
	}
	g.dry.publish()
	g.wet.publish()
	g.bass.publish()
	g.out.publish(samples[:n])
	return n, ok
}

// Err implements beep.Streamer.
func (g *Graph) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.src.s == nil {
		return nil
	}
	return g.src.s.Err()
}

// Teardown disconnects every node in reverse construction order. Capture
// subscriptions are closed first, the source is released last. Calling it
// more than once is harmless.
func (g *Graph) Teardown() {
	if g == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.torn.Swap(true) {
		return
	}
	for i := len(g.nodes) - 1; i >= 0; i-- {
		g.nodes[i].disconnect()
		g.teardown = append(g.teardown, g.nodes[i].name())
	}
	g.log.Debug("graph torn down", "nodes", len(g.nodes))
}
