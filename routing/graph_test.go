package routing

import (
	"math"
	"math/rand"
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sr = beep.SampleRate(44100)

// partial is one sine component of a test signal.
type partial struct {
	freq        float64
	amp         float64
	left, right bool
}

// signal mixes sine partials into a stereo stream.
func signal(parts ...partial) beep.Streamer {
	var n int
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			t := float64(n) / float64(sr)
			var l, r float64
			for _, p := range parts {
				v := p.amp * math.Sin(2*math.Pi*p.freq*t)
				if p.left {
					l += v
				}
				if p.right {
					r += v
				}
			}
			samples[i] = [2]float64{l, r}
			n++
		}
		return len(samples), true
	})
}

func silence() beep.Streamer {
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		clear(samples)
		return len(samples), true
	})
}

// amplitude estimates the amplitude of freq in x by projecting onto a
// complex exponential. x must span an integer number of cycles.
func amplitude(x []float64, freq float64) float64 {
	var re, im float64
	for i, v := range x {
		ph := 2 * math.Pi * freq * float64(i) / float64(sr)
		re += v * math.Cos(ph)
		im -= v * math.Sin(ph)
	}
	return 2 * math.Hypot(re, im) / float64(len(x))
}

func window(x []float64, from, to float64) []float64 {
	return x[int(math.Round(from*float64(sr))):int(math.Round(to*float64(sr)))]
}

func TestConfigureRejectsBadInput(t *testing.T) {
	_, err := Configure(nil, DefaultOptions(sr))
	assert.ErrorIs(t, err, ErrGraphInit)

	bad := []func(*Options){
		func(o *Options) { o.SampleRate = 0 },
		func(o *Options) { o.CrossoverHz = 30000 },
		func(o *Options) { o.CrossoverHz = 0 },
		func(o *Options) { o.TimeConstant = 0 },
		func(o *Options) { o.SuppressedGain = 2 },
		func(o *Options) { o.NormalGain = math.NaN() },
	}
	for i, mutate := range bad {
		opts := DefaultOptions(sr)
		mutate(&opts)
		g, err := Configure(silence(), opts)
		assert.ErrorIs(t, err, ErrGraphInit, "case %d", i)
		assert.Nil(t, g, "case %d", i)
	}
}

func TestSuppressionBeforeConfigureIsNoOp(t *testing.T) {
	var g *Graph
	assert.NotPanics(t, func() { g.SetSuppression(true) })
	assert.False(t, g.Suppressed())
	assert.NotPanics(t, g.Teardown)
}

func TestGainsStayContinuousUnderToggles(t *testing.T) {
	opts := DefaultOptions(sr)
	g, err := Configure(silence(), opts)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	tauSamples := int(opts.TimeConstant * float64(sr))
	perSample := (1 - math.Exp(-1/(opts.TimeConstant*float64(sr)))) * MaxGain
	windowEps := (1 - math.Exp(-1)) * MaxGain

	buf := make([][2]float64, 1)
	var trace [][3]float64
	for i := range 3 * int(sr) {
		if rng.Intn(2000) == 0 {
			g.SetSuppression(!g.Suppressed())
		}
		if i == 1000 {
			// Rapid flip-flop must not produce a step either.
			g.SetSuppression(true)
			g.SetSuppression(false)
			g.SetSuppression(true)
		}
		g.Stream(buf)
		d, w, b := g.Gains()
		trace = append(trace, [3]float64{d, w, b})
	}

	for i := 1; i < len(trace); i++ {
		for k := range 3 {
			v := trace[i][k]
			require.GreaterOrEqual(t, v, 0.0)
			require.LessOrEqual(t, v, MaxGain)
			if math.Abs(v-trace[i-1][k]) > perSample+1e-12 {
				t.Fatalf("gain %d jumped %.6f at sample %d", k, v-trace[i-1][k], i)
			}
		}
	}
	for i := 0; i+tauSamples < len(trace); i += 97 {
		for k := range 3 {
			if d := math.Abs(trace[i+tauSamples-1][k] - trace[i][k]); d > windowEps {
				t.Fatalf("gain %d moved %.4f within one time constant at %d", k, d, i)
			}
		}
	}
}

func TestSuppressionDropsVocalsKeepsBass(t *testing.T) {
	const (
		bassHz  = 60.0
		vocalHz = 1000.0
		sideHz  = 3000.0
	)
	src := signal(
		partial{freq: bassHz, amp: 0.4, left: true, right: true},
		partial{freq: vocalHz, amp: 0.3, left: true, right: true},
		partial{freq: sideHz, amp: 0.1, left: true},
	)
	g, err := Configure(src, DefaultOptions(sr))
	require.NoError(t, err)

	const block = 441
	total := 10 * int(sr)
	left := make([]float64, 0, total)
	right := make([]float64, 0, total)
	buf := make([][2]float64, block)
	for n := 0; n < total; n += block {
		if n == 5*int(sr) {
			g.SetSuppression(true)
		}
		got, ok := g.Stream(buf)
		require.True(t, ok)
		for _, s := range buf[:got] {
			left = append(left, s[0])
			right = append(right, s[1])
		}
	}

	mono := make([]float64, len(left))
	for i := range left {
		mono[i] = (left[i] + right[i]) / 2
	}

	before := window(mono, 4.8, 4.9)
	// The last 100ms of the first 200ms after the switch.
	after := window(mono, 5.1, 5.2)

	vocalBefore, vocalAfter := amplitude(before, vocalHz), amplitude(after, vocalHz)
	bassBefore, bassAfter := amplitude(before, bassHz), amplitude(after, bassHz)

	assert.InDelta(t, 0.3, vocalBefore, 0.01)
	assert.Less(t, vocalAfter, vocalBefore/3, "vocal band must drop within 200ms")
	assert.InDelta(t, bassBefore, bassAfter, 0.1*bassBefore, "bass band must hold")

	// Off-center content survives on the suppressed path.
	sideBefore := amplitude(window(left, 4.8, 4.9), sideHz)
	sideAfter := amplitude(window(left, 5.1, 5.2), sideHz)
	assert.Greater(t, sideAfter, 0.9*sideBefore)

	// Fully settled: vocals essentially gone.
	settled := window(mono, 9.0, 9.1)
	assert.Less(t, amplitude(settled, vocalHz), vocalBefore/20)
	assert.InDelta(t, bassBefore, amplitude(settled, bassHz), 0.1*bassBefore)
}

func TestTeardownReverseOrder(t *testing.T) {
	g, err := Configure(silence(), DefaultOptions(sr))
	require.NoError(t, err)
	sub := g.MixedOutput().Subscribe(4)

	built := g.Nodes()
	require.Equal(t, "source", built[0])
	g.Teardown()
	g.Teardown()

	want := make([]string, len(built))
	for i, n := range built {
		want[len(built)-1-i] = n
	}
	assert.Equal(t, want, g.teardown)

	_, open := <-sub.C
	assert.False(t, open, "subscriptions close on teardown")

	n, ok := g.Stream(make([][2]float64, 16))
	assert.Zero(t, n)
	assert.False(t, ok)
	assert.NoError(t, g.Err())

	g.SetSuppression(true)
	assert.False(t, g.Suppressed(), "toggles after teardown are ignored")

	late := g.MixedOutput().Subscribe(1)
	_, open = <-late.C
	assert.False(t, open)
}

func TestMixedOutputDeliversInOrderWithoutBlocking(t *testing.T) {
	var n float64
	src := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			n++
			samples[i] = [2]float64{n / 1000, -n / 1000}
		}
		return len(samples), true
	})
	g, err := Configure(src, DefaultOptions(sr))
	require.NoError(t, err)

	sub := g.MixedOutput().Subscribe(2)
	buf := make([][2]float64, 4)
	for range 5 {
		g.Stream(buf)
	}
	assert.Equal(t, int64(3), sub.Dropped())
	assert.Equal(t, 12, sub.TrailingGap())

	first := <-sub.C
	second := <-sub.C
	require.Len(t, first.Samples, 8)
	assert.Zero(t, first.Gap)
	assert.InDelta(t, 0.001, first.Samples[0], 1e-6)
	assert.InDelta(t, -0.001, first.Samples[1], 1e-6)
	assert.InDelta(t, 0.005, second.Samples[0], 1e-6)

	// The next delivered block reports the frames lost in between.
	g.Stream(buf)
	third := <-sub.C
	assert.Equal(t, 12, third.Gap)
	assert.InDelta(t, 0.021, third.Samples[0], 1e-6)
	assert.Zero(t, sub.TrailingGap())

	sub.Close()
	sub.Close()
	_, open := <-sub.C
	assert.False(t, open)
	g.Stream(buf) // no subscribers left; must not panic
}
