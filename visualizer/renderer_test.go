package visualizer

import (
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beatcanvas/canvas/canvastest"
	"beatcanvas/spectrum"
)

func loud() spectrum.Snapshot {
	var s spectrum.Snapshot
	for i := range s.Magnitudes {
		s.Magnitudes[i] = uint8(120 + i%100)
	}
	s.Average = 0.6
	return s
}

func TestEveryStyleHasHandlerAndName(t *testing.T) {
	for s := range NumStyles {
		require.NotNil(t, draws[s], s.String())
		got, err := ParseStyle(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	got, err := ParseStyle("Radial Bars")
	require.NoError(t, err)
	assert.Equal(t, RadialBars, got)
	_, err = ParseStyle("plasma")
	assert.Error(t, err)
	assert.Equal(t, WaveLine, RadialBars.Prev())
	assert.Equal(t, RadialBars, WaveLine.Next())
}

func TestHueAdvancesOnePerFrame(t *testing.T) {
	r := NewRenderer()
	for i := 1; i <= 1000; i++ {
		before := r.Hue()
		r.Advance()
		want := math.Mod(before+HueStep, 360)
		require.InDelta(t, want, r.Hue(), 1e-9)
		require.GreaterOrEqual(t, r.Hue(), 0.0)
		require.Less(t, r.Hue(), 360.0)
	}
	assert.InDelta(t, math.Mod(1000*HueStep, 360), r.Hue(), 1e-6)
}

func TestSilentSnapshotDrawsNothing(t *testing.T) {
	r := NewRenderer()
	for s := range NumStyles {
		rec := canvastest.New(640, 360)
		r.Draw(rec, spectrum.Snapshot{}, s, 60, Paint{Rainbow: true})
		assert.Zero(t, rec.Calls, s.String())
	}
}

func TestStylesDrawFiniteGeometry(t *testing.T) {
	r := NewRenderer()
	snap := loud()
	for _, size := range []float64{1, 60, 200, 500} {
		for s := range NumStyles {
			rec := canvastest.New(640, 360)
			r.Draw(rec, snap, s, size, Paint{Fixed: color.RGBA{255, 255, 255, 255}})
			assert.False(t, rec.NaN, "%s at %v%%", s, size)
			assert.Positive(t, rec.Draws(), "%s at %v%%", s, size)
			assert.Zero(t, rec.Depth, "%s leaves the transform stack unbalanced", s)
		}
		r.Advance()
	}
}

func TestNonPositiveSizeDrawsNothing(t *testing.T) {
	r := NewRenderer()
	for _, size := range []float64{0, -10, math.NaN()} {
		rec := canvastest.New(100, 100)
		r.Draw(rec, loud(), RadialBars, size, Paint{})
		assert.Zero(t, rec.Calls)
	}
}

func TestRainbowPaintVariesFixedDoesNot(t *testing.T) {
	r := NewRenderer()
	fixed := color.RGBA{10, 200, 30, 255}

	rec := canvastest.New(400, 400)
	r.Draw(rec, loud(), RadialBars, 80, Paint{Fixed: fixed})
	for _, c := range rec.Colors {
		require.Equal(t, color.Color(fixed), c)
	}

	rec = canvastest.New(400, 400)
	r.Draw(rec, loud(), RadialBars, 80, Paint{Fixed: fixed, Rainbow: true})
	seen := map[color.Color]bool{}
	for _, c := range rec.Colors {
		seen[c] = true
	}
	assert.Greater(t, len(seen), 10)
}
