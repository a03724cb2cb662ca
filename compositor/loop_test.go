package compositor

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beatcanvas/config"
	"beatcanvas/spectrum"
)

type fixedSpectrum struct {
	snap  spectrum.Snapshot
	panic bool
}

func (f *fixedSpectrum) Sample() spectrum.Snapshot {
	if f.panic {
		f.panic = false
		panic("tap exploded")
	}
	return f.snap
}

type playing bool

func (p playing) Playing() bool { return bool(p) }

type countingSink struct{ n int }

func (s *countingSink) WriteFrame(*image.RGBA) { s.n++ }

func energetic(avg float32) spectrum.Snapshot {
	var s spectrum.Snapshot
	for i := range s.Magnitudes {
		s.Magnitudes[i] = uint8(avg * 255)
	}
	s.Average = avg
	return s
}

func newLoop(spec Spectrum, play Playback) *Loop {
	return New(Options{Width: 160, Height: 90, Seed: 1, Logger: log.New(io.Discard)}, spec, play)
}

func TestLifecycle(t *testing.T) {
	l := newLoop(nil, nil)
	assert.Equal(t, NotStarted, l.State())

	t0 := time.Unix(1000, 0)
	require.NoError(t, l.Frame(t0, nil, Assets{}))
	assert.Equal(t, Running, l.State())

	l.Close()
	assert.Equal(t, Closed, l.State())
	assert.ErrorIs(t, l.Frame(t0.Add(time.Second), nil, Assets{}), ErrClosed)
}

func TestDeltaIsClamped(t *testing.T) {
	l := newLoop(nil, nil)
	t0 := time.Unix(1000, 0)
	require.NoError(t, l.Frame(t0, nil, Assets{}))
	assert.Zero(t, l.pool.Time(), "first frame has no time step")

	require.NoError(t, l.Frame(t0.Add(5*time.Second), nil, Assets{}))
	assert.InDelta(t, MaxDelta.Seconds(), l.pool.Time(), 1e-9)

	// A clock going backwards is a zero step.
	require.NoError(t, l.Frame(t0, nil, Assets{}))
	assert.InDelta(t, MaxDelta.Seconds(), l.pool.Time(), 1e-9)
}

func rotateFor(t *testing.T, spec Spectrum, play Playback, frames int) float64 {
	t.Helper()
	l := newLoop(spec, play)
	cfg := config.Default()
	now := time.Unix(0, 0)
	for range frames {
		require.NoError(t, l.Frame(now, cfg, Assets{}))
		now = now.Add(16 * time.Millisecond)
	}
	return l.Rotation()
}

func TestRotationBaselineAndBoost(t *testing.T) {
	cfg := config.Default()
	silentStopped := rotateFor(t, nil, playing(false), 20)
	silentPlaying := rotateFor(t, &fixedSpectrum{}, playing(true), 20)
	assert.InDelta(t, silentStopped, silentPlaying, 1e-9, "zero energy equals the silent baseline")
	assert.InDelta(t, cfg.RotationSpeed*0.016*60*19, silentStopped, 1e-6)

	loudStopped := rotateFor(t, &fixedSpectrum{snap: energetic(0.5)}, playing(false), 20)
	assert.InDelta(t, silentStopped, loudStopped, 1e-9, "no beat boost while stopped")

	loudPlaying := rotateFor(t, &fixedSpectrum{snap: energetic(0.5)}, playing(true), 20)
	assert.Greater(t, loudPlaying, silentPlaying)
}

func TestHueAdvancesOncePerFrameRegardless(t *testing.T) {
	for _, p := range []playing{false, true} {
		l := newLoop(&fixedSpectrum{}, p)
		cfg := config.Default()
		cfg.ShowVisualizer = false
		for i := range 10 {
			require.NoError(t, l.Frame(time.Unix(int64(i), 0), cfg, Assets{}))
		}
		assert.InDelta(t, 10*0.5, l.Hue(), 1e-9)
	}
}

func TestPanickingFrameIsSkipped(t *testing.T) {
	spec := &fixedSpectrum{panic: true}
	l := newLoop(spec, nil)
	sink := &countingSink{}
	l.AddSink(sink)

	err := l.Frame(time.Unix(0, 0), nil, Assets{})
	assert.ErrorIs(t, err, ErrFrameSkipped)
	assert.Zero(t, sink.n)

	require.NoError(t, l.Frame(time.Unix(1, 0), nil, Assets{}))
	frames, skipped := l.Stats()
	assert.Equal(t, 1, frames)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, 1, sink.n)
}

func TestSinksAttachAndDetach(t *testing.T) {
	l := newLoop(nil, nil)
	a, b := &countingSink{}, &countingSink{}
	removeA := l.AddSink(a)
	l.AddSink(b)

	require.NoError(t, l.Frame(time.Unix(0, 0), nil, Assets{}))
	removeA()
	removeA()
	require.NoError(t, l.Frame(time.Unix(1, 0), nil, Assets{}))
	assert.Equal(t, 1, a.n)
	assert.Equal(t, 2, b.n)
}

func TestBackgroundCoverAndGradient(t *testing.T) {
	l := newLoop(nil, nil)
	cfg := config.Default()
	cfg.ShowParticles = false

	require.NoError(t, l.Frame(time.Unix(0, 0), cfg, Assets{}))
	img := l.Image()
	assert.NotEqual(t, img.RGBAAt(80, 0), img.RGBAAt(80, 89), "gradient fallback")

	red := image.NewRGBA(image.Rect(0, 0, 40, 40))
	for i := 0; i < len(red.Pix); i += 4 {
		copy(red.Pix[i:], []byte{255, 0, 0, 255})
	}
	require.NoError(t, l.Frame(time.Unix(1, 0), cfg, Assets{Background: red}))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, l.Image().RGBAAt(2, 2))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, l.Image().RGBAAt(157, 87))
}

func TestLogoIsClippedToCircle(t *testing.T) {
	l := newLoop(nil, nil)
	cfg := config.Default()
	cfg.ShowParticles = false
	cfg.LogoScale = 3

	green := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for i := 0; i < len(green.Pix); i += 4 {
		copy(green.Pix[i:], []byte{0, 255, 0, 255})
	}
	require.NoError(t, l.Frame(time.Unix(0, 0), cfg, Assets{Logo: green}))
	img := l.Image()
	center := img.RGBAAt(80, 45)
	assert.Equal(t, uint8(255), center.G)
	assert.Zero(t, center.R)
	corner := img.RGBAAt(1, 1)
	assert.NotEqual(t, uint8(255), corner.G, "outside the circle stays background")
}

func TestLyricsOffsetWraps(t *testing.T) {
	l := newLoop(nil, nil)
	cfg := config.Default()
	cfg.Lyrics = "la la\nla"
	cfg.LyricsSpeed = 20

	now := time.Unix(0, 0)
	var wrapped bool
	prev := 0.0
	for range 400 {
		require.NoError(t, l.Frame(now, cfg, Assets{}))
		now = now.Add(50 * time.Millisecond)
		off := l.LyricOffset()
		require.GreaterOrEqual(t, off, 0.0)
		require.LessOrEqual(t, off, 160+l.lyrics.width+20*30*MaxDelta.Seconds())
		if off < prev {
			wrapped = true
		}
		prev = off
	}
	assert.True(t, wrapped)

	cfg.Karaoke = true
	require.NoError(t, l.Frame(now, cfg, Assets{}))
	assert.InDelta(t, 20*30*0.05, l.LyricOffset(), 1e-9, "switching mode restarts the scroll")
}

func TestRunStopsWithContext(t *testing.T) {
	l := newLoop(nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	err := l.Run(ctx, 5*time.Millisecond, func() (*config.Config, Assets) {
		return config.Default(), Assets{}
	})
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	frames, _ := l.Stats()
	assert.GreaterOrEqual(t, frames, 2)

	l.Close()
	assert.NoError(t, l.Run(context.Background(), time.Millisecond, func() (*config.Config, Assets) {
		return nil, Assets{}
	}))
}

func TestKaraokeStrokesInAccentAndFillsSolid(t *testing.T) {
	l := New(Options{Width: 320, Height: 180, Seed: 1, Logger: log.New(io.Discard)}, nil, nil)
	cfg := config.Default()
	cfg.ShowParticles = false
	cfg.ShowVisualizer = false
	cfg.Lyrics = "OOOOOOOO"
	cfg.LyricsSpeed = 20
	cfg.Karaoke = true
	cfg.KaraokeColor = "#ff0000"

	now := time.Unix(0, 0)
	for range 6 {
		require.NoError(t, l.Frame(now, cfg, Assets{}))
		now = now.Add(50 * time.Millisecond)
	}

	img := l.Image()
	var face, stroke, outline int
	for y := 120; y < 180; y++ {
		for x := 0; x < 320; x++ {
			c := img.RGBAAt(x, y)
			switch {
			case c.R >= 235 && c.G >= 235 && c.B >= 235:
				face++
			case c.R >= 200 && c.G <= 60 && c.B <= 60:
				stroke++
			case c.R == 0 && c.G == 0 && c.B == 0:
				outline++
			}
		}
	}
	assert.Positive(t, face, "solid face")
	assert.Positive(t, stroke, "accent stroke")
	assert.Zero(t, outline, "no dark outline")
}
