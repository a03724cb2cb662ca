package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beatcanvas/particles"
	"beatcanvas/visualizer"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
	assert.Equal(t, Default(), Default().Normalize())
}

func TestNormalizeClamps(t *testing.T) {
	c := Default()
	c.ParticleCount = 10000
	c.VisualizerSize = math.NaN()
	c.PlaybackRate = 100
	c.VisualizerColor = "blue"
	c.VisualizerStyle = visualizer.NumStyles + 3
	c.LyricsSpeed = -1

	n := c.Normalize()
	assert.Equal(t, MaxParticles, n.ParticleCount)
	assert.Equal(t, Default().VisualizerSize, n.VisualizerSize)
	assert.Equal(t, float64(MaxRate), n.PlaybackRate)
	assert.Equal(t, Default().VisualizerColor, n.VisualizerColor)
	assert.Equal(t, visualizer.RadialBars, n.VisualizerStyle)
	assert.Zero(t, n.LyricsSpeed)
	require.NoError(t, n.Validate())

	assert.Equal(t, 10000, c.ParticleCount, "normalize must not touch the receiver")
}

func TestValidateReportsErrInvalid(t *testing.T) {
	cases := []func(*Config){
		func(c *Config) { c.ParticleCount = -1 },
		func(c *Config) { c.VisualizerSize = 5 },
		func(c *Config) { c.PlaybackRate = 0 },
		func(c *Config) { c.KaraokeColor = "#12" },
		func(c *Config) { c.ParticleStyle = particles.NumStyles },
		func(c *Config) { c.FontSize = math.Inf(1) },
	}
	for i, mutate := range cases {
		c := Default()
		mutate(c)
		assert.ErrorIs(t, c.Validate(), ErrInvalid, "case %d", i)
	}
	var nilConfig *Config
	assert.ErrorIs(t, nilConfig.Validate(), ErrInvalid)
}

func TestBlobRoundTrip(t *testing.T) {
	c := Default()
	c.Title = "Night Drive"
	c.VisualizerStyle = visualizer.Flower
	c.ParticleStyle = particles.Galaxy
	c.Lyrics = "line one\nline two"
	c.VocalSuppression = true

	blob, err := Encode(c)
	require.NoError(t, err)
	assert.Contains(t, string(blob), "visualizer_style: flower")
	assert.Contains(t, string(blob), "particle_style: galaxy")

	back, err := Decode(blob)
	require.NoError(t, err)
	assert.Equal(t, c, back)
}

func TestDecodeRejectsUnknownKeysAndStyles(t *testing.T) {
	_, err := Decode([]byte("visualiser_size: 40\n"))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Decode([]byte("particle_style: plasma\n"))
	assert.ErrorIs(t, err, ErrInvalid)

	c, err := Decode(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beatcanvas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
title: Live
visualizer_style: led-meter
particle_count: 40
rainbow: true
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Live", c.Title)
	assert.Equal(t, visualizer.LedMeter, c.VisualizerStyle)
	assert.Equal(t, 40, c.ParticleCount)
	assert.True(t, c.Rainbow)
	assert.Equal(t, Default().LyricsSpeed, c.LyricsSpeed)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
