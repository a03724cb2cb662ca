// Package config holds the knobs the render loop reads every frame.
//
// A *Config is treated as immutable once handed to the engine. The control
// layer changes settings by cloning, editing and publishing the clone.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"beatcanvas/canvas"
	"beatcanvas/particles"
	"beatcanvas/visualizer"
)

// ErrInvalid reports a configuration that cannot be used as given.
var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Title    string  `yaml:"title"`
	Subtitle string  `yaml:"subtitle"`
	FontSize float64 `yaml:"font_size"`

	LogoScale     float64 `yaml:"logo_scale"`
	RotationSpeed float64 `yaml:"rotation_speed"`
	BeatBoost     float64 `yaml:"beat_boost"`
	BeatSync      bool    `yaml:"beat_sync"`

	ShowVisualizer  bool             `yaml:"show_visualizer"`
	VisualizerStyle visualizer.Style `yaml:"visualizer_style"`
	VisualizerSize  float64          `yaml:"visualizer_size"`
	VisualizerColor string           `yaml:"visualizer_color"`
	Rainbow         bool             `yaml:"rainbow"`

	ShowParticles bool            `yaml:"show_particles"`
	ParticleStyle particles.Style `yaml:"particle_style"`
	ParticleCount int             `yaml:"particle_count"`
	ParticleColor string          `yaml:"particle_color"`

	Lyrics       string  `yaml:"lyrics"`
	LyricsSpeed  float64 `yaml:"lyrics_speed"`
	Karaoke      bool    `yaml:"karaoke"`
	KaraokeColor string  `yaml:"karaoke_color"`

	VocalSuppression bool    `yaml:"vocal_suppression"`
	PlaybackRate     float64 `yaml:"playback_rate"`
}

// Default returns the stock settings.
func Default() *Config {
	return &Config{
		Title:           "",
		Subtitle:        "",
		FontSize:        32,
		LogoScale:       1,
		RotationSpeed:   0.5,
		BeatBoost:       4,
		BeatSync:        true,
		ShowVisualizer:  true,
		VisualizerStyle: visualizer.RadialBars,
		VisualizerSize:  60,
		VisualizerColor: "#00e5ff",
		ShowParticles:   true,
		ParticleStyle:   particles.Drift,
		ParticleCount:   120,
		ParticleColor:   "#ffffff",
		LyricsSpeed:     2,
		KaraokeColor:    "#ff3d7f",
		PlaybackRate:    1,
	}
}

// Clone returns an independent copy.
func (c *Config) Clone() *Config {
	if c == nil {
		return Default()
	}
	cp := *c
	return &cp
}

// Limits applied by Normalize.
const (
	MaxParticles      = particles.DefaultCapacity
	MinVisualizerSize = 10
	MaxVisualizerSize = 100
	MinRate           = 0.25
	MaxRate           = 4
)

// Normalize clamps every numeric knob into its usable range and replaces
// unusable values with defaults. It never fails.
func (c *Config) Normalize() *Config {
	d := Default()
	n := c.Clone()
	n.FontSize = clamp(n.FontSize, 8, 200, d.FontSize)
	n.LogoScale = clamp(n.LogoScale, 0.1, 3, d.LogoScale)
	n.RotationSpeed = clamp(n.RotationSpeed, -20, 20, d.RotationSpeed)
	n.BeatBoost = clamp(n.BeatBoost, 0, 50, d.BeatBoost)
	n.VisualizerSize = clamp(n.VisualizerSize, MinVisualizerSize, MaxVisualizerSize, d.VisualizerSize)
	n.LyricsSpeed = clamp(n.LyricsSpeed, 0, 20, d.LyricsSpeed)
	n.PlaybackRate = clamp(n.PlaybackRate, MinRate, MaxRate, d.PlaybackRate)
	n.ParticleCount = max(0, min(MaxParticles, n.ParticleCount))
	if !n.VisualizerStyle.Valid() {
		n.VisualizerStyle = d.VisualizerStyle
	}
	if !n.ParticleStyle.Valid() {
		n.ParticleStyle = d.ParticleStyle
	}
	for _, p := range []struct {
		v   *string
		def string
	}{
		{&n.VisualizerColor, d.VisualizerColor},
		{&n.ParticleColor, d.ParticleColor},
		{&n.KaraokeColor, d.KaraokeColor},
	} {
		if _, err := canvas.ParseHex(*p.v); err != nil {
			*p.v = p.def
		}
	}
	return n
}

func clamp(v, lo, hi, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return math.Max(lo, math.Min(hi, v))
}

// Validate reports the first knob that Normalize would have to change.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil config", ErrInvalid)
	}
	n := c.Normalize()
	switch {
	case n.VisualizerStyle != c.VisualizerStyle:
		return fmt.Errorf("%w: visualizer_style %v", ErrInvalid, c.VisualizerStyle)
	case n.ParticleStyle != c.ParticleStyle:
		return fmt.Errorf("%w: particle_style %v", ErrInvalid, c.ParticleStyle)
	case n.ParticleCount != c.ParticleCount:
		return fmt.Errorf("%w: particle_count %d outside [0, %d]", ErrInvalid, c.ParticleCount, MaxParticles)
	case n.VisualizerSize != c.VisualizerSize:
		return fmt.Errorf("%w: visualizer_size %v outside [%d, %d]", ErrInvalid, c.VisualizerSize, MinVisualizerSize, MaxVisualizerSize)
	case n.PlaybackRate != c.PlaybackRate:
		return fmt.Errorf("%w: playback_rate %v outside [%v, %v]", ErrInvalid, c.PlaybackRate, MinRate, MaxRate)
	case n.VisualizerColor != c.VisualizerColor:
		return fmt.Errorf("%w: visualizer_color %q", ErrInvalid, c.VisualizerColor)
	case n.ParticleColor != c.ParticleColor:
		return fmt.Errorf("%w: particle_color %q", ErrInvalid, c.ParticleColor)
	case n.KaraokeColor != c.KaraokeColor:
		return fmt.Errorf("%w: karaoke_color %q", ErrInvalid, c.KaraokeColor)
	case n.FontSize != c.FontSize, n.LogoScale != c.LogoScale, n.RotationSpeed != c.RotationSpeed,
		n.BeatBoost != c.BeatBoost, n.LyricsSpeed != c.LyricsSpeed:
		return fmt.Errorf("%w: numeric setting out of range", ErrInvalid)
	}
	return nil
}

// Load reads a YAML file over the defaults. Unknown keys are rejected so a
// typo does not silently fall back to a default.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	c, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func read(r io.Reader) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Encode serializes c into the opaque blob handed to whatever persists
// projects. Callers must not interpret its contents.
func Encode(c *Config) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil config", ErrInvalid)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode restores a blob produced by Encode. Missing keys keep defaults.
func Decode(blob []byte) (*Config, error) {
	return read(bytes.NewReader(blob))
}
