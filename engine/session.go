// Package engine owns one rendering session: the loaded track, its routing
// graph and spectrum tap, the compositor loop and an optional recording.
// Every exit path goes through Clear, which tears all of it down.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep/v2"

	"beatcanvas/canvas"
	"beatcanvas/capture"
	"beatcanvas/compositor"
	"beatcanvas/config"
	"beatcanvas/player"
	"beatcanvas/routing"
	"beatcanvas/spectrum"
)

// tapSize is how many recent samples the spectrum tap keeps.
const tapSize = 4096

// ErrClosed is returned when loading into a closed session.
var ErrClosed = errors.New("engine: session closed")

type Options struct {
	SampleRate    beep.SampleRate
	Width, Height int
	Seed          int64

	Output  player.Output
	Encoder capture.Encoder
	// Routing overrides the graph options for a sample rate.
	Routing func(beep.SampleRate) routing.Options
	Logger  *log.Logger
}

// Session is the owner. Its methods are meant to be called from the
// frame-callback goroutine; Config and Update may be called from anywhere.
type Session struct {
	opts Options
	log  *log.Logger
	cfg  atomic.Pointer[config.Config]

	mu       sync.Mutex
	player   *player.Player
	graph    *routing.Graph
	tap      *spectrum.Tap
	sampler  *spectrum.Sampler
	head     beep.Streamer
	loop     *compositor.Loop
	exporter *capture.Exporter
	rec      *capture.Session
	assets   compositor.Assets
	banner   string
	closed   bool
}

// New creates an idle session rendering cfg.
func New(opts Options, cfg *config.Config) *Session {
	if opts.SampleRate <= 0 {
		opts.SampleRate = 44100
	}
	if opts.Routing == nil {
		opts.Routing = routing.DefaultOptions
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	if opts.Output == nil {
		opts.Output = player.NewSpeaker(opts.SampleRate)
	}
	if opts.Encoder == nil {
		opts.Encoder = capture.NewFFmpeg(logger)
	}
	s := &Session{
		opts:     opts,
		log:      logger.With("component", "engine"),
		player:   player.New(opts.SampleRate, opts.Output, logger),
		exporter: capture.NewExporter(opts.Encoder, logger),
	}
	s.loop = compositor.New(compositor.Options{
		Width:  opts.Width,
		Height: opts.Height,
		Seed:   opts.Seed,
		Logger: logger,
	}, nil, nil)
	s.cfg.Store(cfg.Normalize())
	return s
}

// Config returns the current immutable snapshot.
func (s *Session) Config() *config.Config { return s.cfg.Load() }

// Update applies edit to a copy of the current config, normalizes and
// publishes it, and pushes the audio-side knobs to the player and graph.
func (s *Session) Update(edit func(c *config.Config)) *config.Config {
	for {
		old := s.cfg.Load()
		next := old.Clone()
		edit(next)
		next = next.Normalize()
		if s.cfg.CompareAndSwap(old, next) {
			s.applyAudio(next)
			return next
		}
	}
}

func (s *Session) applyAudio(c *config.Config) {
	s.mu.Lock()
	graph := s.graph
	s.mu.Unlock()
	graph.SetSuppression(c.VocalSuppression)
	s.player.SetRate(c.PlaybackRate)
}

// LoadAudio replaces the current track. The routing graph is optional: if
// it cannot be built the track plays dry and the visuals see silence.
func (s *Session) LoadAudio(path string) error {
	s.Clear()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	src, err := s.player.Load(path)
	if err != nil {
		s.banner = err.Error()
		return err
	}

	cfg := s.Config()
	ropts := s.opts.Routing(s.player.SampleRate())
	ropts.Suppressed = cfg.VocalSuppression
	ropts.Logger = s.log
	head := src
	graph, err := routing.Configure(src, ropts)
	switch {
	case errors.Is(err, routing.ErrGraphInit):
		s.log.Warn("playing without routing graph", "err", err)
	case err != nil:
		s.player.Stop()
		return err
	default:
		s.graph = graph
		s.tap = spectrum.NewTap(graph, tapSize)
		s.sampler = spectrum.NewSampler(s.tap)
		head = s.tap
	}
	s.head = head
	s.player.SetRate(cfg.PlaybackRate)
	s.loop.SetSources(s.sampler, s.player)

	if err := s.player.Play(head); err != nil {
		s.clearLocked()
		s.banner = err.Error()
		return fmt.Errorf("load %s: %w", path, err)
	}
	s.banner = ""
	return nil
}

// Playing reports whether audio is advancing.
func (s *Session) Playing() bool { return s.player.Playing() }

// Resume unpauses, or starts the loaded track if it has not been started.
func (s *Session) Resume() error {
	switch s.player.State() {
	case player.Paused:
		return s.player.Resume()
	case player.Idle:
		s.mu.Lock()
		head := s.head
		s.mu.Unlock()
		if head == nil {
			return player.ErrNotLoaded
		}
		return s.player.Play(head)
	}
	return nil
}

// TogglePlay pauses or resumes.
func (s *Session) TogglePlay() {
	if s.player.State() == player.Idle {
		if err := s.Resume(); err != nil {
			s.setBanner(err)
		}
		return
	}
	s.player.TogglePause()
}

// Seek moves playback by d.
func (s *Session) Seek(d time.Duration) {
	if err := s.player.Seek(d); err != nil && !errors.Is(err, player.ErrNotLoaded) {
		s.setBanner(err)
	}
}

// SetAssets replaces background and logo images; nil clears one.
func (s *Session) SetAssets(bg, logo image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets = compositor.Assets{Background: bg, Logo: logo}
}

// LoadAssets reads background and logo files. Empty paths are skipped.
func (s *Session) LoadAssets(bgPath, logoPath string) error {
	var bg, logo image.Image
	var err error
	if bgPath != "" {
		if bg, err = canvas.LoadImage(bgPath); err != nil {
			return fmt.Errorf("background: %w", err)
		}
	}
	if logoPath != "" {
		if logo, err = canvas.LoadImage(logoPath); err != nil {
			return fmt.Errorf("logo: %w", err)
		}
	}
	s.SetAssets(bg, logo)
	return nil
}

// Frame paints one frame with the current config.
func (s *Session) Frame(now time.Time) error {
	s.mu.Lock()
	assets := s.assets
	s.mu.Unlock()
	return s.loop.Frame(now, s.Config(), assets)
}

// Run paints frames headlessly until ctx ends or the session closes.
func (s *Session) Run(ctx context.Context, interval time.Duration) error {
	return s.loop.Run(ctx, interval, func() (*config.Config, compositor.Assets) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.Config(), s.assets
	})
}

// StartRecording begins capturing frames and mixed audio. On failure the
// session is left as it was and the error is shown in the banner.
func (s *Session) StartRecording(ctx context.Context) error {
	s.mu.Lock()
	if s.rec != nil {
		s.mu.Unlock()
		return nil
	}
	var audio capture.AudioSource
	if s.graph != nil {
		audio = s.graph.MixedOutput()
	}
	s.mu.Unlock()

	wasState := s.player.State()
	rec, err := s.exporter.Start(ctx, s.loop, audio, s)
	if err != nil {
		if wasState == player.Paused && s.player.State() == player.Playing {
			s.player.TogglePause()
		}
		s.setBanner(err)
		return err
	}
	s.mu.Lock()
	s.rec = rec
	s.mu.Unlock()
	return nil
}

// Recording reports whether a recording is active.
func (s *Session) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec != nil
}

// RecordingStarted returns when the active recording began.
func (s *Session) RecordingStarted() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return time.Time{}, false
	}
	return s.rec.Started(), true
}

// StopRecording finalizes the active recording.
func (s *Session) StopRecording() (*capture.Recording, error) {
	s.mu.Lock()
	rec := s.rec
	s.rec = nil
	s.mu.Unlock()
	if rec == nil {
		return nil, capture.ErrNotRecording
	}
	out, err := s.exporter.Stop(rec)
	if err != nil {
		s.setBanner(err)
		return nil, err
	}
	return out, nil
}

// Clear stops recording and playback and tears the graph down. The
// session stays usable for the next LoadAudio.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

func (s *Session) clearLocked() {
	if s.rec != nil {
		s.exporter.Abort(s.rec)
		s.rec = nil
	}
	s.player.Stop()
	if s.graph != nil {
		s.graph.Teardown()
		s.graph = nil
	}
	if s.tap != nil {
		s.tap.Reset()
		s.tap = nil
	}
	s.sampler = nil
	s.head = nil
	s.loop.SetSources(nil, nil)
}

// Close clears the session and ends the compositor loop.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.clearLocked()
	s.loop.Close()
	s.closed = true
}

func (s *Session) setBanner(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.banner = err.Error()
	s.log.Error("session error", "err", err)
}

// Banner returns the last error shown to the user, if any.
func (s *Session) Banner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.banner
}

// DismissBanner clears the error banner.
func (s *Session) DismissBanner() {
	s.mu.Lock()
	s.banner = ""
	s.mu.Unlock()
}

func (s *Session) Loop() *compositor.Loop { return s.loop }
func (s *Session) Player() *player.Player { return s.player }

// Graph returns the routing graph, or nil when playing dry.
func (s *Session) Graph() *routing.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph
}
