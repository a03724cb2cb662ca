// Package compositor paints one frame at a time: background, particles,
// visualizer, logo, labels and lyrics, in that order, onto a canvas that
// previews and the recorder read from.
package compositor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"beatcanvas/canvas"
	"beatcanvas/config"
	"beatcanvas/particles"
	"beatcanvas/spectrum"
	"beatcanvas/visualizer"
)

var (
	// ErrFrameSkipped wraps a panic recovered while painting a frame.
	ErrFrameSkipped = errors.New("compositor: frame skipped")
	// ErrClosed is returned by Frame once the loop has been closed.
	ErrClosed = errors.New("compositor: loop closed")
)

// MaxDelta caps the time step so a stalled frame does not teleport
// anything.
const MaxDelta = 100 * time.Millisecond

// State is the loop lifecycle.
type State int

const (
	NotStarted State = iota
	Running
	Closed
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Closed:
		return "closed"
	default:
		return "not-started"
	}
}

// Spectrum supplies one snapshot per frame. *spectrum.Sampler implements it.
type Spectrum interface {
	Sample() spectrum.Snapshot
}

// Playback reports whether audio is advancing.
type Playback interface {
	Playing() bool
}

// Assets are the optional images of the current project.
type Assets struct {
	Background image.Image
	Logo       image.Image
}

// FrameSink receives every finished frame. The image is only valid during
// the call.
type FrameSink interface {
	WriteFrame(img *image.RGBA)
}

type Options struct {
	Width, Height int
	// Seed drives particle placement.
	Seed   int64
	Logger *log.Logger
}

// Loop owns the canvas and all per-frame animation state. Frame must be
// called from a single goroutine.
type Loop struct {
	opts Options
	log  *log.Logger

	canvas *canvas.Canvas
	pool   *particles.Pool
	viz    *visualizer.Renderer
	spec   Spectrum
	play   Playback

	state    State
	last     time.Time
	rotation float64 // degrees
	snap     spectrum.Snapshot

	bg     coverCache
	logo   logoCache
	lyrics lyricState

	sinkMu sync.Mutex
	sinks  map[int]FrameSink
	nextID int

	frames  int
	skipped int
}

// New allocates the canvas and particle pool. spec and play may be nil, in
// which case the loop behaves as if audio were silent and stopped.
func New(opts Options, spec Spectrum, play Playback) *Loop {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 1280, 720
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Loop{
		opts:   opts,
		log:    logger.With("component", "compositor"),
		canvas: canvas.New(opts.Width, opts.Height),
		pool:   particles.NewPool(particles.DefaultCapacity, opts.Seed),
		viz:    visualizer.NewRenderer(),
		spec:   spec,
		play:   play,
		sinks:  make(map[int]FrameSink),
	}
}

// SetSources swaps the spectrum and playback the loop reads, for example
// after a new track was loaded.
func (l *Loop) SetSources(spec Spectrum, play Playback) {
	l.spec = spec
	l.play = play
}

// Frame paints one frame for the instant now using cfg. A panic while
// painting is recovered and reported as ErrFrameSkipped; the loop stays
// usable.
func (l *Loop) Frame(now time.Time, cfg *config.Config, assets Assets) (err error) {
	if l.state == Closed {
		return ErrClosed
	}
	defer func() {
		if r := recover(); r != nil {
			l.skipped++
			l.log.Error("frame panicked", "frame", l.frames, "panic", r)
			// The drawing stack may be unbalanced; start from a clean canvas.
			l.canvas = canvas.New(l.opts.Width, l.opts.Height)
			err = fmt.Errorf("%w: %v", ErrFrameSkipped, r)
		}
	}()
	if cfg == nil {
		cfg = config.Default()
	}

	dt := l.delta(now)
	c := l.canvas
	w, h := float64(c.Width()), float64(c.Height())

	l.drawBackground(c, assets.Background)

	var snap spectrum.Snapshot
	if l.spec != nil {
		snap = l.spec.Sample()
	}
	l.snap = snap
	playing := l.play != nil && l.play.Playing()
	energy := snap.Energy()

	if cfg.ShowParticles {
		l.pool.Step(dt, cfg.ParticleStyle, energy)
		pc := canvas.HexOr(cfg.ParticleColor, white)
		l.pool.Draw(c, cfg.ParticleCount, cfg.ParticleStyle, pc)
	}

	l.viz.Advance()
	if cfg.ShowVisualizer {
		paint := visualizer.Paint{
			Fixed:   canvas.HexOr(cfg.VisualizerColor, white),
			Rainbow: cfg.Rainbow,
		}
		l.viz.Draw(c, snap, cfg.VisualizerStyle, cfg.VisualizerSize, paint)
	}

	boost := 0.0
	if cfg.BeatSync && playing {
		boost = cfg.BeatBoost * energy
	}
	l.rotation = math.Mod(l.rotation+(cfg.RotationSpeed+boost)*dt*60, 360)
	logoR := l.drawLogo(c, assets.Logo, cfg, w, h)

	l.drawLabels(c, cfg, w, h, logoR)
	l.drawLyrics(c, cfg, dt, w, h)

	l.frames++
	l.publish(c.RGBA())
	return nil
}

// delta returns seconds since the previous frame clamped to [0, MaxDelta].
// The first frame moves the loop to Running with a zero step.
func (l *Loop) delta(now time.Time) float64 {
	if l.state == NotStarted {
		l.state = Running
		l.last = now
		return 0
	}
	d := now.Sub(l.last)
	l.last = now
	d = max(0, min(d, MaxDelta))
	return d.Seconds()
}

// AddSink mirrors every following frame to s until the returned function
// is called.
func (l *Loop) AddSink(s FrameSink) (remove func()) {
	l.sinkMu.Lock()
	id := l.nextID
	l.nextID++
	l.sinks[id] = s
	l.sinkMu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			l.sinkMu.Lock()
			delete(l.sinks, id)
			l.sinkMu.Unlock()
		})
	}
}

func (l *Loop) publish(img *image.RGBA) {
	l.sinkMu.Lock()
	defer l.sinkMu.Unlock()
	for _, s := range l.sinks {
		s.WriteFrame(img)
	}
}

// Close ends the loop. Later frames return ErrClosed.
func (l *Loop) Close() {
	l.state = Closed
	l.sinkMu.Lock()
	clear(l.sinks)
	l.sinkMu.Unlock()
}

func (l *Loop) State() State { return l.state }

// Image is the last painted frame. It is overwritten by the next Frame.
func (l *Loop) Image() *image.RGBA { return l.canvas.RGBA() }

// Snapshot is the spectrum used by the last frame.
func (l *Loop) Snapshot() spectrum.Snapshot { return l.snap }

// Rotation is the logo angle in degrees.
func (l *Loop) Rotation() float64 { return l.rotation }

// Hue is the visualizer's rainbow hue.
func (l *Loop) Hue() float64 { return l.viz.Hue() }

// Stats reports painted and skipped frame counts.
func (l *Loop) Stats() (frames, skipped int) { return l.frames, l.skipped }

// Size is the canvas size in pixels.
func (l *Loop) Size() (w, h int) { return l.opts.Width, l.opts.Height }

// Source yields the settings and assets for the next frame.
type Source func() (*config.Config, Assets)

// Run paints frames every interval until ctx is done or the loop is
// closed. The timer is re-armed after each frame, so a slow frame delays
// the next one instead of queueing up behind it.
func (l *Loop) Run(ctx context.Context, interval time.Duration, src Source) error {
	if interval <= 0 {
		interval = time.Second / 60
	}
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		cfg, assets := src()
		err := l.Frame(time.Now(), cfg, assets)
		switch {
		case errors.Is(err, ErrClosed):
			return nil
		case err != nil && !errors.Is(err, ErrFrameSkipped):
			return err
		}
		timer.Reset(interval)
	}
}
