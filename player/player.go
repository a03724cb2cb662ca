// Package player decodes a track and exposes it as a pausable, seekable,
// rate-adjustable stream for the routing graph.
package player

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep/v2"
)

// ErrNotLoaded is returned by operations that need a track.
var ErrNotLoaded = errors.New("player: no track loaded")

// Rate bounds.
const (
	MinRate = 0.25
	MaxRate = 4.0
)

// State is the transport state.
type State int

const (
	Idle State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "idle"
	}
}

// Player owns the decoded track:
//
//	[Decode] -> [Resample (rate)] -> [Ctrl] -> Source()
//
// Pausing happens at the source so everything downstream keeps running on
// silence. The caller routes Source() and hands the head of its chain to Play.
type Player struct {
	mu        sync.Mutex
	sr        beep.SampleRate
	out       Output
	log       *log.Logger
	streamer  beep.StreamSeekCloser
	format    beep.Format
	resampler *beep.Resampler
	ctrl      *beep.Ctrl
	state     State
	rate      float64
	path      string
	trackDone atomic.Bool
	file      *os.File
}

// New creates a Player rendering at sr into out.
func New(sr beep.SampleRate, out Output, logger *log.Logger) *Player {
	if logger == nil {
		logger = log.Default()
	}
	return &Player{sr: sr, out: out, rate: 1, log: logger.With("component", "player")}
}

// SampleRate is the output rate of Source.
func (p *Player) SampleRate() beep.SampleRate { return p.sr }

// Load stops whatever is playing, decodes path and leaves the player Idle
// with a fresh source. Errors wrap ErrDecode and leave nothing loaded.
func (p *Player) Load(path string) (beep.Streamer, error) {
	p.Stop()

	streamer, format, f, err := decodeFile(path)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.file = f
	p.streamer = streamer
	p.format = format
	p.path = path
	p.resampler = beep.ResampleRatio(4, p.ratio(), streamer)
	p.ctrl = &beep.Ctrl{Streamer: p.resampler}
	p.state = Idle
	p.trackDone.Store(false)
	p.log.Info("track loaded", "path", path, "rate", format.SampleRate, "duration", format.SampleRate.D(streamer.Len()).Round(time.Second))
	return p.ctrl, nil
}

func (p *Player) ratio() float64 {
	return float64(p.format.SampleRate) / float64(p.sr) * p.rate
}

// Source returns the pausable stream of the loaded track, or nil.
func (p *Player) Source() beep.Streamer {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctrl == nil {
		return nil
	}
	return p.ctrl
}

// Play starts head on the output. head is normally the routing graph built
// on Source; nil plays Source directly.
func (p *Player) Play(head beep.Streamer) error {
	p.mu.Lock()
	if p.ctrl == nil {
		p.mu.Unlock()
		return ErrNotLoaded
	}
	ctrl := p.ctrl
	if head == nil {
		head = ctrl
	}
	p.trackDone.Store(false)
	p.mu.Unlock()

	p.out.Lock()
	ctrl.Paused = false
	p.out.Unlock()

	err := p.out.Play(beep.Seq(head, beep.Callback(func() {
		p.trackDone.Store(true)
	})))
	if err != nil {
		return fmt.Errorf("play: %w", err)
	}

	p.mu.Lock()
	p.state = Playing
	p.mu.Unlock()
	return nil
}

// TogglePause flips between Playing and Paused. It does nothing when Idle.
func (p *Player) TogglePause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctrl == nil || p.state == Idle {
		return
	}
	p.out.Lock()
	p.ctrl.Paused = !p.ctrl.Paused
	p.out.Unlock()
	if p.ctrl.Paused {
		p.state = Paused
	} else {
		p.state = Playing
	}
}

// Resume unpauses a paused track. It is a no-op when already playing.
func (p *Player) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.ctrl == nil:
		return ErrNotLoaded
	case p.state == Idle:
		return errors.New("player: not started")
	case p.state == Paused:
		p.out.Lock()
		p.ctrl.Paused = false
		p.out.Unlock()
		p.state = Playing
	}
	return nil
}

// Stop clears the output and releases the track.
func (p *Player) Stop() {
	p.out.Clear()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer != nil {
		p.streamer.Close()
		p.streamer = nil
	}
	if p.file != nil {
		p.file.Close()
		p.file = nil
	}
	p.ctrl = nil
	p.resampler = nil
	p.path = ""
	p.state = Idle
	p.trackDone.Store(false)
}

// Seek moves the playback position by d, clamped to the track.
func (p *Player) Seek(d time.Duration) error {
	return p.seek(func(cur time.Duration) time.Duration { return cur + d })
}

// SeekTo moves to an absolute position, clamped to the track.
func (p *Player) SeekTo(pos time.Duration) error {
	return p.seek(func(time.Duration) time.Duration { return pos })
}

func (p *Player) seek(to func(time.Duration) time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer == nil {
		return ErrNotLoaded
	}
	p.out.Lock()
	defer p.out.Unlock()
	cur := p.format.SampleRate.D(p.streamer.Position())
	n := p.format.SampleRate.N(to(cur))
	n = max(0, min(n, p.streamer.Len()-1))
	if err := p.streamer.Seek(n); err != nil {
		return fmt.Errorf("seek: %w", err)
	}
	return nil
}

// Position returns the current track position.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer == nil {
		return 0
	}
	p.out.Lock()
	defer p.out.Unlock()
	return p.format.SampleRate.D(p.streamer.Position())
}

// Duration returns the total duration of the current track.
func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer == nil {
		return 0
	}
	return p.format.SampleRate.D(p.streamer.Len())
}

// SetRate changes the playback rate, clamped to [MinRate, MaxRate]. Pitch
// follows the rate.
func (p *Player) SetRate(rate float64) {
	if math.IsNaN(rate) || rate <= 0 {
		rate = 1
	}
	rate = max(MinRate, min(MaxRate, rate))
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rate == rate {
		return
	}
	p.rate = rate
	if p.resampler != nil {
		p.out.Lock()
		p.resampler.SetRatio(p.ratio())
		p.out.Unlock()
	}
}

// Rate returns the playback rate.
func (p *Player) Rate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rate
}

// State returns the transport state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Playing reports whether audio is currently advancing.
func (p *Player) Playing() bool {
	return p.State() == Playing && !p.TrackDone()
}

// Path returns the loaded track's path.
func (p *Player) Path() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.path
}

// TrackDone returns true if the current track has finished playing.
func (p *Player) TrackDone() bool {
	return p.trackDone.Load()
}

// Close stops playback and cleans up.
func (p *Player) Close() {
	p.Stop()
}
