package player

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// ErrOutput reports that the audio device could not be opened.
var ErrOutput = errors.New("player: audio output unavailable")

// Output is where finished audio goes. Lock and Unlock guard state the
// output goroutine reads while streaming.
type Output interface {
	Play(s ...beep.Streamer) error
	Clear()
	Lock()
	Unlock()
}

// Speaker is the Output backed by the system speaker. The device is opened
// on first Play.
type Speaker struct {
	sr  beep.SampleRate
	buf time.Duration

	once sync.Once
	err  error
}

// NewSpeaker returns a speaker output at sr with a 100ms buffer.
func NewSpeaker(sr beep.SampleRate) *Speaker {
	return &Speaker{sr: sr, buf: time.Second / 10}
}

func (s *Speaker) init() error {
	s.once.Do(func() {
		if err := speaker.Init(s.sr, s.sr.N(s.buf)); err != nil {
			s.err = fmt.Errorf("%w: %w", ErrOutput, err)
		}
	})
	return s.err
}

func (s *Speaker) Play(streamers ...beep.Streamer) error {
	if err := s.init(); err != nil {
		return err
	}
	speaker.Play(streamers...)
	return nil
}

func (s *Speaker) Clear() {
	if s.init() == nil {
		speaker.Clear()
	}
}

func (s *Speaker) Lock() {
	if s.init() == nil {
		speaker.Lock()
	}
}

func (s *Speaker) Unlock() {
	if s.init() == nil {
		speaker.Unlock()
	}
}
