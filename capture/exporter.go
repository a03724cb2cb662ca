// Package capture records the composited frames and the processed audio
// into one container file.
package capture

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep/v2"

	"beatcanvas/compositor"
	"beatcanvas/routing"
)

var (
	// ErrRecordingUnsupported means no usable encoder was found. Nothing
	// was created.
	ErrRecordingUnsupported = errors.New("capture: recording unsupported")
	// ErrAutoplayBlocked means playback could not be started for the
	// recording.
	ErrAutoplayBlocked = errors.New("capture: playback could not start")
	// ErrNotRecording is returned by Stop on a session that is not active.
	ErrNotRecording = errors.New("capture: not recording")
)

// State is the lifecycle of one Session. Active means frames and audio
// are being recorded.
type State int

const (
	Idle State = iota
	Active
	Finalizing
	Complete
)

func (s State) String() string {
	switch s {
	case Active:
		return "recording"
	case Finalizing:
		return "finalizing"
	case Complete:
		return "complete"
	default:
		return "idle"
	}
}

// FrameSource publishes composited frames. *compositor.Loop implements it.
type FrameSource interface {
	AddSink(s compositor.FrameSink) (remove func())
	Size() (w, h int)
}

// AudioSource publishes the mixed audio. *routing.MixedOutput implements
// it.
type AudioSource interface {
	Subscribe(depth int) *routing.Subscription
	SampleRate() beep.SampleRate
}

// Playback is started by Start when it is not already running.
type Playback interface {
	Playing() bool
	Resume() error
}

const (
	DefaultFPS = 60
	// chunkDepth bounds how many encoded chunks may wait for the consumer.
	chunkDepth  = 64
	chunkSize   = 32 << 10
	audioDepth  = 64
	finalizeMax = 30 * time.Second
)

// Exporter starts and stops recordings. It holds no per-recording state.
type Exporter struct {
	Encoder Encoder
	FPS     int
	// SilenceRate is the sample rate of the silent track written when there
	// is no audio source.
	SilenceRate beep.SampleRate

	log *log.Logger
	now func() time.Time
}

func NewExporter(enc Encoder, logger *log.Logger) *Exporter {
	if logger == nil {
		logger = log.Default()
	}
	return &Exporter{
		Encoder:     enc,
		FPS:         DefaultFPS,
		SilenceRate: 44100,
		log:         logger.With("component", "capture"),
		now:         time.Now,
	}
}

// Recording is the finished file.
type Recording struct {
	Name     string
	Data     []byte
	Profile  Profile
	Frames   int
	Duration time.Duration

	// DroppedAudio counts mixed-audio blocks that arrived too late and
	// were written as silence instead.
	DroppedAudio int64
}

// Save writes the recording into dir and returns the full path.
func (r *Recording) Save(dir string) (string, error) {
	path := filepath.Join(dir, r.Name)
	if err := os.WriteFile(path, r.Data, 0o644); err != nil {
		return "", fmt.Errorf("save recording: %w", err)
	}
	return path, nil
}

// Session is one active recording.
type Session struct {
	mu      sync.Mutex
	state   State
	profile Profile
	spec    StreamSpec
	started time.Time
	stream  Stream
	log     *log.Logger

	removeSink func()
	sub        *routing.Subscription
	latest     frameSlot

	stopPumps context.CancelFunc
	pumps     sync.WaitGroup

	chunks       chan []byte
	producerDone chan error
	consumerDone chan struct{}
	buf          [][]byte

	frames  atomic.Int64
	pumpErr atomic.Pointer[error]
}

// State returns the session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Started is when recording began.
func (s *Session) Started() time.Time { return s.started }

// Frames counts video frames written so far.
func (s *Session) Frames() int { return int(s.frames.Load()) }

// Start probes the encoder, opens a stream, makes sure playback runs and
// begins feeding frames and audio. On any error nothing is left running.
// audio may be nil, in which case a silent track is recorded.
func (e *Exporter) Start(ctx context.Context, frames FrameSource, audio AudioSource, playback Playback) (*Session, error) {
	profile, err := e.Encoder.Probe()
	if err != nil {
		if !errors.Is(err, ErrRecordingUnsupported) {
			err = fmt.Errorf("%w: %w", ErrRecordingUnsupported, err)
		}
		return nil, err
	}

	w, h := frames.Size()
	spec := StreamSpec{Width: w, Height: h, FPS: max(1, e.FPS), SampleRate: int(e.SilenceRate)}
	if audio != nil {
		spec.SampleRate = int(audio.SampleRate())
	}
	// The encoder outlives the caller's context; only Stop or a failed
	// start ends it.
	stream, err := e.Encoder.Open(context.WithoutCancel(ctx), profile, spec)
	if err != nil {
		return nil, fmt.Errorf("open encoder: %w", err)
	}

	if playback != nil && !playback.Playing() {
		if err := playback.Resume(); err != nil {
			stream.Kill()
			return nil, fmt.Errorf("%w: %w", ErrAutoplayBlocked, err)
		}
	}

	s := &Session{
		state:        Active,
		profile:      profile,
		spec:         spec,
		started:      e.now(),
		stream:       stream,
		log:          e.log,
		chunks:       make(chan []byte, chunkDepth),
		producerDone: make(chan error, 1),
		consumerDone: make(chan struct{}),
	}
	s.latest.size = spec.FrameBytes()

	go s.produce()
	go s.consume()

	pumpCtx, cancel := context.WithCancel(context.Background())
	s.stopPumps = cancel
	s.removeSink = frames.AddSink(&s.latest)
	s.pumps.Add(2)
	go s.videoPump(pumpCtx)
	if audio != nil {
		s.sub = audio.Subscribe(audioDepth)
		go s.audioPump()
	} else {
		go s.silencePump(pumpCtx)
	}

	e.log.Info("recording started", "profile", profile.Name, "size", fmt.Sprintf("%dx%d", w, h), "fps", spec.FPS)
	return s, nil
}

// Stop detaches the inputs, flushes the encoder, waits for every chunk and
// returns the recording. The session's buffers are released.
func (e *Exporter) Stop(s *Session) (*Recording, error) {
	if s == nil {
		return nil, ErrNotRecording
	}
	s.mu.Lock()
	if s.state != Active {
		s.mu.Unlock()
		return nil, ErrNotRecording
	}
	s.state = Finalizing
	s.mu.Unlock()

	s.removeSink()
	if s.sub != nil {
		s.sub.Close()
	}
	s.stopPumps()
	s.pumps.Wait()
	var dropped int64
	if s.sub != nil {
		dropped = s.sub.Dropped()
	}
	if dropped > 0 {
		e.log.Warn("audio fell behind, gaps filled with silence", "blocks", dropped)
	}

	s.stream.Video().Close()
	s.stream.Audio().Close()

	var prodErr error
	select {
	case prodErr = <-s.producerDone:
	case <-time.After(finalizeMax):
		s.stream.Kill()
		prodErr = <-s.producerDone
	}
	<-s.consumerDone
	waitErr := s.stream.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Complete
	data := bytes.Join(s.buf, nil)
	s.buf = nil

	if err := errors.Join(prodErr, waitErr, s.pumpError()); err != nil {
		return nil, fmt.Errorf("finalize recording: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("finalize recording: encoder produced no data")
	}
	frames := s.Frames()
	rec := &Recording{
		Name:         fmt.Sprintf("beatcanvas-%s.%s", s.started.Format("20060102-150405"), s.profile.Ext),
		Data:         data,
		Profile:      s.profile,
		Frames:       frames,
		Duration:     time.Duration(frames) * time.Second / time.Duration(s.spec.FPS),
		DroppedAudio: dropped,
	}
	e.log.Info("recording finished", "name", rec.Name, "bytes", len(data), "duration", rec.Duration.Round(time.Millisecond))
	return rec, nil
}

// Abort kills the encoder and discards everything. Safe on any state.
func (e *Exporter) Abort(s *Session) {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.state != Active {
		s.mu.Unlock()
		return
	}
	s.state = Complete
	s.mu.Unlock()

	s.removeSink()
	if s.sub != nil {
		s.sub.Close()
	}
	s.stopPumps()
	s.pumps.Wait()
	s.stream.Kill()
	<-s.producerDone
	<-s.consumerDone
	s.mu.Lock()
	s.buf = nil
	s.mu.Unlock()
}

func (s *Session) fail(err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	if s.pumpErr.CompareAndSwap(nil, &err) {
		s.log.Error("recording input failed", "err", err)
	}
}

func (s *Session) pumpError() error {
	if p := s.pumpErr.Load(); p != nil {
		return *p
	}
	return nil
}

// produce reads container bytes until EOF.
func (s *Session) produce() {
	defer close(s.chunks)
	out := s.stream.Output()
	for {
		chunk := make([]byte, chunkSize)
		n, err := out.Read(chunk)
		if n > 0 {
			s.chunks <- chunk[:n]
		}
		if errors.Is(err, io.EOF) {
			s.producerDone <- nil
			return
		}
		if err != nil {
			s.producerDone <- fmt.Errorf("read encoder output: %w", err)
			return
		}
	}
}

// consume keeps chunks in arrival order.
func (s *Session) consume() {
	defer close(s.consumerDone)
	for chunk := range s.chunks {
		s.mu.Lock()
		s.buf = append(s.buf, chunk)
		s.mu.Unlock()
	}
}

// videoPump writes the latest frame at a fixed rate paced by the wall
// clock. When rendering falls behind, the last frame is repeated so the
// video stays as long as the elapsed time.
func (s *Session) videoPump(ctx context.Context) {
	defer s.pumps.Done()
	fps := s.spec.FPS
	interval := time.Second / time.Duration(fps)
	frame := make([]byte, s.spec.FrameBytes())
	tick := time.NewTicker(interval)
	defer tick.Stop()
	start := time.Now()
	written := int64(0)
	for {
		due := int64(time.Since(start)*time.Duration(fps)/time.Second) + 1
		if due > written {
			s.latest.copyTo(frame)
			for ; written < due; written++ {
				if _, err := s.stream.Video().Write(frame); err != nil {
					s.fail(fmt.Errorf("write video: %w", err))
					return
				}
				s.frames.Add(1)
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
	}
}

// audioPump forwards mixed audio until the subscription is closed, so
// blocks published before Stop still reach the encoder. Frames the
// subscription dropped are written as silence of the same length, which
// keeps the audio track on the video's wall clock.
func (s *Session) audioPump() {
	defer s.pumps.Done()
	var buf []byte
	for block := range s.sub.C {
		buf = appendSilence(buf[:0], block.Gap)
		buf = encodeF32(buf, block.Samples)
		if _, err := s.stream.Audio().Write(buf); err != nil {
			s.fail(fmt.Errorf("write audio: %w", err))
			return
		}
	}
	if gap := s.sub.TrailingGap(); gap > 0 {
		if _, err := s.stream.Audio().Write(appendSilence(buf[:0], gap)); err != nil {
			s.fail(fmt.Errorf("write audio: %w", err))
		}
	}
}

// silencePump keeps the audio input as long as the video when there is no
// mixed output to record.
func (s *Session) silencePump(ctx context.Context) {
	defer s.pumps.Done()
	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	start := time.Now()
	var written int64
	var buf []byte
	for {
		due := int64(time.Since(start) * time.Duration(s.spec.SampleRate) / time.Second)
		if n := due - written; n > 0 {
			buf = appendSilence(buf[:0], int(n))
			if _, err := s.stream.Audio().Write(buf); err != nil {
				s.fail(fmt.Errorf("write audio: %w", err))
				return
			}
			written = due
		}
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
	}
}

// appendSilence appends frames of zeroed stereo f32le.
func appendSilence(dst []byte, frames int) []byte {
	if frames <= 0 {
		return dst
	}
	return append(dst, make([]byte, frames*8)...)
}

// encodeF32 appends samples as little-endian float32.
func encodeF32(dst []byte, samples []float32) []byte {
	for _, v := range samples {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
	}
	return dst
}

// frameSlot holds a copy of the most recent composited frame. It is the
// compositor sink for a session.
type frameSlot struct {
	mu   sync.Mutex
	size int
	pix  []byte
}

func (f *frameSlot) WriteFrame(img *image.RGBA) {
	if img == nil || len(img.Pix) != f.size {
		return
	}
	f.mu.Lock()
	f.pix = append(f.pix[:0], img.Pix...)
	f.mu.Unlock()
}

// copyTo fills dst with the latest frame, or black before the first one.
func (f *frameSlot) copyTo(dst []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pix) != len(dst) {
		clear(dst)
		return
	}
	copy(dst, f.pix)
}
