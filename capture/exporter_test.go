package capture

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"image"
	"io"
	"math"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beatcanvas/compositor"
	"beatcanvas/routing"
)

// fakeStream counts what it is fed and, once both inputs are closed, emits
// payload followed by EOF.
type fakeStream struct {
	frameBytes int
	payload    []byte

	mu        sync.Mutex
	videoN    int
	audioN    int
	lastFrame []byte
	open      int
	killed    atomic.Bool

	pr *io.PipeReader
	pw *io.PipeWriter
}

func newFakeStream(frameBytes int, payload []byte) *fakeStream {
	pr, pw := io.Pipe()
	return &fakeStream{frameBytes: frameBytes, payload: payload, open: 2, pr: pr, pw: pw}
}

type input struct {
	s     *fakeStream
	video bool
	once  sync.Once

	// hold, when set, stalls every write until it is closed.
	hold chan struct{}
}

func (in *input) Write(p []byte) (int, error) {
	if in.hold != nil {
		<-in.hold
	}
	in.s.mu.Lock()
	defer in.s.mu.Unlock()
	if in.video {
		in.s.videoN += len(p)
		in.s.lastFrame = append(in.s.lastFrame[:0], p...)
	} else {
		in.s.audioN += len(p)
	}
	return len(p), nil
}

func (in *input) Close() error {
	in.once.Do(func() {
		in.s.mu.Lock()
		in.s.open--
		done := in.s.open == 0
		in.s.mu.Unlock()
		if done {
			go func() {
				// Emit in odd-sized pieces to exercise chunking.
				for p := in.s.payload; len(p) > 0; {
					n := min(len(p), 7777)
					if _, err := in.s.pw.Write(p[:n]); err != nil {
						return
					}
					p = p[n:]
				}
				in.s.pw.Close()
			}()
		}
	})
	return nil
}

type fakeEncoder struct {
	probeErr  error
	openErr   error
	payload   []byte
	audioHold chan struct{}

	mu     sync.Mutex
	stream *fakeStream
	vin    *input
	ain    *input
}

func (e *fakeEncoder) Probe() (Profile, error) {
	if e.probeErr != nil {
		return Profile{}, e.probeErr
	}
	return Profiles[0], nil
}

func (e *fakeEncoder) Open(_ context.Context, _ Profile, spec StreamSpec) (Stream, error) {
	if e.openErr != nil {
		return nil, e.openErr
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stream = newFakeStream(spec.FrameBytes(), e.payload)
	e.vin = &input{s: e.stream, video: true}
	e.ain = &input{s: e.stream, hold: e.audioHold}
	return &fakeHandle{e}, nil
}

type fakeHandle struct{ e *fakeEncoder }

func (h *fakeHandle) Video() io.WriteCloser { return h.e.vin }
func (h *fakeHandle) Audio() io.WriteCloser { return h.e.ain }
func (h *fakeHandle) Output() io.Reader     { return h.e.stream.pr }
func (h *fakeHandle) Wait() error           { return nil }
func (h *fakeHandle) Kill() {
	h.e.stream.killed.Store(true)
	h.e.stream.pw.CloseWithError(errors.New("killed"))
}

type fakeFrames struct {
	w, h  int
	mu    sync.Mutex
	sinks int
	sink  compositor.FrameSink
}

func (f *fakeFrames) AddSink(s compositor.FrameSink) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinks++
	f.sink = s
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.sinks--
		f.sink = nil
	}
}

func (f *fakeFrames) Size() (int, int) { return f.w, f.h }

func (f *fakeFrames) push(img *image.RGBA) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sink != nil {
		f.sink.WriteFrame(img)
	}
}

type fakePlayback struct {
	playing   bool
	resumeErr error
	resumed   int
}

func (p *fakePlayback) Playing() bool { return p.playing }
func (p *fakePlayback) Resume() error {
	p.resumed++
	if p.resumeErr != nil {
		return p.resumeErr
	}
	p.playing = true
	return nil
}

func newExporter(enc Encoder) *Exporter {
	e := NewExporter(enc, log.New(io.Discard))
	e.now = func() time.Time { return time.Date(2024, 3, 9, 21, 4, 5, 0, time.UTC) }
	return e
}

func TestStartFailsWithoutEncoder(t *testing.T) {
	enc := &fakeEncoder{probeErr: errors.New("exec: \"ffmpeg\": not found")}
	frames := &fakeFrames{w: 8, h: 8}
	s, err := newExporter(enc).Start(context.Background(), frames, nil, &fakePlayback{playing: true})
	assert.ErrorIs(t, err, ErrRecordingUnsupported)
	assert.Nil(t, s)
	assert.Nil(t, enc.stream, "nothing is opened")
	assert.Zero(t, frames.sinks)
}

func TestStartAutoplayBlocked(t *testing.T) {
	enc := &fakeEncoder{}
	frames := &fakeFrames{w: 8, h: 8}
	play := &fakePlayback{resumeErr: errors.New("device busy")}
	s, err := newExporter(enc).Start(context.Background(), frames, nil, play)
	assert.ErrorIs(t, err, ErrAutoplayBlocked)
	assert.Nil(t, s)
	assert.True(t, enc.stream.killed.Load())
	assert.Zero(t, frames.sinks)
	assert.Equal(t, 1, play.resumed)
}

func TestRecordingTracksWallTime(t *testing.T) {
	payload := bytes.Repeat([]byte("0123456789abcdef"), 40000)
	enc := &fakeEncoder{payload: payload}
	frames := &fakeFrames{w: 16, h: 9}
	play := &fakePlayback{}
	e := newExporter(enc)

	begin := time.Now()
	s, err := e.Start(context.Background(), frames, nil, play)
	require.NoError(t, err)
	assert.Equal(t, 1, play.resumed, "playback is started for the recording")
	assert.Equal(t, Active, s.State())
	assert.Equal(t, 1, frames.sinks)

	red := image.NewRGBA(image.Rect(0, 0, 16, 9))
	for i := 0; i < len(red.Pix); i += 4 {
		copy(red.Pix[i:], []byte{255, 0, 0, 255})
	}
	deadline := time.Now().Add(300 * time.Millisecond)
	for time.Now().Before(deadline) {
		frames.push(red)
		time.Sleep(10 * time.Millisecond)
	}

	rec, err := e.Stop(s)
	elapsed := time.Since(begin)
	require.NoError(t, err)
	assert.Equal(t, Complete, s.State())
	assert.Zero(t, frames.sinks, "frame sink detached")

	assert.Equal(t, payload, rec.Data, "chunks arrive complete and in order")
	assert.Equal(t, "beatcanvas-20240309-210405.webm", rec.Name)
	assert.InDelta(t, elapsed.Seconds(), rec.Duration.Seconds(), 0.08)

	enc.stream.mu.Lock()
	assert.Equal(t, rec.Frames*16*9*4, enc.stream.videoN)
	assert.Equal(t, red.Pix, enc.stream.lastFrame)
	assert.Positive(t, enc.stream.audioN, "silence is written without an audio source")
	assert.Zero(t, enc.stream.audioN%8)
	enc.stream.mu.Unlock()

	_, err = e.Stop(s)
	assert.ErrorIs(t, err, ErrNotRecording)
	_, err = e.Stop(nil)
	assert.ErrorIs(t, err, ErrNotRecording)
}

func TestRecordingForwardsMixedAudio(t *testing.T) {
	src := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			samples[i] = [2]float64{0.25, -0.25}
		}
		return len(samples), true
	})
	g, err := routing.Configure(src, routing.DefaultOptions(44100))
	require.NoError(t, err)
	defer g.Teardown()

	enc := &fakeEncoder{payload: []byte("container")}
	e := newExporter(enc)
	s, err := e.Start(context.Background(), &fakeFrames{w: 4, h: 4}, g.MixedOutput(), &fakePlayback{playing: true})
	require.NoError(t, err)

	buf := make([][2]float64, 441)
	for range 10 {
		g.Stream(buf)
		time.Sleep(5 * time.Millisecond)
	}
	// Let the pump drain what was published.
	require.Eventually(t, func() bool {
		enc.stream.mu.Lock()
		defer enc.stream.mu.Unlock()
		return enc.stream.audioN == 10*441*8
	}, time.Second, 5*time.Millisecond)

	rec, err := e.Stop(s)
	require.NoError(t, err)
	assert.Equal(t, []byte("container"), rec.Data)
}

func constantSource() beep.Streamer {
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			samples[i] = [2]float64{0.25, -0.25}
		}
		return len(samples), true
	})
}

func TestStopFlushesPublishedAudio(t *testing.T) {
	for range 20 {
		g, err := routing.Configure(constantSource(), routing.DefaultOptions(44100))
		require.NoError(t, err)

		enc := &fakeEncoder{payload: []byte("container")}
		e := newExporter(enc)
		s, err := e.Start(context.Background(), &fakeFrames{w: 4, h: 4}, g.MixedOutput(), &fakePlayback{playing: true})
		require.NoError(t, err)

		buf := make([][2]float64, 441)
		for range 10 {
			g.Stream(buf)
		}
		rec, err := e.Stop(s)
		require.NoError(t, err)
		assert.Zero(t, rec.DroppedAudio)
		assert.Equal(t, 10*441*8, enc.stream.audioN, "every block published before Stop is written")
		g.Teardown()
	}
}

func TestDroppedAudioBecomesSilence(t *testing.T) {
	g, err := routing.Configure(constantSource(), routing.DefaultOptions(44100))
	require.NoError(t, err)
	defer g.Teardown()

	hold := make(chan struct{})
	enc := &fakeEncoder{payload: []byte("container"), audioHold: hold}
	e := newExporter(enc)
	s, err := e.Start(context.Background(), &fakeFrames{w: 4, h: 4}, g.MixedOutput(), &fakePlayback{playing: true})
	require.NoError(t, err)

	// The pump stalls on its first write, so the subscription fills and
	// the rest of the burst is dropped.
	const blocks = 1 + audioDepth + 10
	buf := make([][2]float64, 441)
	for range blocks {
		g.Stream(buf)
	}
	close(hold)
	g.Stream(buf)

	rec, err := e.Stop(s)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, rec.DroppedAudio, int64(10))
	assert.Equal(t, (blocks+1)*441*8, enc.stream.audioN, "gaps keep the audio as long as what was published")
}

func TestAbortDiscards(t *testing.T) {
	enc := &fakeEncoder{payload: []byte("x")}
	frames := &fakeFrames{w: 4, h: 4}
	e := newExporter(enc)
	s, err := e.Start(context.Background(), frames, nil, nil)
	require.NoError(t, err)
	e.Abort(s)
	e.Abort(s)
	assert.True(t, enc.stream.killed.Load())
	assert.Zero(t, frames.sinks)
	_, err = e.Stop(s)
	assert.ErrorIs(t, err, ErrNotRecording)
}

func TestEncodeF32(t *testing.T) {
	b := encodeF32(nil, []float32{1, -0.5})
	require.Len(t, b, 8)
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(b)))
	assert.Equal(t, float32(-0.5), math.Float32frombits(binary.LittleEndian.Uint32(b[4:])))
}

const encodersOutput = `Encoders:
 V..... = Video
 A..... = Audio
 ------
 V....D mjpeg                MJPEG (Motion JPEG)
 V....D libvpx               libvpx VP8 (codec vp8)
 A....D pcm_s16le            PCM signed 16-bit little-endian
 A....D libvorbis            libvorbis (codec vorbis)
`

func TestProfileSelection(t *testing.T) {
	found := parseEncoders([]byte(encodersOutput))
	assert.True(t, found["libvpx"])
	assert.False(t, found["V....."], "legend lines are not encoders")

	p, ok := pickProfile(found)
	require.True(t, ok)
	assert.Equal(t, "vp8-vorbis", p.Name)

	delete(found, "libvorbis")
	p, ok = pickProfile(found)
	require.True(t, ok)
	assert.Equal(t, "mkv", p.Ext)

	_, ok = pickProfile(map[string]bool{"libx264": true})
	assert.False(t, ok)
}

func TestFFmpegArgs(t *testing.T) {
	args := strings.Join(ffmpegArgs(Profiles[0], StreamSpec{Width: 1280, Height: 720, FPS: 60, SampleRate: 48000}), " ")
	for _, want := range []string{"-s 1280x720", "-r 60", "-i pipe:0", "-ar 48000", "-i pipe:3", "-c:v libvpx-vp9", "-c:a libopus", "-f webm pipe:1"} {
		assert.Contains(t, args, want)
	}
}

func TestFFmpegUnavailable(t *testing.T) {
	f := NewFFmpeg(log.New(io.Discard))
	f.Bin = "beatcanvas-no-such-ffmpeg"
	_, err := f.Probe()
	assert.ErrorIs(t, err, ErrRecordingUnsupported)
}

func TestFFmpegRecording(t *testing.T) {
	if os.Getenv("BEATCANVAS_FFMPEG_TESTS") != "1" {
		t.Skip("set BEATCANVAS_FFMPEG_TESTS=1 to run against a real ffmpeg")
	}
	e := NewExporter(NewFFmpeg(log.New(io.Discard)), log.New(io.Discard))
	frames := &fakeFrames{w: 64, h: 36}
	s, err := e.Start(context.Background(), frames, nil, nil)
	require.NoError(t, err)
	time.Sleep(500 * time.Millisecond)
	rec, err := e.Stop(s)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.Data)
	assert.InDelta(t, 0.5, rec.Duration.Seconds(), 0.15)
}
