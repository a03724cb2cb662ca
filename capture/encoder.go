package capture

import (
	"context"
	"io"
)

// Profile is one container/codec combination an encoder can produce.
type Profile struct {
	Name       string
	Format     string // muxer name
	Ext        string
	VideoCodec string
	AudioCodec string
	VideoArgs  []string
	AudioArgs  []string
}

// Profiles in order of preference. The first one the encoder supports wins.
var Profiles = []Profile{
	{
		Name: "vp9-opus", Format: "webm", Ext: "webm",
		VideoCodec: "libvpx-vp9", AudioCodec: "libopus",
		VideoArgs: []string{"-deadline", "realtime", "-cpu-used", "8", "-row-mt", "1", "-b:v", "6M", "-pix_fmt", "yuv420p"},
		AudioArgs: []string{"-b:a", "160k"},
	},
	{
		Name: "vp8-vorbis", Format: "webm", Ext: "webm",
		VideoCodec: "libvpx", AudioCodec: "libvorbis",
		VideoArgs: []string{"-deadline", "realtime", "-cpu-used", "8", "-b:v", "6M", "-pix_fmt", "yuv420p"},
		AudioArgs: []string{"-q:a", "5"},
	},
	{
		Name: "mjpeg-pcm", Format: "matroska", Ext: "mkv",
		VideoCodec: "mjpeg", AudioCodec: "pcm_s16le",
		VideoArgs: []string{"-q:v", "3", "-pix_fmt", "yuvj420p"},
	},
}

// StreamSpec describes the raw inputs fed to the encoder.
type StreamSpec struct {
	Width, Height int
	FPS           int
	SampleRate    int
}

// FrameBytes is the size of one raw RGBA video frame.
func (s StreamSpec) FrameBytes() int { return s.Width * s.Height * 4 }

// Encoder turns raw RGBA frames and float32 stereo audio into a container.
type Encoder interface {
	// Probe picks the best supported profile or fails with
	// ErrRecordingUnsupported.
	Probe() (Profile, error)
	Open(ctx context.Context, p Profile, spec StreamSpec) (Stream, error)
}

// Stream is one running encode. Closing both inputs flushes the encoder,
// after which Output reaches EOF.
type Stream interface {
	Video() io.WriteCloser
	Audio() io.WriteCloser
	Output() io.Reader
	Wait() error
	Kill()
}
