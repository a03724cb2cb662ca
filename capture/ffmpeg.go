package capture

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// FFmpeg runs the ffmpeg binary as a subprocess. Video arrives on stdin,
// audio on an extra pipe (fd 3) and the container leaves on stdout.
type FFmpeg struct {
	// Bin is the executable name or path. Empty means "ffmpeg" on PATH.
	Bin string
	log *log.Logger
}

func NewFFmpeg(logger *log.Logger) *FFmpeg {
	if logger == nil {
		logger = log.Default()
	}
	return &FFmpeg{log: logger.With("component", "ffmpeg")}
}

func (f *FFmpeg) bin() (string, error) {
	name := f.Bin
	if name == "" {
		name = "ffmpeg"
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRecordingUnsupported, err)
	}
	return path, nil
}

// Probe lists the encoders compiled into ffmpeg and picks the first
// profile whose codecs are all present.
func (f *FFmpeg) Probe() (Profile, error) {
	bin, err := f.bin()
	if err != nil {
		return Profile{}, err
	}
	out, err := exec.Command(bin, "-hide_banner", "-encoders").Output()
	if err != nil {
		return Profile{}, fmt.Errorf("%w: list encoders: %w", ErrRecordingUnsupported, err)
	}
	p, ok := pickProfile(parseEncoders(out))
	if !ok {
		return Profile{}, fmt.Errorf("%w: no supported codec pair", ErrRecordingUnsupported)
	}
	f.log.Debug("encoder profile", "profile", p.Name)
	return p, nil
}

// parseEncoders reads the table printed by `ffmpeg -encoders`:
//
//	 V..... = Video
//	 ------
//	 V....D libvpx-vp9           libvpx VP9
func parseEncoders(out []byte) map[string]bool {
	found := make(map[string]bool)
	sc := bufio.NewScanner(bytes.NewReader(out))
	table := false
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "---") {
			table = true
			continue
		}
		if !table {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || len(fields[0]) != 6 {
			continue
		}
		found[fields[1]] = true
	}
	return found
}

func pickProfile(available map[string]bool) (Profile, bool) {
	for _, p := range Profiles {
		if available[p.VideoCodec] && available[p.AudioCodec] {
			return p, true
		}
	}
	return Profile{}, false
}

// Open starts ffmpeg for one recording.
func (f *FFmpeg) Open(ctx context.Context, p Profile, spec StreamSpec) (Stream, error) {
	bin, err := f.bin()
	if err != nil {
		return nil, err
	}
	audioR, audioW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("audio pipe: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, bin, ffmpegArgs(p, spec)...)
	cmd.ExtraFiles = []*os.File{audioR}
	stderr := &tailBuffer{max: 4096}
	cmd.Stderr = stderr

	video, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		audioR.Close()
		audioW.Close()
		return nil, fmt.Errorf("video pipe: %w", err)
	}
	out, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		audioR.Close()
		audioW.Close()
		return nil, fmt.Errorf("output pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		audioR.Close()
		audioW.Close()
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}
	// The child owns the read end now.
	audioR.Close()
	f.log.Debug("ffmpeg started", "pid", cmd.Process.Pid, "profile", p.Name, "size", fmt.Sprintf("%dx%d", spec.Width, spec.Height))

	return &ffmpegStream{cmd: cmd, cancel: cancel, video: video, audio: audioW, out: out, stderr: stderr}, nil
}

func ffmpegArgs(p Profile, spec StreamSpec) []string {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "rawvideo", "-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", spec.Width, spec.Height),
		"-r", strconv.Itoa(spec.FPS),
		"-thread_queue_size", "512",
		"-i", "pipe:0",
		"-f", "f32le", "-ar", strconv.Itoa(spec.SampleRate), "-ac", "2",
		"-thread_queue_size", "512",
		"-i", "pipe:3",
		"-map", "0:v", "-map", "1:a",
		"-c:v", p.VideoCodec,
	}
	args = append(args, p.VideoArgs...)
	args = append(args, "-c:a", p.AudioCodec)
	args = append(args, p.AudioArgs...)
	return append(args, "-f", p.Format, "pipe:1")
}

type ffmpegStream struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc
	video  io.WriteCloser
	audio  *os.File
	out    io.Reader
	stderr *tailBuffer
}

func (s *ffmpegStream) Video() io.WriteCloser { return s.video }
func (s *ffmpegStream) Audio() io.WriteCloser { return s.audio }
func (s *ffmpegStream) Output() io.Reader     { return s.out }

func (s *ffmpegStream) Wait() error {
	defer s.cancel()
	if err := s.cmd.Wait(); err != nil {
		if msg := strings.TrimSpace(s.stderr.String()); msg != "" {
			return fmt.Errorf("ffmpeg: %w: %s", err, msg)
		}
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return nil
}

func (s *ffmpegStream) Kill() {
	s.video.Close()
	s.audio.Close()
	s.cancel()
	_ = s.cmd.Wait()
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
