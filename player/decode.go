package player

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// ErrDecode reports that a track could not be opened or decoded.
var ErrDecode = errors.New("player: cannot decode audio")

// Format names a supported container.
type Format string

const (
	FormatMP3    Format = "mp3"
	FormatWAV    Format = "wav"
	FormatFLAC   Format = "flac"
	FormatVorbis Format = "ogg"
)

type decodeFunc func(f *os.File) (beep.StreamSeekCloser, beep.Format, error)

var decoders = map[Format]decodeFunc{
	FormatMP3:    func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return mp3.Decode(f) },
	FormatWAV:    func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return wav.Decode(f) },
	FormatFLAC:   func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return flac.Decode(f) },
	FormatVorbis: func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return vorbis.Decode(f) },
}

// Sniff guesses the container from the leading bytes, falling back to the
// file extension.
func Sniff(head []byte, path string) (Format, bool) {
	switch {
	case len(head) >= 12 && bytes.Equal(head[:4], []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WAVE")):
		return FormatWAV, true
	case bytes.HasPrefix(head, []byte("fLaC")):
		return FormatFLAC, true
	case bytes.HasPrefix(head, []byte("OggS")):
		return FormatVorbis, true
	case bytes.HasPrefix(head, []byte("ID3")):
		return FormatMP3, true
	case len(head) >= 2 && head[0] == 0xFF && head[1]&0xE0 == 0xE0:
		return FormatMP3, true
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return FormatMP3, true
	case ".wav", ".wave":
		return FormatWAV, true
	case ".flac":
		return FormatFLAC, true
	case ".ogg", ".oga":
		return FormatVorbis, true
	}
	return "", false
}

// decodeFile opens path and returns the decoded stream together with the
// open file, which the caller must close after the stream.
func decodeFile(path string) (beep.StreamSeekCloser, beep.Format, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, nil, fmt.Errorf("%w: open: %w", ErrDecode, err)
	}
	head := make([]byte, 12)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		f.Close()
		return nil, beep.Format{}, nil, fmt.Errorf("%w: read: %w", ErrDecode, err)
	}
	kind, ok := Sniff(head[:n], path)
	if !ok {
		f.Close()
		return nil, beep.Format{}, nil, fmt.Errorf("%w: unrecognized format %q", ErrDecode, filepath.Base(path))
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, beep.Format{}, nil, fmt.Errorf("%w: seek: %w", ErrDecode, err)
	}
	s, format, err := decoders[kind](f)
	if err != nil {
		f.Close()
		return nil, beep.Format{}, nil, fmt.Errorf("%w: %s: %w", ErrDecode, kind, err)
	}
	if format.SampleRate <= 0 || s.Len() == 0 {
		s.Close()
		f.Close()
		return nil, beep.Format{}, nil, fmt.Errorf("%w: %s: empty stream", ErrDecode, kind)
	}
	return s, format, f, nil
}
