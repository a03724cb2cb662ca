// Package main is the entry point for beatcanvas: a music visualizer that
// composites spectrum art, particles and lyrics over a cover image and can
// record the result with its audio.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/gopxl/beep/v2"

	"beatcanvas/config"
	"beatcanvas/engine"
	"beatcanvas/playlist"
	"beatcanvas/ui"
	"beatcanvas/window"
)

type flags struct {
	config   string
	bg       string
	logo     string
	lyrics   string
	title    string
	subtitle string
	size     string
	out      string
	logFile  string
	debug    bool
	window   bool
	export   bool
	seed     int64
}

func parseFlags(args []string) (flags, []string, error) {
	var f flags
	fs := flag.NewFlagSet("beatcanvas", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: beatcanvas [flags] <file.mp3> [file2.flac ...]")
		fs.PrintDefaults()
	}
	fs.StringVar(&f.config, "config", "", "YAML settings file")
	fs.StringVar(&f.bg, "bg", "", "background image")
	fs.StringVar(&f.logo, "logo", "", "logo image, clipped to a circle")
	fs.StringVar(&f.lyrics, "lyrics", "", "lyrics file used for every track instead of sidecars")
	fs.StringVar(&f.title, "title", "", "fixed title text")
	fs.StringVar(&f.subtitle, "subtitle", "", "fixed subtitle text")
	fs.StringVar(&f.size, "size", "1280x720", "canvas size WxH")
	fs.StringVar(&f.out, "out", ".", "directory for recordings")
	fs.StringVar(&f.logFile, "log", "", "log file (terminal mode logs nowhere by default)")
	fs.BoolVar(&f.debug, "debug", false, "debug logging")
	fs.BoolVar(&f.window, "window", false, "show the canvas in a window instead of the terminal")
	fs.BoolVar(&f.export, "export", false, "record the first track headlessly and exit")
	fs.Int64Var(&f.seed, "seed", time.Now().UnixNano(), "particle and shuffle seed")
	if err := fs.Parse(args); err != nil {
		return f, nil, err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return f, nil, errors.New("no audio files given")
	}
	return f, fs.Args(), nil
}

func parseSize(s string) (w, h int, err error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if ok {
		_, err = fmt.Sscanf(ws+" "+hs, "%d %d", &w, &h)
	}
	if !ok || err != nil || w < 16 || h < 16 {
		return 0, 0, fmt.Errorf("bad -size %q, want WxH", s)
	}
	return w, h, nil
}

// expandArgs expands shell globs that may not have been expanded by the shell.
func expandArgs(args []string) []string {
	var files []string
	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil || len(matches) == 0 {
			files = append(files, arg)
		} else {
			files = append(files, matches...)
		}
	}
	return files
}

func newLogger(f flags) (*log.Logger, io.Closer, error) {
	var w io.Writer = os.Stderr
	var closer io.Closer = io.NopCloser(nil)
	switch {
	case f.logFile != "":
		file, err := os.OpenFile(f.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("log file: %w", err)
		}
		w, closer = file, file
	case !f.window && !f.export:
		// The terminal belongs to the panel.
		w = io.Discard
	}
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "beatcanvas",
	})
	if f.debug {
		logger.SetLevel(log.DebugLevel)
	}
	log.SetDefault(logger)
	return logger, closer, nil
}

func loadConfig(f flags) (*config.Config, engine.TrackOptions, error) {
	cfg := config.Default()
	if f.config != "" {
		var err error
		if cfg, err = config.Load(f.config); err != nil {
			return nil, engine.TrackOptions{}, err
		}
	}
	var topts engine.TrackOptions
	if f.title != "" || f.subtitle != "" {
		cfg.Title, cfg.Subtitle = f.title, f.subtitle
		topts.KeepLabels = true
	}
	if f.lyrics != "" {
		text, err := playlist.ReadLyrics(f.lyrics)
		if err != nil {
			return nil, topts, err
		}
		cfg.Lyrics = text
		topts.KeepLyrics = true
	}
	return cfg, topts, nil
}

func run() error {
	f, args, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	w, h, err := parseSize(f.size)
	if err != nil {
		return err
	}
	logger, closer, err := newLogger(f)
	if err != nil {
		return err
	}
	defer closer.Close()

	cfg, topts, err := loadConfig(f)
	if err != nil {
		return err
	}

	pl := playlist.New(f.seed)
	for _, path := range expandArgs(args) {
		pl.Add(playlist.TrackFromPath(path))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Initialize audio engine at CD-quality sample rate
	s := engine.New(engine.Options{
		SampleRate: beep.SampleRate(44100),
		Width:      w,
		Height:     h,
		Seed:       f.seed,
		Logger:     logger,
	}, cfg)
	defer s.Close()

	if err := s.LoadAssets(f.bg, f.logo); err != nil {
		return err
	}

	switch {
	case f.export:
		return export(ctx, s, pl, topts, f.out, logger)
	case f.window:
		return runWindow(ctx, s, pl, topts, f.out, logger)
	}

	m := ui.NewModel(ctx, s, pl, ui.Options{OutDir: f.out, Track: topts, Logger: logger})
	prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := prog.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

func runWindow(ctx context.Context, s *engine.Session, pl *playlist.Playlist, topts engine.TrackOptions, out string, logger *log.Logger) error {
	play := func(t playlist.Track) {
		if err := s.LoadTrack(t, topts); err != nil {
			logger.Error("load track", "path", t.Path, "err", err)
		}
	}
	track, _ := pl.Current()
	play(track)
	return window.Run(ctx, s, window.Options{
		Title:  "beatcanvas",
		OutDir: out,
		OnTrackDone: func() {
			if next, ok := pl.Next(); ok {
				play(next)
			}
		},
		Logger: logger,
	})
}

// export records the first track from start to end and saves it to out.
func export(ctx context.Context, s *engine.Session, pl *playlist.Playlist, topts engine.TrackOptions, out string, logger *log.Logger) error {
	track, _ := pl.Current()
	rec, err := s.Export(ctx, track, topts, time.Second/60)
	if err != nil {
		return err
	}
	path, err := rec.Save(out)
	if err != nil {
		return err
	}
	logger.Info("recording saved", "path", path, "duration", rec.Duration.Round(time.Millisecond), "frames", rec.Frames)
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
