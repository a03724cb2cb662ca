// Package window shows the composited canvas in a native window.
package window

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"beatcanvas/engine"
)

type Options struct {
	Title string
	// Scale multiplies the canvas size for the initial window size.
	Scale float64
	// OutDir receives finished recordings.
	OutDir string
	// OnTrackDone is called once per finished track from the game loop.
	OnTrackDone func()
	Logger      *log.Logger
}

type binding struct {
	key    ebiten.Key
	shift  bool
	action engine.Action
}

var bindings = []binding{
	{ebiten.KeySpace, false, engine.TogglePlay},
	{ebiten.KeyArrowLeft, false, engine.SeekBack},
	{ebiten.KeyArrowRight, false, engine.SeekForward},
	{ebiten.KeyV, false, engine.ToggleVocals},
	{ebiten.KeyBracketRight, false, engine.RateUp},
	{ebiten.KeyBracketLeft, false, engine.RateDown},
	{ebiten.KeyS, false, engine.NextVisualizer},
	{ebiten.KeyS, true, engine.PrevVisualizer},
	{ebiten.KeyO, false, engine.ToggleVisualizer},
	{ebiten.KeyArrowUp, false, engine.GrowVisualizer},
	{ebiten.KeyArrowDown, false, engine.ShrinkVisualizer},
	{ebiten.KeyR, false, engine.ToggleRainbow},
	{ebiten.KeyP, false, engine.NextParticles},
	{ebiten.KeyP, true, engine.PrevParticles},
	{ebiten.KeyI, false, engine.ToggleParticles},
	{ebiten.KeyEqual, false, engine.MoreParticles},
	{ebiten.KeyMinus, false, engine.FewerParticles},
	{ebiten.KeyT, false, engine.ToggleBeatSync},
	{ebiten.KeyK, false, engine.ToggleKaraoke},
	{ebiten.KeyX, false, engine.DismissError},
}

// Game adapts a session to ebiten. Frames are painted in Update so the
// compositor runs on the game loop's clock.
type Game struct {
	session *engine.Session
	opts    Options
	log     *log.Logger
	ctx     context.Context

	img      *ebiten.Image
	doneSeen bool
	advance  bool
	saving   chan struct{}
}

func New(ctx context.Context, s *engine.Session, opts Options) *Game {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Game{session: s, opts: opts, log: logger.With("component", "window"), ctx: ctx}
}

// Run opens the window and blocks until it is closed, ctx ends or the
// session is closed.
func Run(ctx context.Context, s *engine.Session, opts Options) error {
	g := New(ctx, s, opts)
	w, h := s.Loop().Size()
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	ebiten.SetWindowSize(int(float64(w)*scale), int(float64(h)*scale))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowTitle(opts.Title)
	return ebiten.RunGame(g)
}

func (g *Game) Update() error {
	if g.ctx.Err() != nil || inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}

	shift := ebiten.IsKeyPressed(ebiten.KeyShift)
	for _, b := range bindings {
		if b.shift == shift && inpututil.IsKeyJustPressed(b.key) {
			g.session.Do(b.action)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		g.toggleRecording()
	}

	if err := g.session.Frame(time.Now()); err != nil {
		g.log.Debug("frame", "err", err)
	}
	if msg := g.session.Banner(); msg != "" {
		ebiten.SetWindowTitle(g.opts.Title + " | ERR: " + msg)
	} else {
		ebiten.SetWindowTitle(g.opts.Title)
	}

	done := g.session.Player().TrackDone()
	if done && !g.doneSeen {
		g.advance = true
	}
	g.doneSeen = done
	// Loading the next track tears the session down, so an active
	// recording is saved before moving on.
	if g.advance && !g.busy() {
		if g.session.Recording() {
			g.save()
		} else {
			g.advance = false
			if g.opts.OnTrackDone != nil {
				g.opts.OnTrackDone()
			}
		}
	}
	return nil
}

// busy reports whether a recording is still being finalized.
func (g *Game) busy() bool {
	if g.saving == nil {
		return false
	}
	select {
	case <-g.saving:
		g.saving = nil
		return false
	default:
		return true
	}
}

func (g *Game) toggleRecording() {
	if g.busy() {
		return
	}
	if !g.session.Recording() {
		if err := g.session.StartRecording(g.ctx); err != nil {
			g.log.Error("recording", "err", err)
		}
		return
	}
	g.save()
}

// save finalizes in the background so the window keeps painting while the
// encoder flushes.
func (g *Game) save() {
	done := make(chan struct{})
	g.saving = done
	go func() {
		defer close(done)
		rec, err := g.session.StopRecording()
		if err != nil {
			g.log.Error("recording", "err", err)
			return
		}
		path, err := rec.Save(g.opts.OutDir)
		if err != nil {
			g.log.Error("save recording", "err", err)
			return
		}
		g.log.Info("recording saved", "path", path)
	}()
}

func (g *Game) Draw(screen *ebiten.Image) {
	src := g.session.Loop().Image()
	b := src.Bounds()
	if g.img == nil || g.img.Bounds().Size() != b.Size() {
		g.img = ebiten.NewImage(b.Dx(), b.Dy())
	}
	g.img.WritePixels(src.Pix)
	screen.DrawImage(g.img, nil)
}

// Layout keeps the logical screen at the canvas size; ebiten scales it
// into the window.
func (g *Game) Layout(int, int) (int, int) {
	return g.session.Loop().Size()
}
