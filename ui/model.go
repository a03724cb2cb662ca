// Package ui implements the Bubbletea control panel for beatcanvas: track
// info, a half-block preview of the composited canvas, and key bindings
// for every render and audio setting.
package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"beatcanvas/engine"
	"beatcanvas/playlist"
)

// FrameInterval is how often the model paints and refreshes the panel.
const FrameInterval = time.Second / 30

type tickMsg time.Time

// startMsg loads the first track once the program is running.
type startMsg struct{}

// trackStep is where the playlist moves once a pending recording has
// been saved.
type trackStep int

const (
	stay trackStep = iota
	forward
	back
)

// savedMsg reports a finished recording.
type savedMsg struct {
	path string
	err  error
	then trackStep
}

// Options tune how tracks are labelled and where recordings go.
type Options struct {
	// OutDir receives finished recordings.
	OutDir string
	Track  engine.TrackOptions
	Logger *log.Logger
}

// Model is the Bubbletea model for the control panel.
type Model struct {
	session  *engine.Session
	playlist *playlist.Playlist
	opts     Options
	log      *log.Logger
	ctx      context.Context

	meter   *Meter
	bands   [numBands]float64
	preview *preview

	plScroll   int
	plVisible  int
	titleOff   int // scroll offset for long track titles
	finalizing bool
	notice     string
	err        error
	quitting   bool
	width      int
	height     int
}

// NewModel creates a Model driving s through pl.
func NewModel(ctx context.Context, s *engine.Session, pl *playlist.Playlist, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return Model{
		session:   s,
		playlist:  pl,
		opts:      opts,
		log:       logger.With("component", "ui"),
		ctx:       ctx,
		meter:     &Meter{},
		preview:   &preview{},
		plVisible: 5,
	}
}

// Init queues the first track and starts the frame timer.
func (m Model) Init() tea.Cmd {
	start := func() tea.Msg { return startMsg{} }
	return tea.Batch(start, tickCmd(), tea.WindowSize())
}

func tickCmd() tea.Cmd {
	return tea.Tick(FrameInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles key presses, frame ticks, resizes and finished recordings.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd := m.handleKey(msg)
		if m.quitting {
			return m, tea.Quit
		}
		return m, cmd

	case startMsg:
		m.playCurrentTrack()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		if err := m.session.Frame(time.Time(msg)); err != nil {
			m.log.Debug("frame", "err", err)
		}
		m.bands = m.meter.Bands(m.session.Loop().Snapshot())
		var cmd tea.Cmd
		if m.session.Player().TrackDone() && !m.finalizing {
			cmd = m.changeTrack(forward)
		}
		m.titleOff++
		return m, tea.Batch(tickCmd(), cmd)

	case savedMsg:
		m.finalizing = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.notice = "saved " + msg.path
		}
		m.step(msg.then)
	}

	return m, nil
}

// changeTrack moves through the playlist. Loading a track tears the
// session down, so an active recording is saved first and the move
// happens once it is on disk.
func (m *Model) changeTrack(dir trackStep) tea.Cmd {
	if m.finalizing {
		return nil
	}
	p := m.session.Player()
	if dir == back && p.Position() > 3*time.Second {
		m.session.Seek(-p.Position())
		return nil
	}
	if m.session.Recording() {
		return m.finalize(dir)
	}
	m.step(dir)
	return nil
}

func (m *Model) step(dir trackStep) {
	switch dir {
	case forward:
		m.nextTrack()
	case back:
		m.prevTrack()
	}
}

// nextTrack advances the playlist and loads the new track.
func (m *Model) nextTrack() {
	if _, ok := m.playlist.Next(); !ok {
		m.session.Clear()
		return
	}
	m.adjustScroll()
	m.playCurrentTrack()
}

// prevTrack goes back one track.
func (m *Model) prevTrack() {
	if _, ok := m.playlist.Prev(); !ok {
		return
	}
	m.adjustScroll()
	m.playCurrentTrack()
}

// playCurrentTrack loads whatever track the playlist points at.
func (m *Model) playCurrentTrack() {
	track, idx := m.playlist.Current()
	if idx < 0 {
		return
	}
	m.titleOff = 0
	if err := m.session.LoadTrack(track, m.opts.Track); err != nil {
		m.err = err
		return
	}
	m.err = nil
}

// toggleRecording starts a recording or saves the active one.
func (m *Model) toggleRecording() tea.Cmd {
	if m.finalizing {
		return nil
	}
	if !m.session.Recording() {
		m.notice = ""
		if err := m.session.StartRecording(m.ctx); err != nil {
			m.err = err
		}
		return nil
	}
	return m.finalize(stay)
}

// finalize stops the active recording in the background, since that waits
// on the encoder, and reports the saved file with a savedMsg.
func (m *Model) finalize(then trackStep) tea.Cmd {
	m.finalizing = true
	s, dir := m.session, m.opts.OutDir
	return func() tea.Msg {
		rec, err := s.StopRecording()
		if err != nil {
			return savedMsg{err: err, then: then}
		}
		path, err := rec.Save(dir)
		return savedMsg{path: path, err: err, then: then}
	}
}

// adjustScroll keeps the current track visible in the playlist view.
func (m *Model) adjustScroll() {
	_, cur := m.playlist.Current()
	if cur < m.plScroll {
		m.plScroll = cur
	}
	if cur >= m.plScroll+m.plVisible {
		m.plScroll = cur - m.plVisible + 1
	}
}
