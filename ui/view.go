package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"beatcanvas/player"
)

const (
	panelWidth     = 60 // usable inner width (66 frame - 2 border - 4 padding)
	maxPreviewRows = 17
	// chromeRows is everything in the frame except the preview.
	chromeRows = 24
)

// Pre-built styles for elements created per-render to avoid repeated allocation.
var (
	seekFillStyle = lipgloss.NewStyle().Foreground(colorSeekBar)
	seekDimStyle  = lipgloss.NewStyle().Foreground(colorDim)
	activeToggle  = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
)

// View renders the full panel.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{
		m.renderTitle(),
		m.renderTrackInfo(),
		m.renderTimeStatus(),
		"",
		m.renderPreview(),
		m.renderSpectrum(),
		m.renderSeekBar(),
		"",
		m.renderAudio(),
		m.renderVisuals(),
		m.renderParticles(),
		"",
		m.renderPlaylistHeader(),
		m.renderPlaylist(),
		"",
		m.renderHelp(),
	}

	if msg := m.errText(); msg != "" {
		sections = append(sections, errorStyle.Render("ERR: "+msg))
	} else if m.notice != "" {
		sections = append(sections, noticeStyle.Render(m.notice))
	}

	return frameStyle.Render(strings.Join(sections, "\n"))
}

func (m Model) errText() string {
	if m.err != nil {
		return m.err.Error()
	}
	return m.session.Banner()
}

func (m Model) renderTitle() string {
	title := titleStyle.Render("B E A T C A N V A S")
	var rec string
	switch {
	case m.finalizing:
		rec = dimStyle.Render("● saving…")
	case m.session.Recording():
		start, _ := m.session.RecordingStarted()
		rec = recordStyle.Render("● REC " + clock(time.Since(start)))
	}
	if rec == "" {
		return title
	}
	gap := max(1, panelWidth-lipgloss.Width(title)-lipgloss.Width(rec))
	return title + strings.Repeat(" ", gap) + rec
}

func (m Model) renderTrackInfo() string {
	track, _ := m.playlist.Current()
	name := track.DisplayName()
	if name == "" {
		name = "No track loaded"
	}

	prefix := "♫ "
	maxW := panelWidth - len([]rune(prefix))
	runes := []rune(name)

	if len(runes) <= maxW {
		return trackStyle.Render(prefix + name)
	}

	// Cyclic scrolling for long titles
	sep := []rune("   ♫   ")
	padded := append(runes, sep...)
	total := len(padded)
	off := m.titleOff % total

	display := make([]rune, maxW)
	for i := range maxW {
		display[i] = padded[(off+i)%total]
	}
	return trackStyle.Render(prefix + string(display))
}

func (m Model) renderTimeStatus() string {
	p := m.session.Player()
	timeStr := clock(p.Position()) + " / " + clock(p.Duration())

	var status string
	switch p.State() {
	case player.Paused:
		status = statusStyle.Render("⏸ Paused")
	case player.Playing:
		if p.TrackDone() {
			status = dimStyle.Render("⏹ Ended")
		} else {
			status = statusStyle.Render("▶ Playing")
		}
	default:
		status = dimStyle.Render("⏹ Stopped")
	}

	left := timeStyle.Render(timeStr)
	gap := max(1, panelWidth-lipgloss.Width(left)-lipgloss.Width(status))
	return left + strings.Repeat(" ", gap) + status
}

func (m Model) renderPreview() string {
	loop := m.session.Loop()
	w, h := loop.Size()
	rows := maxPreviewRows
	if m.height > 0 {
		rows = min(rows, m.height-chromeRows)
	}
	cols, rows := previewSize(w, h, panelWidth, rows)
	if cols == 0 {
		return ""
	}
	out := m.preview.render(loop.Image(), cols, rows)
	if pad := (panelWidth - cols) / 2; pad > 0 {
		out = lipgloss.NewStyle().PaddingLeft(pad).Render(out)
	}
	return out
}

func (m Model) renderSpectrum() string {
	return m.meter.Render(m.bands, panelWidth)
}

func (m Model) renderSeekBar() string {
	p := m.session.Player()
	pos, dur := p.Position(), p.Duration()

	var progress float64
	if dur > 0 {
		progress = float64(pos) / float64(dur)
	}
	progress = max(0, min(1, progress))

	filled := int(progress * float64(panelWidth-1))

	return seekFillStyle.Render(strings.Repeat("━", filled)) +
		seekFillStyle.Render("●") +
		seekDimStyle.Render(strings.Repeat("━", max(0, panelWidth-filled-1)))
}

func (m Model) renderAudio() string {
	cfg := m.session.Config()
	path := "dry"
	if g := m.session.Graph(); g == nil {
		path = "direct"
	} else if g.Suppressed() {
		path = "karaoke"
	}
	return labelStyle.Render("AUDIO ") +
		toggle("vocals off", cfg.VocalSuppression) + " " +
		dimStyle.Render("path ") + valueStyle.Render(path) + " " +
		dimStyle.Render("rate ") + valueStyle.Render(fmt.Sprintf("%.2f×", cfg.PlaybackRate))
}

func (m Model) renderVisuals() string {
	cfg := m.session.Config()
	return labelStyle.Render("VIS   ") +
		toggle("on", cfg.ShowVisualizer) + " " +
		valueStyle.Render(cfg.VisualizerStyle.String()) + " " +
		dimStyle.Render(fmt.Sprintf("%.0f%%", cfg.VisualizerSize)) + " " +
		toggle("rainbow", cfg.Rainbow) + " " +
		toggle("beat", cfg.BeatSync)
}

func (m Model) renderParticles() string {
	cfg := m.session.Config()
	return labelStyle.Render("PART  ") +
		toggle("on", cfg.ShowParticles) + " " +
		valueStyle.Render(cfg.ParticleStyle.String()) + " " +
		dimStyle.Render(fmt.Sprintf("×%d", cfg.ParticleCount)) + " " +
		toggle("karaoke", cfg.Karaoke)
}

func toggle(label string, on bool) string {
	if on {
		return onStyle.Render("[" + label + "]")
	}
	return dimStyle.Render("[" + label + "]")
}

func (m Model) renderPlaylistHeader() string {
	shuffle := dimStyle.Render("[Shuffle]")
	if m.playlist.Shuffled() {
		shuffle = activeToggle.Render("[Shuffle]")
	}

	repeatStr := fmt.Sprintf("[Repeat: %s]", m.playlist.Repeat())
	if m.playlist.Repeat() != 0 {
		repeatStr = activeToggle.Render(repeatStr)
	} else {
		repeatStr = dimStyle.Render(repeatStr)
	}

	return dimStyle.Render("── Playlist ── ") + shuffle + " " + repeatStr + " " + dimStyle.Render("──")
}

func (m Model) renderPlaylist() string {
	tracks := m.playlist.Tracks()
	if len(tracks) == 0 {
		return dimStyle.Render("  No tracks loaded")
	}

	_, currentIdx := m.playlist.Current()
	visible := min(m.plVisible, len(tracks))

	scroll := m.plScroll
	if scroll+visible > len(tracks) {
		scroll = len(tracks) - visible
	}
	scroll = max(0, scroll)

	lines := make([]string, 0, visible)
	for i := scroll; i < scroll+visible && i < len(tracks); i++ {
		prefix := "  "
		style := playlistItemStyle
		if i == currentIdx {
			prefix = "▶ "
			style = playlistActiveStyle
		}

		name := tracks[i].DisplayName()
		maxW := panelWidth - 6
		nameRunes := []rune(name)
		if len(nameRunes) > maxW {
			name = string(nameRunes[:maxW-1]) + "…"
		}

		lines = append(lines, style.Render(fmt.Sprintf("%s%d. %s", prefix, i+1, name)))
	}

	return strings.Join(lines, "\n")
}

func (m Model) renderHelp() string {
	return helpStyle.Render(
		"[Spc]Play [<>]Trk [←→]Seek [v]Vocals [[]]Rate [c]Rec [Q]Quit\n" +
			"[sS]Vis [↑↓]Size [o]Show [r]Rainbow [pP]Part [+-]Count [t]Beat [k]Kar")
}

func clock(d time.Duration) string {
	d = max(0, d)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
