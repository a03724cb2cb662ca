package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"beatcanvas/engine"
)

var keyActions = map[string]engine.Action{
	" ":     engine.TogglePlay,
	"left":  engine.SeekBack,
	"right": engine.SeekForward,
	"v":     engine.ToggleVocals,
	"]":     engine.RateUp,
	"[":     engine.RateDown,
	"s":     engine.NextVisualizer,
	"S":     engine.PrevVisualizer,
	"o":     engine.ToggleVisualizer,
	"up":    engine.GrowVisualizer,
	"down":  engine.ShrinkVisualizer,
	"r":     engine.ToggleRainbow,
	"p":     engine.NextParticles,
	"P":     engine.PrevParticles,
	"i":     engine.ToggleParticles,
	"+":     engine.MoreParticles,
	"=":     engine.MoreParticles,
	"-":     engine.FewerParticles,
	"t":     engine.ToggleBeatSync,
	"k":     engine.ToggleKaraoke,
}

// handleKey maps a key press to a playlist, recording or session action.
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	if a, ok := keyActions[key]; ok {
		m.session.Do(a)
		return nil
	}

	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		return tea.Quit
	case "n", ">", ".":
		return m.changeTrack(forward)
	case "b", "<", ",":
		return m.changeTrack(back)
	case "z":
		m.playlist.ToggleShuffle()
	case "R":
		m.playlist.CycleRepeat()
	case "c":
		return m.toggleRecording()
	case "x", "esc":
		m.err = nil
		m.notice = ""
		m.session.Do(engine.DismissError)
	}
	return nil
}
