package engine

import (
	"time"

	"beatcanvas/config"
)

// Action is a user command shared by the terminal panel and the window.
type Action int

const (
	TogglePlay Action = iota
	SeekBack
	SeekForward
	ToggleVocals
	RateUp
	RateDown
	NextVisualizer
	PrevVisualizer
	ToggleVisualizer
	GrowVisualizer
	ShrinkVisualizer
	ToggleRainbow
	NextParticles
	PrevParticles
	ToggleParticles
	MoreParticles
	FewerParticles
	ToggleBeatSync
	ToggleKaraoke
	DismissError
)

const (
	SeekStep     = 5 * time.Second
	RateStep     = 0.25
	SizeStep     = 5.0
	ParticleStep = 20
)

var edits = map[Action]func(c *config.Config){
	ToggleVocals:     func(c *config.Config) { c.VocalSuppression = !c.VocalSuppression },
	RateUp:           func(c *config.Config) { c.PlaybackRate += RateStep },
	RateDown:         func(c *config.Config) { c.PlaybackRate -= RateStep },
	NextVisualizer:   func(c *config.Config) { c.VisualizerStyle = c.VisualizerStyle.Next() },
	PrevVisualizer:   func(c *config.Config) { c.VisualizerStyle = c.VisualizerStyle.Prev() },
	ToggleVisualizer: func(c *config.Config) { c.ShowVisualizer = !c.ShowVisualizer },
	GrowVisualizer:   func(c *config.Config) { c.VisualizerSize += SizeStep },
	ShrinkVisualizer: func(c *config.Config) { c.VisualizerSize -= SizeStep },
	ToggleRainbow:    func(c *config.Config) { c.Rainbow = !c.Rainbow },
	NextParticles:    func(c *config.Config) { c.ParticleStyle = c.ParticleStyle.Next() },
	PrevParticles:    func(c *config.Config) { c.ParticleStyle = c.ParticleStyle.Prev() },
	ToggleParticles:  func(c *config.Config) { c.ShowParticles = !c.ShowParticles },
	MoreParticles:    func(c *config.Config) { c.ParticleCount += ParticleStep },
	FewerParticles:   func(c *config.Config) { c.ParticleCount -= ParticleStep },
	ToggleBeatSync:   func(c *config.Config) { c.BeatSync = !c.BeatSync },
	ToggleKaraoke:    func(c *config.Config) { c.Karaoke = !c.Karaoke },
}

// Do performs a. Settings changes go through Update so the render loop
// only ever sees whole configs.
func (s *Session) Do(a Action) {
	if edit, ok := edits[a]; ok {
		s.Update(edit)
		return
	}
	switch a {
	case TogglePlay:
		s.TogglePlay()
	case SeekBack:
		s.Seek(-SeekStep)
	case SeekForward:
		s.Seek(SeekStep)
	case DismissError:
		s.DismissBanner()
	}
}
