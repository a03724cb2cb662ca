package engine

import (
	"beatcanvas/config"
	"beatcanvas/playlist"
)

// TrackOptions chooses what LoadTrack takes from the track itself.
type TrackOptions struct {
	// KeepLabels leaves the configured title and subtitle alone instead of
	// using the track's title and artist.
	KeepLabels bool
	// KeepLyrics leaves the configured lyrics alone instead of reading the
	// track's sidecar file.
	KeepLyrics bool
}

// LoadTrack labels the canvas for t, swaps in its lyrics and loads its
// audio. A missing or unreadable lyrics file only clears the lyrics.
func (s *Session) LoadTrack(t playlist.Track, o TrackOptions) error {
	var lyrics string
	if !o.KeepLyrics && t.LyricsPath != "" {
		text, err := playlist.ReadLyrics(t.LyricsPath)
		if err != nil {
			s.log.Warn("lyrics unavailable", "path", t.LyricsPath, "err", err)
		}
		lyrics = text
	}
	s.Update(func(c *config.Config) {
		if !o.KeepLabels {
			c.Title = t.Title
			c.Subtitle = t.Artist
		}
		if !o.KeepLyrics {
			c.Lyrics = lyrics
		}
	})
	return s.LoadAudio(t.Path)
}
