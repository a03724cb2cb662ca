// Package playlist keeps the ordered list of tracks given on the command
// line and finds the lyrics that belong to each.
package playlist

import (
	"math/rand"
	"path/filepath"
	"strings"
)

// RepeatMode controls what happens at the end of the list.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatAll
	RepeatOne
)

func (r RepeatMode) String() string {
	switch r {
	case RepeatAll:
		return "all"
	case RepeatOne:
		return "one"
	default:
		return "off"
	}
}

// Track is one audio file and what the compositor labels it with.
type Track struct {
	Path   string
	Title  string
	Artist string
	// LyricsPath is the sidecar lyrics file, empty when none was found.
	LyricsPath string
}

// TrackFromPath builds a Track from the file name. "Artist - Title" is
// split; anything else becomes the title. Sidecar lyrics are looked up.
func TrackFromPath(path string) Track {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	t := Track{Path: path, Title: name, LyricsPath: SidecarLyrics(path)}
	if artist, title, ok := strings.Cut(name, " - "); ok {
		t.Artist = strings.TrimSpace(artist)
		t.Title = strings.TrimSpace(title)
	}
	return t
}

// DisplayName returns "Artist - Title" or just the title.
func (t Track) DisplayName() string {
	if t.Artist != "" {
		return t.Artist + " - " + t.Title
	}
	return t.Title
}

// Playlist is an ordered list with optional shuffle and repeat. The zero
// value is an empty list.
type Playlist struct {
	tracks  []Track
	order   []int // indices into tracks
	pos     int   // position in order
	shuffle bool
	repeat  RepeatMode
	rng     *rand.Rand
}

// New creates an empty Playlist whose shuffles are driven by seed.
func New(seed int64) *Playlist {
	return &Playlist{rng: rand.New(rand.NewSource(seed))}
}

// Add appends tracks.
func (p *Playlist) Add(tracks ...Track) {
	start := len(p.tracks)
	p.tracks = append(p.tracks, tracks...)
	for i := start; i < len(p.tracks); i++ {
		p.order = append(p.order, i)
	}
}

func (p *Playlist) Len() int { return len(p.tracks) }

// Current returns the selected track and its index, or -1 when empty.
func (p *Playlist) Current() (Track, int) {
	if len(p.tracks) == 0 {
		return Track{}, -1
	}
	idx := p.order[p.pos]
	return p.tracks[idx], idx
}

// Next advances. It returns false at the end of the list with repeat off.
func (p *Playlist) Next() (Track, bool) {
	if len(p.tracks) == 0 {
		return Track{}, false
	}
	switch {
	case p.repeat == RepeatOne:
	case p.pos+1 < len(p.order):
		p.pos++
	case p.repeat == RepeatAll:
		p.pos = 0
		if p.shuffle {
			p.reshuffle()
		}
	default:
		return Track{}, false
	}
	return p.tracks[p.order[p.pos]], true
}

// Prev steps back, wrapping with RepeatAll and staying on the first track
// otherwise.
func (p *Playlist) Prev() (Track, bool) {
	if len(p.tracks) == 0 {
		return Track{}, false
	}
	switch {
	case p.pos > 0:
		p.pos--
	case p.repeat == RepeatAll:
		p.pos = len(p.order) - 1
	}
	return p.tracks[p.order[p.pos]], true
}

// Tracks returns all tracks in insertion order.
func (p *Playlist) Tracks() []Track { return p.tracks }

// ToggleShuffle switches shuffle. The current track stays current.
func (p *Playlist) ToggleShuffle() {
	if len(p.tracks) == 0 {
		p.shuffle = !p.shuffle
		return
	}
	p.shuffle = !p.shuffle
	if p.shuffle {
		p.reshuffle()
		return
	}
	cur := p.order[p.pos]
	for i := range p.order {
		p.order[i] = i
	}
	p.pos = cur
}

// reshuffle puts the current track first and the rest in random order.
func (p *Playlist) reshuffle() {
	if p.rng == nil {
		p.rng = rand.New(rand.NewSource(1))
	}
	cur := p.order[p.pos]
	p.order = p.order[:0]
	p.order = append(p.order, cur)
	for i := range p.tracks {
		if i != cur {
			p.order = append(p.order, i)
		}
	}
	rest := p.order[1:]
	p.rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
	p.pos = 0
}

// CycleRepeat cycles off, all, one.
func (p *Playlist) CycleRepeat() {
	p.repeat = (p.repeat + 1) % 3
}

func (p *Playlist) Shuffled() bool { return p.shuffle }

func (p *Playlist) Repeat() RepeatMode { return p.repeat }
