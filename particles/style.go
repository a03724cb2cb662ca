package particles

import (
	"fmt"
	"strings"
)

// Style selects a particle motion rule and shape.
type Style uint8

const (
	Drift Style = iota
	Snow
	Bubbles
	Rain
	Fireflies
	Wind
	Spiral
	Stars
	Confetti
	Embers
	Orbit
	Zigzag
	Pulse
	Vortex
	Meteors
	Leaves
	Hearts
	Sparkles
	Galaxy
	Bokeh

	NumStyles
)

var styleNames = [NumStyles]string{
	Drift:     "drift",
	Snow:      "snow",
	Bubbles:   "bubbles",
	Rain:      "rain",
	Fireflies: "fireflies",
	Wind:      "wind",
	Spiral:    "spiral",
	Stars:     "stars",
	Confetti:  "confetti",
	Embers:    "embers",
	Orbit:     "orbit",
	Zigzag:    "zigzag",
	Pulse:     "pulse",
	Vortex:    "vortex",
	Meteors:   "meteors",
	Leaves:    "leaves",
	Hearts:    "hearts",
	Sparkles:  "sparkles",
	Galaxy:    "galaxy",
	Bokeh:     "bokeh",
}

func (s Style) String() string {
	if s < NumStyles {
		return styleNames[s]
	}
	return fmt.Sprintf("Style(%d)", uint8(s))
}

// Valid reports whether s names one of the defined styles.
func (s Style) Valid() bool { return s < NumStyles }

// Next cycles forward through the styles.
func (s Style) Next() Style { return (s + 1) % NumStyles }

// Prev cycles backward through the styles.
func (s Style) Prev() Style { return (s + NumStyles - 1) % NumStyles }

// ParseStyle maps a style name back to its value.
func ParseStyle(name string) (Style, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range styleNames {
		if n == name {
			return Style(i), nil
		}
	}
	return 0, fmt.Errorf("unknown particle style %q", name)
}

func (s Style) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid particle style %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *Style) UnmarshalText(b []byte) error {
	v, err := ParseStyle(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
