package visualizer

import (
	"fmt"
	"strings"
)

// Style selects one of the spectrum drawings.
type Style uint8

const (
	RadialBars Style = iota
	CircularWave
	BottomSpectrum
	MirroredBars
	ConcentricRings
	DotRing
	DualWave
	StarBurst
	HexagonPulse
	Spiral
	Tunnel
	HeartBeat
	Barcode
	Eclipse
	Flower
	Orbitals
	Lightning
	LedMeter
	PulseCircle
	WaveLine

	NumStyles
)

var styleNames = [NumStyles]string{
	RadialBars:      "radial-bars",
	CircularWave:    "circular-wave",
	BottomSpectrum:  "bottom-spectrum",
	MirroredBars:    "mirrored-bars",
	ConcentricRings: "concentric-rings",
	DotRing:         "dot-ring",
	DualWave:        "dual-wave",
	StarBurst:       "starburst",
	HexagonPulse:    "hexagon-pulse",
	Spiral:          "spiral",
	Tunnel:          "tunnel",
	HeartBeat:       "heartbeat",
	Barcode:         "barcode",
	Eclipse:         "eclipse",
	Flower:          "flower",
	Orbitals:        "orbitals",
	Lightning:       "lightning",
	LedMeter:        "led-meter",
	PulseCircle:     "pulse-circle",
	WaveLine:        "wave-line",
}

func (s Style) String() string {
	if s < NumStyles {
		return styleNames[s]
	}
	return fmt.Sprintf("Style(%d)", uint8(s))
}

func (s Style) Valid() bool { return s < NumStyles }

func (s Style) Next() Style { return (s + 1) % NumStyles }

func (s Style) Prev() Style { return (s + NumStyles - 1) % NumStyles }

// ParseStyle accepts a style name, ignoring case and treating spaces and
// underscores like dashes.
func ParseStyle(name string) (Style, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.NewReplacer(" ", "-", "_", "-").Replace(name)
	for i, n := range styleNames {
		if n == name {
			return Style(i), nil
		}
	}
	return 0, fmt.Errorf("unknown visualizer style %q", name)
}

func (s Style) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid visualizer style %d", uint8(s))
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
