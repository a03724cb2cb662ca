package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"beatcanvas/spectrum"
)

const (
	numBands = 10
	barWidth = 4
)

// Unicode block elements for bar height (9 levels including space)
var barBlocks = []string{" ", "▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

// bandEdges split the 128 analysis bins into roughly octave-wide bands.
var bandEdges = [numBands + 1]int{1, 2, 3, 5, 8, 12, 18, 28, 44, 72, 128}

var (
	specLowStyle  = lipgloss.NewStyle().Foreground(spectrumLow)
	specMidStyle  = lipgloss.NewStyle().Foreground(spectrumMid)
	specHighStyle = lipgloss.NewStyle().Foreground(spectrumHigh)
)

// Meter turns snapshots into the compact spectrum line under the preview.
type Meter struct {
	prev [numBands]float64
}

// Bands averages the snapshot into numBands levels in [0, 1] with a fast
// attack and slow decay.
func (m *Meter) Bands(snap spectrum.Snapshot) [numBands]float64 {
	var bands [numBands]float64
	for b := range numBands {
		var sum float64
		lo, hi := bandEdges[b], bandEdges[b+1]
		for i := lo; i < hi; i++ {
			sum += snap.Level(i)
		}
		level := sum / float64(hi-lo)
		if level > m.prev[b] {
			level = level*0.6 + m.prev[b]*0.4
		} else {
			level = level*0.25 + m.prev[b]*0.75
		}
		bands[b] = max(0, min(1, level))
		m.prev[b] = bands[b]
	}
	return bands
}

// Render draws the bands to fit width columns.
func (m *Meter) Render(bands [numBands]float64, width int) string {
	if width < 2*numBands-1 {
		return ""
	}
	bw := min(barWidth, (width-(numBands-1))/numBands)

	var sb strings.Builder
	for i, level := range bands {
		idx := int(level * float64(len(barBlocks)-1))
		idx = max(0, min(idx, len(barBlocks)-1))

		var style lipgloss.Style
		switch {
		case level > 0.75:
			style = specHighStyle
		case level > 0.45:
			style = specMidStyle
		default:
			style = specLowStyle
		}
		sb.WriteString(style.Render(strings.Repeat(barBlocks[idx], bw)))
		if i < numBands-1 {
			sb.WriteString(" ")
		}
	}
	return sb.String()
}
