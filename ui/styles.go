package ui

import "github.com/charmbracelet/lipgloss"

// Palette built from the standard ANSI colors so it follows the terminal
// theme. The preview is the only truecolor element.
var (
	colorBorder  = lipgloss.ANSIColor(8)  // bright black
	colorTitle   = lipgloss.ANSIColor(13) // bright magenta
	colorText    = lipgloss.ANSIColor(7)  // white
	colorDim     = lipgloss.ANSIColor(8)  // bright black
	colorAccent  = lipgloss.ANSIColor(14) // bright cyan
	colorPlaying = lipgloss.ANSIColor(10) // bright green
	colorSeekBar = lipgloss.ANSIColor(14) // bright cyan
	colorRecord  = lipgloss.ANSIColor(9)  // bright red

	// Meter gradient: green -> yellow -> red
	spectrumLow  = lipgloss.ANSIColor(10)
	spectrumMid  = lipgloss.ANSIColor(11)
	spectrumHigh = lipgloss.ANSIColor(9)
)

var (
	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 2)

	titleStyle = lipgloss.NewStyle().
			Foreground(colorTitle).
			Bold(true)

	trackStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	timeStyle = lipgloss.NewStyle().
			Foreground(colorText)

	statusStyle = lipgloss.NewStyle().
			Foreground(colorPlaying).
			Bold(true)

	recordStyle = lipgloss.NewStyle().
			Foreground(colorRecord).
			Bold(true).
			Blink(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	onStyle = lipgloss.NewStyle().
		Foreground(colorPlaying).
		Bold(true)

	playlistActiveStyle = lipgloss.NewStyle().
				Foreground(colorPlaying).
				Bold(true)

	playlistItemStyle = lipgloss.NewStyle().
				Foreground(colorText)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	noticeStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.ANSIColor(9))
)
