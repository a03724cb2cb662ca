package ui

import (
	"fmt"
	"image"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/image/draw"
)

// preview renders an image into cols×rows terminal cells. Each cell shows
// two vertically stacked pixels using an upper half block with the top
// pixel as foreground and the bottom pixel as background.
type preview struct {
	small *image.RGBA
}

func (p *preview) render(src *image.RGBA, cols, rows int) string {
	if src == nil || cols < 1 || rows < 1 {
		return ""
	}
	r := image.Rect(0, 0, cols, rows*2)
	if p.small == nil || p.small.Bounds() != r {
		p.small = image.NewRGBA(r)
	}
	draw.ApproxBiLinear.Scale(p.small, r, src, src.Bounds(), draw.Src, nil)

	var sb strings.Builder
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			top := p.small.RGBAAt(x, 2*y)
			bot := p.small.RGBAAt(x, 2*y+1)
			sb.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(hex(top.R, top.G, top.B))).
				Background(lipgloss.Color(hex(bot.R, bot.G, bot.B))).
				Render("▀"))
		}
		if y < rows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func hex(r, g, b uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// previewSize fits the canvas aspect ratio into at most maxCols×maxRows
// cells, remembering that a cell is two pixels tall.
func previewSize(w, h, maxCols, maxRows int) (cols, rows int) {
	if w <= 0 || h <= 0 || maxCols < 1 || maxRows < 1 {
		return 0, 0
	}
	cols = maxCols
	rows = cols * h / w / 2
	if rows > maxRows {
		rows = maxRows
		cols = rows * 2 * w / h
	}
	return max(1, cols), max(1, rows)
}
