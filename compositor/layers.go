package compositor

import (
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/fogleman/gg"

	"beatcanvas/canvas"
	"beatcanvas/config"
)

var (
	white = color.RGBA{255, 255, 255, 255}
	black = color.RGBA{0, 0, 0, 255}

	gradientTop    = color.RGBA{0x14, 0x0c, 0x2e, 0xff}
	gradientBottom = color.RGBA{0x03, 0x03, 0x0a, 0xff}
)

// coverCache holds the background scaled to the canvas. Rescaling only
// happens when the source image or the canvas size changes.
type coverCache struct {
	src    image.Image
	w, h   int
	scaled *image.RGBA
}

func (cc *coverCache) get(src image.Image, w, h int) *image.RGBA {
	if cc.scaled == nil || cc.src != src || cc.w != w || cc.h != h {
		cc.src, cc.w, cc.h = src, w, h
		cc.scaled = canvas.Cover(src, w, h)
	}
	return cc.scaled
}

func (l *Loop) drawBackground(c *canvas.Canvas, src image.Image) {
	if src != nil {
		c.DrawImage(l.bg.get(src, c.Width(), c.Height()), 0, 0)
		return
	}
	l.bg = coverCache{}
	grad := gg.NewLinearGradient(0, 0, 0, float64(c.Height()))
	grad.AddColorStop(0, gradientTop)
	grad.AddColorStop(1, gradientBottom)
	c.SetFillStyle(grad)
	c.DrawRectangle(0, 0, float64(c.Width()), float64(c.Height()))
	c.Fill()
}

// logoCache holds the logo pre-scaled to its on-screen diameter.
type logoCache struct {
	src    image.Image
	size   int
	scaled *image.RGBA
}

func (lc *logoCache) get(src image.Image, size int) *image.RGBA {
	if lc.scaled == nil || lc.src != src || lc.size != size {
		lc.src, lc.size = src, size
		lc.scaled = canvas.Square(src, size)
	}
	return lc.scaled
}

// drawLogo paints the rotating circular logo and returns its radius, or 0
// when there is no logo.
func (l *Loop) drawLogo(c *canvas.Canvas, src image.Image, cfg *config.Config, w, h float64) float64 {
	if src == nil {
		l.logo = logoCache{}
		return 0
	}
	r := math.Min(w, h) * 0.15 * cfg.LogoScale
	if r < 1 || math.IsNaN(r) {
		return 0
	}
	img := l.logo.get(src, int(2*r))

	c.Push()
	c.Translate(w/2, h/2)
	c.Rotate(gg.Radians(l.rotation))
	c.DrawCircle(0, 0, r)
	c.Clip()
	c.DrawImageAnchored(img, 0, 0, 0.5, 0.5)
	c.ResetClip()
	c.SetColor(canvas.WithAlpha(white, 0.85))
	c.SetLineWidth(math.Max(2, r*0.04))
	c.DrawCircle(0, 0, r)
	c.Stroke()
	c.Pop()
	return r
}

func (l *Loop) drawLabels(c *canvas.Canvas, cfg *config.Config, w, h, logoR float64) {
	if cfg.Title != "" {
		c.SetFont(cfg.FontSize, true)
		shadowed(c, cfg.Title, w/2, cfg.FontSize*1.2, white)
	}
	if cfg.Subtitle != "" {
		size := cfg.FontSize * 0.75
		y := h / 2
		if logoR > 0 {
			y += logoR + size*1.2
		}
		c.SetFont(size, false)
		shadowed(c, cfg.Subtitle, w/2, y, white)
	}
}

func shadowed(c *canvas.Canvas, s string, x, y float64, fg color.RGBA) {
	c.SetColor(canvas.WithAlpha(black, 0.6))
	c.DrawStringAnchored(s, x+2, y+2, 0.5, 0.5)
	c.SetColor(fg)
	c.DrawStringAnchored(s, x, y, 0.5, 0.5)
}

// lyricState scrolls the lyrics right to left. The offset restarts at 0
// once the whole text has crossed the frame.
type lyricState struct {
	text    string
	size    float64
	karaoke bool
	width   float64
	offset  float64
}

// tickerText joins the lyric lines into a single scrolling line.
func tickerText(lyrics string) string {
	var parts []string
	for _, line := range strings.Split(lyrics, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, "   •   ")
}

func (l *Loop) drawLyrics(c *canvas.Canvas, cfg *config.Config, dt, w, h float64) {
	text := tickerText(cfg.Lyrics)
	if text == "" {
		l.lyrics = lyricState{}
		return
	}
	size := cfg.FontSize * 0.8
	if cfg.Karaoke {
		size = cfg.FontSize * 1.25
	}
	c.SetFont(size, cfg.Karaoke)

	ls := &l.lyrics
	if ls.text != text || ls.size != size || ls.karaoke != cfg.Karaoke {
		*ls = lyricState{text: text, size: size, karaoke: cfg.Karaoke}
		ls.width, _ = c.MeasureString(text)
	}
	ls.offset += cfg.LyricsSpeed * 30 * dt
	if ls.offset > w+ls.width {
		ls.offset = 0
	}
	x := w - ls.offset

	if !cfg.Karaoke {
		bar := size * 1.8
		c.SetColor(canvas.WithAlpha(black, 0.55))
		c.DrawRectangle(0, h-bar, w, bar)
		c.Fill()
		c.SetColor(white)
		c.DrawStringAnchored(text, x, h-bar/2, 0, 0.5)
		return
	}

	y := h * 0.85
	accent := canvas.HexOr(cfg.KaraokeColor, white)
	// Glow, then the colored outer stroke, then the solid face.
	c.SetColor(canvas.WithAlpha(accent, 0.25))
	for _, d := range [][2]float64{{-4, 0}, {4, 0}, {0, -4}, {0, 4}} {
		c.DrawStringAnchored(text, x+d[0], y+d[1], 0, 0.5)
	}
	c.SetColor(accent)
	for dx := -2.0; dx <= 2; dx += 2 {
		for dy := -2.0; dy <= 2; dy += 2 {
			if dx != 0 || dy != 0 {
				c.DrawStringAnchored(text, x+dx, y+dy, 0, 0.5)
			}
		}
	}
	c.SetColor(white)
	c.DrawStringAnchored(text, x, y, 0, 0.5)
}

// LyricOffset is how far the lyrics have scrolled, in pixels.
func (l *Loop) LyricOffset() float64 { return l.lyrics.offset }
