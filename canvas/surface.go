// Package canvas provides the 2D drawing surface the compositor paints on,
// plus the font, image and color helpers the drawing packages share.
package canvas

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Surface is the subset of path drawing the particle and visualizer
// packages need. *gg.Context satisfies it, so does *Canvas.
type Surface interface {
	Width() int
	Height() int

	Push()
	Pop()
	Translate(x, y float64)
	Rotate(angle float64)
	Scale(x, y float64)

	SetColor(c color.Color)
	SetLineWidth(w float64)

	MoveTo(x, y float64)
	LineTo(x, y float64)
	ClosePath()
	NewSubPath()

	DrawCircle(x, y, r float64)
	DrawEllipse(x, y, rx, ry float64)
	DrawRectangle(x, y, w, h float64)
	DrawArc(x, y, r, angle1, angle2 float64)

	Fill()
	Stroke()
	Clip()
	ResetClip()
}

var (
	regularFont = mustParse(goregular.TTF)
	boldFont    = mustParse(gobold.TTF)
)

func mustParse(ttf []byte) *truetype.Font {
	f, err := truetype.Parse(ttf)
	if err != nil {
		panic(err)
	}
	return f
}

type faceKey struct {
	size float64
	bold bool
}

// Canvas is the compositor's output surface: a gg context over an RGBA
// image with cached font faces.
type Canvas struct {
	*gg.Context
	faces map[faceKey]font.Face
}

// New allocates a w×h canvas.
func New(w, h int) *Canvas {
	return &Canvas{
		Context: gg.NewContext(w, h),
		faces:   make(map[faceKey]font.Face),
	}
}

// RGBA returns the backing image. It is only valid until the next frame.
func (c *Canvas) RGBA() *image.RGBA {
	return c.Context.Image().(*image.RGBA)
}

// SetFont selects the Go font family at the given pixel size.
func (c *Canvas) SetFont(size float64, bold bool) {
	if size < 1 {
		size = 1
	}
	key := faceKey{size: size, bold: bold}
	face, ok := c.faces[key]
	if !ok {
		f := regularFont
		if bold {
			f = boldFont
		}
		face = truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
		c.faces[key] = face
	}
	c.SetFontFace(face)
}

// CopyTo copies the current frame into dst, reallocating it when the size
// differs, and returns the destination.
func (c *Canvas) CopyTo(dst *image.RGBA) *image.RGBA {
	src := c.RGBA()
	if dst == nil || dst.Bounds() != src.Bounds() {
		dst = image.NewRGBA(src.Bounds())
	}
	copy(dst.Pix, src.Pix)
	return dst
}
