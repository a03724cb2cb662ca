package canvas

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// LoadImage decodes a PNG, JPEG or WebP file.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// Cover scales src to fill a w×h frame, cropping whichever axis overflows,
// the way CSS object-fit: cover does.
func Cover(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if src == nil || w <= 0 || h <= 0 {
		return dst
	}
	sb := src.Bounds()
	sw, sh := float64(sb.Dx()), float64(sb.Dy())
	if sw == 0 || sh == 0 {
		return dst
	}
	scale := max(float64(w)/sw, float64(h)/sh)
	cw, ch := float64(w)/scale, float64(h)/scale
	x0 := sb.Min.X + int((sw-cw)/2)
	y0 := sb.Min.Y + int((sh-ch)/2)
	crop := image.Rect(x0, y0, x0+int(cw), y0+int(ch))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Src, nil)
	return dst
}

// Square scales the centered square crop of src to size×size. The logo is
// pre-scaled once with this so per-frame drawing only rotates it.
func Square(src image.Image, size int) *image.RGBA {
	if size < 1 {
		size = 1
	}
	return Cover(src, size, size)
}
