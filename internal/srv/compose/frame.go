package compose

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
)

// ColorOrder is the channel order expected by the output device, e.g. "RGB" or "GRB"
type ColorOrder string

const DefaultColorOrder ColorOrder = "RGB"

// ParseColorOrder accepts any permutation of the letters R, G and B
func ParseColorOrder(s string) (ColorOrder, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return DefaultColorOrder, nil
	}
	if len(s) != 3 || !strings.ContainsRune(s, 'R') || !strings.ContainsRune(s, 'G') || !strings.ContainsRune(s, 'B') {
		return "", fmt.Errorf("invalid color order %q", s)
	}
	return ColorOrder(s), nil
}

func (o ColorOrder) apply(r, g, b uint8) [3]uint8 {
	if len(o) != 3 {
		return [3]uint8{r, g, b}
	}
	var out [3]uint8
	for i := 0; i < 3; i++ {
		switch o[i] {
		case 'R':
			out[i] = r
		case 'G':
			out[i] = g
		case 'B':
			out[i] = b
		}
	}
	return out
}

// FrameBuffer is one complete frame for the matrix
type FrameBuffer struct {
	img   *image.RGBA
	order ColorOrder
}

// NewFrameBuffer returns an opaque black frame
func NewFrameBuffer(width, height int, order ColorOrder) *FrameBuffer {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	if order == "" {
		order = DefaultColorOrder
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{0, 0, 0, 255}), image.Point{}, draw.Src)
	return &FrameBuffer{img: img, order: order}
}

func (f *FrameBuffer) Width() int {
	return f.img.Bounds().Dx()
}

func (f *FrameBuffer) Height() int {
	return f.img.Bounds().Dy()
}

func (f *FrameBuffer) Order() ColorOrder {
	return f.order
}

// Image exposes the frame for image based drivers. Callers must not modify it.
func (f *FrameBuffer) Image() *image.RGBA {
	return f.img
}

// RGB returns the pixel at (x, y) in plain R, G, B order
func (f *FrameBuffer) RGB(x, y int) (r, g, b uint8) {
	if !(image.Point{x, y}.In(f.img.Rect)) {
		return 0, 0, 0
	}
	i := f.img.PixOffset(x, y)
	return f.img.Pix[i], f.img.Pix[i+1], f.img.Pix[i+2]
}

// Triple returns the pixel at (x, y) in the device color order
func (f *FrameBuffer) Triple(x, y int) [3]uint8 {
	r, g, b := f.RGB(x, y)
	return f.order.apply(r, g, b)
}

// Bytes returns every pixel, row-major, as triples in the device color order
func (f *FrameBuffer) Bytes() []byte {
	w, h := f.Width(), f.Height()
	out := make([]byte, 0, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			t := f.Triple(x, y)
			out = append(out, t[0], t[1], t[2])
		}
	}
	return out
}

// IsBlack reports whether every pixel is off
func (f *FrameBuffer) IsBlack() bool {
	for i := 0; i < len(f.img.Pix); i += 4 {
		if f.img.Pix[i] != 0 || f.img.Pix[i+1] != 0 || f.img.Pix[i+2] != 0 {
			return false
		}
	}
	return true
}
