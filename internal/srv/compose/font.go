package compose

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"strings"

	"github.com/golang/freetype/truetype"
	"github.com/hajimehoshi/bitmapfont/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// LoadFace returns the face for a font source: "bitmap", "basic" or the path of a TrueType file.
func LoadFace(source string, size float64) (font.Face, error) {
	switch strings.ToLower(strings.TrimSpace(source)) {
	case "", "bitmap":
		return bitmapfont.Face, nil
	case "basic":
		return basicfont.Face7x13, nil
	}

	raw, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("unable to read font %s: %w", source, err)
	}
	ttf, err := truetype.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("unable to parse font %s: %w", source, err)
	}
	if size <= 0 {
		size = 8
	}
	return truetype.NewFace(ttf, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull}), nil
}

// TextWidth returns the advance of text in pixels
func TextWidth(face font.Face, text string) int {
	if text == "" {
		return 0
	}
	return font.MeasureString(face, text).Ceil()
}

// fitText drops trailing runes until text fits in width pixels
func fitText(face font.Face, text string, width int) string {
	runes := []rune(text)
	for len(runes) > 0 && TextWidth(face, string(runes)) > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes)
}

func ascent(face font.Face) int {
	return face.Metrics().Ascent.Ceil()
}

func descent(face font.Face) int {
	return face.Metrics().Descent.Ceil()
}

// drawLabel draws text with its baseline at y. Drawing is clipped to dst bounds.
func drawLabel(dst *image.RGBA, face font.Face, x, y int, col color.Color, text string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
