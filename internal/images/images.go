package images

import (
	"bytes"
	_ "embed"
	"github.com/sirupsen/logrus"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"image"
)

//go:embed idle.svg
var IdleSvgFile []byte

var idleIcon *oksvg.SvgIcon

func init() {
	// Load icons
	var err error

	idleIcon, err = oksvg.ReadIconStream(bytes.NewReader(IdleSvgFile))
	if err != nil {
		logrus.Panicf("Can't load idle icon: %v", err)
	}
}

// IdleGlyph rasterizes the idle icon in a side x side image, nil when side isn't positive
func IdleGlyph(side int) image.Image {
	if side <= 0 {
		return nil
	}
	img := image.NewRGBA(image.Rect(0, 0, side, side))
	idleIcon.SetTarget(0, 0, float64(side), float64(side))
	scanner := rasterx.NewScannerGV(side, side, img, img.Bounds())
	raster := rasterx.NewDasher(side, side, scanner)
	idleIcon.Draw(raster, 1.0)
	return img
}
