package device

import (
	"github.com/jypelle/ledtune/internal/srv/compose"
	"image"
	"sync"
)

// simDriver keeps the last frame in memory and, with a window, shows it on screen
type simDriver struct {
	lock    sync.RWMutex
	window  bool
	width   int
	height  int
	lastImg *image.RGBA

	simulationWindow
}

func newSimDriver(window bool, width, height int) *simDriver {
	return &simDriver{
		window:  window,
		width:   width,
		height:  height,
		lastImg: image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

func (d *simDriver) Open() error {
	if d.window {
		d.startSimulation(d.width, d.height, d.image)
	}
	return nil
}

func (d *simDriver) Write(frame *compose.FrameBuffer) error {
	d.lock.Lock()
	copy(d.lastImg.Pix, frame.Image().Pix)
	d.lock.Unlock()
	if d.window {
		d.invalidateSimulationWindow()
	}
	return nil
}

func (d *simDriver) Close() error {
	if d.window {
		d.closeSimulationWindow()
	}
	return nil
}

// image returns a copy of the last written frame
func (d *simDriver) image() image.Image {
	d.lock.RLock()
	defer d.lock.RUnlock()
	img := image.NewRGBA(d.lastImg.Bounds())
	copy(img.Pix, d.lastImg.Pix)
	return img
}
