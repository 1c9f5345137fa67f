package device

import (
	"fmt"
	"github.com/jypelle/ledtune/internal/srv/compose"
	"golang.org/x/image/draw"
	"image"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"
)

// ssd1306Driver previews frames on a monochrome oled display
type ssd1306Driver struct {
	busName string

	i2cBus      i2c.BusCloser
	oledDisplay *ssd1306.Dev
	scaled      *image.RGBA
}

func newSsd1306Driver(busName string) *ssd1306Driver {
	return &ssd1306Driver{busName: busName}
}

func (d *ssd1306Driver) Open() error {
	if _, err := host.Init(); err != nil {
		return err
	}
	var err error
	// Open a handle to the I²C bus (first available one when busName is empty)
	d.i2cBus, err = i2creg.Open(d.busName)
	if err != nil {
		return fmt.Errorf("unable to open i2c bus: %w", err)
	}
	d.oledDisplay, err = ssd1306.NewI2C(d.i2cBus, &ssd1306.DefaultOpts)
	if err != nil {
		d.i2cBus.Close()
		return fmt.Errorf("unable to initialize oled display: %w", err)
	}
	d.oledDisplay.SetContrast(1)
	d.scaled = image.NewRGBA(d.oledDisplay.Bounds())
	return nil
}

func (d *ssd1306Driver) Write(frame *compose.FrameBuffer) error {
	draw.NearestNeighbor.Scale(d.scaled, d.scaled.Bounds(), frame.Image(), frame.Image().Bounds(), draw.Src, nil)
	return d.oledDisplay.Draw(d.oledDisplay.Bounds(), d.scaled, image.Point{})
}

func (d *ssd1306Driver) Close() error {
	if d.oledDisplay != nil {
		d.oledDisplay.Halt()
		d.oledDisplay = nil
	}
	if d.i2cBus != nil {
		err := d.i2cBus.Close()
		d.i2cBus = nil
		return err
	}
	return nil
}
