package device

import (
	"fmt"
	"github.com/jypelle/ledtune/internal/srv/compose"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/apa102"
	"periph.io/x/host/v3"
)

// apa102Driver drives a panel made of an APA102 strip laid out row by row,
// every other row running right to left.
type apa102Driver struct {
	portName   string
	width      int
	height     int
	brightness int

	port spi.PortCloser
	dev  *apa102.Dev
	buf  []byte
}

func newApa102Driver(portName string, width, height, brightness int) *apa102Driver {
	return &apa102Driver{
		portName:   portName,
		width:      width,
		height:     height,
		brightness: brightness,
	}
}

func (d *apa102Driver) Open() error {
	if _, err := host.Init(); err != nil {
		return err
	}
	port, err := spireg.Open(d.portName)
	if err != nil {
		return fmt.Errorf("unable to open spi port: %w", err)
	}
	if err = port.LimitSpeed(4 * physic.MegaHertz); err != nil {
		port.Close()
		return err
	}
	opts := apa102.DefaultOpts
	opts.NumPixels = d.width * d.height
	opts.Intensity = uint8(d.brightness * 255 / 100)
	dev, err := apa102.New(port, &opts)
	if err != nil {
		port.Close()
		return fmt.Errorf("unable to initialize apa102: %w", err)
	}
	d.port = port
	d.dev = dev
	d.buf = make([]byte, d.width*d.height*3)
	return nil
}

func (d *apa102Driver) Write(frame *compose.FrameBuffer) error {
	serpentine(frame, d.buf)
	_, err := d.dev.Write(d.buf)
	return err
}

func (d *apa102Driver) Close() error {
	if d.dev != nil {
		d.dev.Halt()
		d.dev = nil
	}
	if d.port != nil {
		err := d.port.Close()
		d.port = nil
		return err
	}
	return nil
}

// serpentine fills buf with the frame pixels in strip order
func serpentine(frame *compose.FrameBuffer, buf []byte) {
	w, h := frame.Width(), frame.Height()
	i := 0
	for y := 0; y < h; y++ {
		for n := 0; n < w; n++ {
			x := n
			if y%2 == 1 {
				x = w - 1 - n
			}
			t := frame.Triple(x, y)
			copy(buf[i:i+3], t[:])
			i += 3
		}
	}
}
