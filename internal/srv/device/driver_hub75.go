package device

import (
	"fmt"
	"github.com/jypelle/ledtune/internal/srv/compose"
	"github.com/jypelle/ledtune/internal/srv/config"
	"github.com/sirupsen/logrus"
	"github.com/warthog618/go-gpiocdev"
	"sync"
	"time"
)

// hub75Driver bit-bangs a HUB75 panel through the GPIO character device.
// A refresh goroutine scans the latest frame continuously, one bit per color channel.
type hub75Driver struct {
	param  config.Hub75Param
	width  int
	height int

	lines map[int]*gpiocdev.Line

	frameLock sync.Mutex
	frame     *compose.FrameBuffer
	scanErr   error

	askDone chan bool
	done    chan bool
}

func newHub75Driver(param config.Hub75Param, width, height int) *hub75Driver {
	return &hub75Driver{
		param:  param,
		width:  width,
		height: height,
	}
}

func (d *hub75Driver) pins() []int {
	p := d.param
	return []int{p.R1, p.G1, p.B1, p.R2, p.G2, p.B2, p.Clk, p.Oe, p.Lat, p.A, p.B, p.C, p.D, p.E}
}

func (d *hub75Driver) Open() error {
	d.lines = make(map[int]*gpiocdev.Line)
	for _, pin := range d.pins() {
		if pin < 0 {
			d.closeLines()
			return fmt.Errorf("invalid hub75 pin: %d", pin)
		}
		if _, ok := d.lines[pin]; ok {
			continue
		}
		line, err := gpiocdev.RequestLine(d.param.Chip, pin, gpiocdev.AsOutput(0))
		if err != nil {
			d.closeLines()
			return fmt.Errorf("unable to request gpio line %d on %s: %w", pin, d.param.Chip, err)
		}
		d.lines[pin] = line
	}
	// Output disabled until the first frame
	d.setPin(d.param.Oe, 1)

	d.askDone = make(chan bool)
	d.done = make(chan bool)
	go d.refreshLoop()
	return nil
}

func (d *hub75Driver) Write(frame *compose.FrameBuffer) error {
	d.frameLock.Lock()
	defer d.frameLock.Unlock()
	if d.scanErr != nil {
		return d.scanErr
	}
	d.frame = frame
	return nil
}

func (d *hub75Driver) Close() error {
	if d.askDone != nil {
		d.askDone <- true
		<-d.done
		d.askDone = nil
	}
	d.setPin(d.param.Oe, 1)
	return d.closeLines()
}

func (d *hub75Driver) refreshLoop() {
	for loop := true; loop; {
		select {
		case <-d.askDone:
			loop = false
		default:
			d.frameLock.Lock()
			frame := d.frame
			d.frameLock.Unlock()
			if frame == nil {
				time.Sleep(time.Millisecond)
				continue
			}
			if err := d.scan(frame); err != nil {
				logrus.Warnf("HUB75 scan failed: %v", err)
				d.frameLock.Lock()
				d.scanErr = err
				d.frameLock.Unlock()
				time.Sleep(10 * time.Millisecond)
			} else {
				d.frameLock.Lock()
				d.scanErr = nil
				d.frameLock.Unlock()
			}
		}
	}
	d.done <- true
}

// scan shifts every row pair of the frame once
func (d *hub75Driver) scan(frame *compose.FrameBuffer) error {
	rows := d.height / 2
	for row := 0; row < rows; row++ {
		if err := d.setPin(d.param.Oe, 1); err != nil {
			return err
		}
		for col := 0; col < d.width; col++ {
			upper := frame.Triple(col, row)
			lower := frame.Triple(col, row+rows)
			if err := d.setChannels(upper, lower); err != nil {
				return err
			}
			if err := d.pulse(d.param.Clk); err != nil {
				return err
			}
		}
		if err := d.setAddress(row); err != nil {
			return err
		}
		if err := d.pulse(d.param.Lat); err != nil {
			return err
		}
		if err := d.setPin(d.param.Oe, 0); err != nil {
			return err
		}
		time.Sleep(50 * time.Microsecond)
	}
	return nil
}

func (d *hub75Driver) setChannels(upper, lower [3]uint8) error {
	values := []struct {
		pin int
		v   uint8
	}{
		{d.param.R1, upper[0]}, {d.param.G1, upper[1]}, {d.param.B1, upper[2]},
		{d.param.R2, lower[0]}, {d.param.G2, lower[1]}, {d.param.B2, lower[2]},
	}
	for _, pv := range values {
		if err := d.setPin(pv.pin, channelBit(pv.v)); err != nil {
			return err
		}
	}
	return nil
}

func (d *hub75Driver) setAddress(row int) error {
	for i, pin := range []int{d.param.A, d.param.B, d.param.C, d.param.D, d.param.E} {
		if err := d.setPin(pin, (row>>uint(i))&1); err != nil {
			return err
		}
	}
	return nil
}

func (d *hub75Driver) pulse(pin int) error {
	if err := d.setPin(pin, 1); err != nil {
		return err
	}
	return d.setPin(pin, 0)
}

func (d *hub75Driver) setPin(pin int, value int) error {
	line, ok := d.lines[pin]
	if !ok {
		return nil
	}
	return line.SetValue(value)
}

func (d *hub75Driver) closeLines() error {
	var firstErr error
	for pin, line := range d.lines {
		if err := line.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(d.lines, pin)
	}
	return firstErr
}

func channelBit(v uint8) int {
	if v >= 128 {
		return 1
	}
	return 0
}
