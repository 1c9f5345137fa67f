package device

import (
	"fmt"
	"github.com/jypelle/ledtune/internal/srv/event"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
	"time"
)

const (
	buttonPollPeriod   = 5 * time.Millisecond
	buttonRepeatPeriod = 160 * time.Millisecond
)

type pinReader interface {
	Read() gpio.Level
}

type Button struct {
	buttonId       event.ButtonId
	pin            pinReader
	isPressed      bool
	pressStepCount int64
	lastChange     time.Time
}

func NewButton(buttonId event.ButtonId, name string) (*Button, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("failed to find %s button", name)
	}

	// Set it as input, with an internal pull up resistor:
	if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("failed to setup %s button: %w", name, err)
	}
	return &Button{buttonId: buttonId, pin: pin}, nil
}

// Refresh emits a press event right away then every 160ms while held, and a release event
func (b *Button) Refresh(now time.Time, buttonEventChannel chan event.ButtonEvent) {
	wasPressed := b.isPressed
	b.isPressed = bool(!b.pin.Read())

	if !b.isPressed && wasPressed {
		b.lastChange = now
		buttonEventChannel <- event.ButtonEvent{ButtonId: b.buttonId, ButtonEventType: event.RELEASE_EVENT_TYPE, PressStepCount: b.pressStepCount}
		b.pressStepCount = 0
	} else if b.isPressed && b.lastChange.Add(buttonRepeatPeriod).Before(now) {
		b.lastChange = now
		b.pressStepCount++
		buttonEventChannel <- event.ButtonEvent{ButtonId: b.buttonId, ButtonEventType: event.PRESS_EVENT_TYPE, PressStepCount: b.pressStepCount}
	}
}

type Buttons struct {
	eventChannel chan event.ButtonEvent
	pinName      string

	buttons []*Button

	checkTicker *time.Ticker

	askDone chan bool
	done    chan bool
}

// NewButtons watches the display button on pinName, no button at all when pinName is empty
func NewButtons(pinName string) *Buttons {
	return &Buttons{
		eventChannel: make(chan event.ButtonEvent),
		pinName:      pinName,
		askDone:      make(chan bool),
		done:         make(chan bool),
	}
}

func (d *Buttons) Start() {
	logrus.Infof("Start buttons device")

	if d.pinName != "" {
		if _, err := host.Init(); err != nil {
			logrus.Errorf("Unable to initialize gpio: %v", err)
		} else if button, err := NewButton(event.DISPLAY_BUTTON, d.pinName); err != nil {
			logrus.Errorf("Button disabled: %v", err)
		} else {
			d.buttons = append(d.buttons, button)
		}
	}

	// Start periodic check
	d.checkTicker = time.NewTicker(buttonPollPeriod)
	go func() {
		for loop := true; loop; {
			select {
			case now := <-d.checkTicker.C:
				for _, button := range d.buttons {
					button.Refresh(now, d.eventChannel)
				}
			case <-d.askDone:
				loop = false
			}
		}
		d.done <- true
	}()
}

func (d *Buttons) StopSendingEvent() {
	logrus.Infof("Stop buttons device")

	d.checkTicker.Stop()
	d.askDone <- true
	<-d.done
}

func (d *Buttons) EventChannel() chan event.ButtonEvent {
	return d.eventChannel
}
