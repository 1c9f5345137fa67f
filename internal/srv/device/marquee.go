package device

import (
	"github.com/jypelle/ledtune/internal/srv/config"
	"github.com/jypelle/ledtune/internal/srv/content"
	"github.com/sirupsen/logrus"
	"image/color"
)

type marqueeStore interface {
	MarqueeState() config.MarqueeState
	SetMarqueeState(marquee config.MarqueeState)
}

// Marquee publishes the scrolling text kept in the server state
type Marquee struct {
	store        marqueeStore
	publisher    Publisher
	defaultColor color.RGBA
}

func NewMarquee(store marqueeStore, publisher Publisher, defaultColor color.RGBA) *Marquee {
	return &Marquee{
		store:        store,
		publisher:    publisher,
		defaultColor: defaultColor,
	}
}

func (d *Marquee) Start() {
	logrus.Infof("Start marquee device")
	d.publish(d.store.MarqueeState())
}

func (d *Marquee) Stop() {
	logrus.Infof("Stop marquee device")
}

func (d *Marquee) Get() config.MarqueeState {
	return d.store.MarqueeState()
}

// Set validates and stores the new text and color then publishes them.
// An empty color keeps the current one.
func (d *Marquee) Set(text string, colorStr string) error {
	if colorStr == "" {
		colorStr = d.store.MarqueeState().Color
	}
	if colorStr != "" {
		if _, err := config.ParseColor(colorStr); err != nil {
			return err
		}
	}
	marquee := config.MarqueeState{Text: text, Color: colorStr}
	d.store.SetMarqueeState(marquee)
	d.publish(marquee)
	return nil
}

func (d *Marquee) publish(marquee config.MarqueeState) {
	if marquee.Text == "" {
		d.publisher.Publish(content.None)
		return
	}
	col := d.defaultColor
	if marquee.Color != "" {
		if parsed, err := config.ParseColor(marquee.Color); err == nil {
			col = parsed
		} else {
			logrus.Warnf("Invalid marquee color %q: %v", marquee.Color, err)
		}
	}
	logrus.Debugf("Publish marquee: %s", marquee.Text)
	d.publisher.Publish(content.Marquee{Text: marquee.Text, Color: col})
}
