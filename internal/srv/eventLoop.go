package srv

import (
	"github.com/jypelle/ledtune/apimodel"
	"github.com/jypelle/ledtune/internal/srv/event"
	"github.com/sirupsen/logrus"
	"image"
)

func (s *ServerApp) eventLoop() {
	for loop := true; loop; {
		select {
		case ev := <-s.apiDevice.EventChannel():
			ev.Result <- s.handleApiEvent(ev)
		case ev := <-s.buttonsDevice.EventChannel():
			switch ev.ButtonId {
			case event.DISPLAY_BUTTON:
				if ev.ButtonEventType == event.RELEASE_EVENT_TYPE {
					logrus.Debugf("Switch display on/off")
					s.SetDisplayOn(s.matrixDevice.Switch())
				}
			}
		case <-s.eventLoopAskDone:
			loop = false
		}
	}
	s.eventLoopDone <- true
}

func (s *ServerApp) handleApiEvent(ev event.ApiEvent) error {
	switch data := ev.Data.(type) {
	case event.ApiEventMarqueeGetData:
		if s.marqueeDevice == nil {
			return errMarqueeUnavailable
		}
		marquee := s.marqueeDevice.Get()
		*data.Marquee = apimodel.Marquee{Text: marquee.Text, Color: marquee.Color}
	case event.ApiEventMarqueeSetData:
		if s.marqueeDevice == nil {
			return errMarqueeUnavailable
		}
		return s.marqueeDevice.Set(data.Marquee.Text, data.Marquee.Color)
	case event.ApiEventDisplaySwitchData:
		on := s.matrixDevice.Switch()
		s.SetDisplayOn(on)
		*data.Status = apimodel.DisplayStatus{On: on, Mode: s.Mode}
	case event.ApiEventDisplayStatusData:
		*data.Status = apimodel.DisplayStatus{On: s.matrixDevice.IsOn(), Mode: s.Mode}
	case event.ApiEventFrameData:
		if frame := s.matrixDevice.LastFrame(); frame != nil {
			img := image.NewRGBA(frame.Image().Bounds())
			copy(img.Pix, frame.Image().Pix)
			*data.Frame = img
		}
	default:
		logrus.Warnf("Unknown api event: %T", ev.Data)
	}
	return nil
}
