package event

import (
	"github.com/jypelle/ledtune/apimodel"
	"image"
)

// Buttons
type ButtonId int

const (
	DISPLAY_BUTTON ButtonId = iota
)

type ButtonEventType int

const (
	PRESS_EVENT_TYPE ButtonEventType = iota
	RELEASE_EVENT_TYPE
)

type ButtonEvent struct {
	ButtonId        ButtonId
	ButtonEventType ButtonEventType
	PressStepCount  int64
}

// Api
type ApiEvent struct {
	Result chan error
	Data   interface{}
}

// ApiEventMarqueeGetData is filled by the event loop before the result is sent
type ApiEventMarqueeGetData struct {
	Marquee *apimodel.Marquee
}

type ApiEventMarqueeSetData struct {
	Marquee apimodel.Marquee
}

type ApiEventDisplaySwitchData struct {
	Status *apimodel.DisplayStatus
}

type ApiEventDisplayStatusData struct {
	Status *apimodel.DisplayStatus
}

// ApiEventFrameData is filled with a copy of the last frame sent to the matrix, nil if none
type ApiEventFrameData struct {
	Frame *image.Image
}
