package scroll

import (
	"math"
	"time"
)

// State is the scroll position of one text region, in pixels.
// Offset stays in [0, TextWidth+WrapGap) and is pinned to 0 when the text doesn't scroll.
type State struct {
	Offset    float64
	TextWidth int
	WrapGap   int
	ViewWidth int
}

// Period is the distance after which the text repeats
func (s State) Period() int {
	s = s.normalized()
	return s.TextWidth + s.WrapGap
}

// Scrolls reports whether the text overflows its view
func (s State) Scrolls() bool {
	s = s.normalized()
	return s.TextWidth > 0 && s.TextWidth > s.ViewWidth
}

// normalized clamps values a bad payload could produce
func (s State) normalized() State {
	if s.TextWidth < 0 {
		s.TextWidth = 0
	}
	if s.WrapGap < 0 {
		s.WrapGap = 0
	}
	if s.ViewWidth < 0 {
		s.ViewWidth = 0
	}
	if math.IsNaN(s.Offset) || math.IsInf(s.Offset, 0) || s.Offset < 0 {
		s.Offset = 0
	}
	return s
}

// Advance moves the state by speed (pixels per second) during dt.
// It only depends on its arguments.
func Advance(s State, dt time.Duration, speed float64) State {
	s = s.normalized()
	if !s.Scrolls() || speed <= 0 || math.IsNaN(speed) || math.IsInf(speed, 0) {
		s.Offset = 0
		return s
	}
	if dt < 0 {
		dt = 0
	}

	period := float64(s.TextWidth + s.WrapGap)
	offset := math.Mod(s.Offset+speed*dt.Seconds(), period)
	if math.IsNaN(offset) || offset < 0 || offset >= period {
		offset = 0
	}
	s.Offset = offset
	return s
}

// Region tracks the scroll state of one text area across ticks and restarts
// it whenever the displayed text changes.
type Region struct {
	key     string
	started bool
	state   State
}

// Step advances the region. metrics carries TextWidth, WrapGap and ViewWidth of the
// current text; its Offset is ignored. When key differs from the previous call the
// returned offset is 0, whatever dt is.
func (r *Region) Step(key string, metrics State, dt time.Duration, speed float64) State {
	if !r.started || key != r.key {
		r.key = key
		r.started = true
		metrics.Offset = 0
		r.state = metrics.normalized()
		return r.state
	}

	metrics.Offset = r.state.Offset
	r.state = Advance(metrics, dt, speed)
	return r.state
}

// Reset forgets the current text so the next Step restarts from 0
func (r *Region) Reset() {
	r.started = false
	r.key = ""
	r.state = State{}
}

func (r *Region) State() State {
	return r.state
}
