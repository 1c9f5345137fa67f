package device

import (
	"gioui.org/app"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"github.com/sirupsen/logrus"
	"image"
)

const simulationScale = 8

type simulationWindow struct {
	window *app.Window
}

func (s *simulationWindow) startSimulation(width, height int, lastImg func() image.Image) {
	s.window = app.NewWindow(
		app.Title("ledtune"),
		app.Size(unit.Px(float32(width*simulationScale)), unit.Px(float32(height*simulationScale))),
		app.MinSize(unit.Px(float32(width)), unit.Px(float32(height))),
	)
	go func() {
		if err := s.gioloop(lastImg); err != nil {
			logrus.Errorf("Simulation window: %v", err)
		}
	}()
	go app.Main()
}

func (s *simulationWindow) invalidateSimulationWindow() {
	if s.window != nil {
		s.window.Invalidate()
	}
}

func (s *simulationWindow) closeSimulationWindow() {
	if s.window != nil {
		s.window.Close()
	}
}

func (s *simulationWindow) gioloop(lastImg func() image.Image) error {
	var ops op.Ops
	for {
		e := <-s.window.Events()
		switch e := e.(type) {
		case system.DestroyEvent:
			return e.Err
		case system.FrameEvent:
			gtx := layout.NewContext(&ops, e)

			img := widget.Image{Src: paint.NewImageOp(lastImg()), Fit: widget.Contain}
			img.Layout(gtx)
			e.Frame(gtx.Ops)
		}
	}
}
