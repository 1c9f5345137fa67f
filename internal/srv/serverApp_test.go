package srv

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jypelle/ledtune/apimodel"
	"github.com/jypelle/ledtune/internal/srv/config"
	"github.com/jypelle/ledtune/internal/srv/event"
	"github.com/jypelle/ledtune/internal/srv/render"
)

func newTestServerApp(t *testing.T) *ServerApp {
	configDir := t.TempDir()
	param := `mode: scroller
matrix:
  width: 32
  height: 16
  driver: sim
  lock_file: ` + filepath.Join(configDir, "matrix.lock") + `
render:
  tick_rate: 50
marquee:
  text: HI
  color: "#FF0000"
api:
  enabled: false
`
	if err := os.WriteFile(filepath.Join(configDir, "param.yaml"), []byte(param), 0660); err != nil {
		t.Fatal(err)
	}
	return NewServerApp(configDir, false, false, "")
}

func waitForFrame(t *testing.T, s *ServerApp) {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if frame := s.matrixDevice.LastFrame(); frame != nil && !frame.IsBlack() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("no lit frame reached the matrix")
}

func TestServerAppScroller(t *testing.T) {
	s := newTestServerApp(t)
	if s.Mode != config.ModeScroller {
		t.Fatalf("Mode = %q, want %q", s.Mode, config.ModeScroller)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitForFrame(t, s)

	if err := s.handleApiEvent(event.ApiEvent{Data: event.ApiEventMarqueeSetData{Marquee: apimodel.Marquee{Text: "BYE", Color: "0,255,0"}}}); err != nil {
		t.Errorf("set marquee error = %v", err)
	}
	var marquee apimodel.Marquee
	if err := s.handleApiEvent(event.ApiEvent{Data: event.ApiEventMarqueeGetData{Marquee: &marquee}}); err != nil || marquee.Text != "BYE" {
		t.Errorf("get marquee = %+v, %v", marquee, err)
	}
	if err := s.handleApiEvent(event.ApiEvent{Data: event.ApiEventMarqueeSetData{Marquee: apimodel.Marquee{Text: "X", Color: "bad"}}}); err == nil {
		t.Error("set marquee with bad color: want error")
	}

	var status apimodel.DisplayStatus
	if err := s.handleApiEvent(event.ApiEvent{Data: event.ApiEventDisplaySwitchData{Status: &status}}); err != nil || status.On {
		t.Errorf("display switch = %+v, %v, want off", status, err)
	}
	if s.DisplayOn() {
		t.Error("DisplayOn() = true after switch off")
	}

	s.Stop()
	if got := s.scheduler.State(); got != render.Stopped {
		t.Errorf("scheduler state = %v, want %v", got, render.Stopped)
	}
	if frame := s.matrixDevice.LastFrame(); frame == nil {
		t.Error("LastFrame() = nil")
	}
}

func TestServerAppSecondInstanceFailsFast(t *testing.T) {
	first := newTestServerApp(t)
	if err := first.Start(); err != nil {
		t.Fatalf("first Start() error = %v", err)
	}
	defer first.Stop()

	second := NewServerApp(first.ConfigDir, false, false, "")
	err := second.Start()
	if err == nil {
		second.Stop()
		t.Fatal("second Start() error = nil, want acquisition error")
	}
	if _, ok := err.(*render.AcquisitionError); !ok {
		t.Errorf("second Start() error = %T, want *render.AcquisitionError", err)
	}
}
