package render

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/jypelle/ledtune/internal/srv/compose"
	"github.com/jypelle/ledtune/internal/srv/content"
	"golang.org/x/image/font/basicfont"
)

var errPush = errors.New("spi write failed")

// fakeSink fails the pushes listed in failures (0 based), or every push when failAll is set
type fakeSink struct {
	lock       sync.Mutex
	acquireErr error
	failures   map[int]bool
	failAll    bool
	pushes     int
	frames     []*compose.FrameBuffer
	acquired   int
	released   int
}

func (f *fakeSink) Acquire() error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.acquireErr != nil {
		return f.acquireErr
	}
	f.acquired++
	return nil
}

func (f *fakeSink) Push(frame *compose.FrameBuffer) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	i := f.pushes
	f.pushes++
	if f.failAll || f.failures[i] {
		return errPush
	}
	f.frames = append(f.frames, frame)
	return nil
}

func (f *fakeSink) Release() error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.released++
	return nil
}

func (f *fakeSink) counts() (pushes, frames, released int) {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.pushes, len(f.frames), f.released
}

func newTestScheduler(cache *content.Cache, sink Sink, opts Options) *Scheduler {
	compositor := compose.NewCompositor(compose.Options{
		Width:          64,
		Height:         32,
		TitleFace:      basicfont.Face7x13,
		LyricFace:      basicfont.Face7x13,
		MarqueeFace:    basicfont.Face7x13,
		Layout:         compose.Layout{ArtSide: 28, TitleBaseline: 12, TitleLyricGap: 3},
		LyricWrapGap:   12,
		MarqueeWrapGap: 20,
	})
	return NewScheduler(cache, compositor, sink, opts)
}

func TestTickAdvancesWithElapsedTime(t *testing.T) {
	cache := content.NewCache()
	cache.Publish(content.Marquee{Text: "HELLO WORLD AGAIN"}) // 119px + 20px gap
	s := newTestScheduler(cache, &fakeSink{}, Options{Speeds: map[string]float64{compose.RegionMarquee: 20}})

	t0 := time.Unix(1000, 0)
	ticks := []struct {
		at   time.Duration
		want float64
	}{
		{0, 0},
		{2500 * time.Millisecond, 50},
		// jittery spacing, only the true elapsed time matters
		{2600 * time.Millisecond, 52},
		{4100 * time.Millisecond, 82},
		{6950 * time.Millisecond, 0},
	}
	for _, tk := range ticks {
		if err := s.tick(t0.Add(tk.at)); err != nil {
			t.Fatalf("tick() error = %v", err)
		}
		got := s.regions[compose.RegionMarquee].State().Offset
		if math.Abs(got-tk.want) > 1e-6 && math.Abs(got-tk.want-139) > 1e-6 {
			t.Errorf("offset at %v = %v, want %v", tk.at, got, tk.want)
		}
	}
}

func TestTickResetsOnNewText(t *testing.T) {
	cache := content.NewCache()
	cache.Publish(content.Marquee{Text: "HELLO WORLD AGAIN"})
	s := newTestScheduler(cache, &fakeSink{}, Options{Speeds: map[string]float64{compose.RegionMarquee: 20}})

	t0 := time.Unix(1000, 0)
	s.tick(t0)
	s.tick(t0.Add(time.Second))
	if got := s.regions[compose.RegionMarquee].State().Offset; got != 20 {
		t.Fatalf("offset = %v, want 20", got)
	}

	cache.Publish(content.Marquee{Text: "SOMETHING ELSE ENTIRELY"})
	s.tick(t0.Add(3 * time.Second))
	if got := s.regions[compose.RegionMarquee].State().Offset; got != 0 {
		t.Errorf("offset after new text = %v, want 0", got)
	}
}

func TestTickSeesLatestSnapshotOnly(t *testing.T) {
	cache := content.NewCache()
	sink := &fakeSink{}
	s := newTestScheduler(cache, sink, Options{})

	cache.Publish(content.NowPlaying{TrackId: "A", Title: "AAAA"})
	cache.Publish(content.NowPlaying{TrackId: "B", Title: "BBBB"})
	if err := s.tick(time.Unix(1000, 0)); err != nil {
		t.Fatalf("tick() error = %v", err)
	}

	want := s.compositor.Compose(content.NowPlaying{TrackId: "B", Title: "BBBB"}, nil)
	got := sink.frames[0]
	for y := 0; y < 32; y++ {
		for x := 0; x < 64; x++ {
			r1, g1, b1 := got.RGB(x, y)
			r2, g2, b2 := want.RGB(x, y)
			if r1 != r2 || g1 != g2 || b1 != b2 {
				t.Fatalf("pixel (%d, %d) differs from track B frame", x, y)
			}
		}
	}
}

func TestTickIdleFrame(t *testing.T) {
	sink := &fakeSink{}
	s := newTestScheduler(content.NewCache(), sink, Options{})
	if err := s.tick(time.Unix(1000, 0)); err != nil {
		t.Fatalf("tick() error = %v", err)
	}
	if len(sink.frames) != 1 || !sink.frames[0].IsBlack() {
		t.Errorf("tick() without content didn't push a black frame")
	}
}

func TestTickFailureEscalation(t *testing.T) {
	tests := []struct {
		name        string
		failures    map[int]bool
		ticks       int
		wantFatalAt int // -1: never
		wantDropped uint64
	}{
		{"three failures in a row", map[int]bool{0: true, 1: true, 2: true}, 3, 2, 3},
		{"two failures then success", map[int]bool{0: true, 1: true}, 3, -1, 2},
		{"failures not in a row", map[int]bool{0: true, 1: true, 3: true, 4: true}, 6, -1, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &fakeSink{failures: tt.failures}
			s := newTestScheduler(content.NewCache(), sink, Options{FailureThreshold: 3})

			fatalAt := -1
			for i := 0; i < tt.ticks; i++ {
				err := s.tick(time.Unix(1000, int64(i)))
				if err != nil {
					var pushErr *OutputPushError
					if !errors.As(err, &pushErr) || !errors.Is(err, errPush) {
						t.Fatalf("tick() error = %v, want OutputPushError", err)
					}
					fatalAt = i
					break
				}
			}
			if fatalAt != tt.wantFatalAt {
				t.Errorf("fatal at tick %d, want %d", fatalAt, tt.wantFatalAt)
			}
			if got := s.Stats().Dropped; got != tt.wantDropped {
				t.Errorf("Stats().Dropped = %d, want %d", got, tt.wantDropped)
			}
		})
	}
}

func TestStartAcquisitionFailure(t *testing.T) {
	sink := &fakeSink{acquireErr: errors.New("resource busy")}
	s := newTestScheduler(content.NewCache(), sink, Options{})

	err := s.Start()
	var acqErr *AcquisitionError
	if !errors.As(err, &acqErr) {
		t.Fatalf("Start() error = %v, want AcquisitionError", err)
	}
	if s.State() != Stopped {
		t.Errorf("State() = %v, want stopped", s.State())
	}
	if pushes, _, _ := sink.counts(); pushes != 0 {
		t.Errorf("pushes = %d, want 0", pushes)
	}

	done := make(chan bool)
	go func() {
		s.Stop()
		done <- true
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop() blocked after a failed Start()")
	}
}

func TestStartStop(t *testing.T) {
	cache := content.NewCache()
	cache.Publish(content.Marquee{Text: "HELLO"})
	sink := &fakeSink{}
	s := newTestScheduler(cache, sink, Options{TickRate: 200})

	if s.State() != Idle {
		t.Fatalf("State() = %v, want idle", s.State())
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if s.State() != Running {
		t.Errorf("State() = %v, want running", s.State())
	}
	if err := s.Start(); err == nil {
		t.Errorf("second Start() succeeded")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, frames, _ := sink.counts(); frames >= 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no frame pushed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	s.Stop()
	s.Stop()
	if s.State() != Stopped {
		t.Errorf("State() = %v, want stopped", s.State())
	}
	pushes, _, released := sink.counts()
	if released != 1 {
		t.Errorf("released = %d, want 1", released)
	}
	time.Sleep(20 * time.Millisecond)
	if after, _, _ := sink.counts(); after != pushes {
		t.Errorf("frames pushed after Stop()")
	}
}

func TestRunEscalatesToFatal(t *testing.T) {
	sink := &fakeSink{failAll: true}
	s := newTestScheduler(content.NewCache(), sink, Options{TickRate: 500, FailureThreshold: 3})
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case err := <-s.Fatal():
		var pushErr *OutputPushError
		if !errors.As(err, &pushErr) || pushErr.Consecutive != 3 {
			t.Errorf("Fatal() = %v, want 3 consecutive failures", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler didn't escalate")
	}

	s.Stop()
	if s.State() != Stopped {
		t.Errorf("State() = %v, want stopped", s.State())
	}
	if _, _, released := sink.counts(); released != 1 {
		t.Errorf("released = %d, want 1", released)
	}
}

func TestStopBeforeStart(t *testing.T) {
	sink := &fakeSink{}
	s := newTestScheduler(content.NewCache(), sink, Options{})
	s.Stop()
	if s.State() != Stopped {
		t.Errorf("State() = %v, want stopped", s.State())
	}
	if err := s.Start(); err == nil {
		t.Errorf("Start() after Stop() succeeded")
	}
	if _, _, released := sink.counts(); released != 0 {
		t.Errorf("released = %d, want 0", released)
	}
}
