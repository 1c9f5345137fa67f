package render

import (
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jypelle/ledtune/internal/srv/compose"
	"github.com/jypelle/ledtune/internal/srv/content"
	"github.com/jypelle/ledtune/internal/srv/scroll"
	"github.com/sirupsen/logrus"
)

const (
	DefaultTickRate         = 30.0
	DefaultFailureThreshold = 10
)

// Sink is the hardware output boundary
type Sink interface {
	// Acquire takes exclusive ownership of the matrix
	Acquire() error
	// Push displays a complete frame
	Push(frame *compose.FrameBuffer) error
	// Release gives the matrix back, it must be safe to call more than once
	Release() error
}

// Source provides the snapshot to display, without blocking
type Source interface {
	Current() content.Snapshot
}

type State int32

const (
	Idle State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

type Options struct {
	// TickRate in Hz
	TickRate float64
	// FailureThreshold consecutive push failures stop the scheduler, 0 disables
	FailureThreshold int
	// Speeds in pixels per second, by region name
	Speeds map[string]float64
	// Now is the clock used to measure elapsed time between ticks
	Now func() time.Time
}

type Stats struct {
	Ticks               uint64
	Pushed              uint64
	Dropped             uint64
	ConsecutiveFailures int
}

// Scheduler owns the matrix while running and refreshes it at a fixed rate
type Scheduler struct {
	source     Source
	compositor *compose.Compositor
	sink       Sink
	opts       Options

	lock  sync.RWMutex
	state State
	stats Stats

	// only used by the tick goroutine
	regions  map[string]*scroll.Region
	lastTick time.Time

	stopping    atomic.Bool
	stopOnce    sync.Once
	releaseOnce sync.Once
	askDone     chan bool
	done        chan bool
	fatal       chan error
}

func NewScheduler(source Source, compositor *compose.Compositor, sink Sink, opts Options) *Scheduler {
	if opts.TickRate <= 0 {
		opts.TickRate = DefaultTickRate
	}
	if opts.FailureThreshold < 0 {
		opts.FailureThreshold = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Speeds == nil {
		opts.Speeds = map[string]float64{}
	}

	return &Scheduler{
		source:     source,
		compositor: compositor,
		sink:       sink,
		opts:       opts,
		state:      Idle,
		regions:    make(map[string]*scroll.Region),
		askDone:    make(chan bool),
		done:       make(chan bool),
		fatal:      make(chan error, 1),
	}
}

// Start acquires the matrix and launches the render loop.
// An *AcquisitionError is returned when the matrix is owned by someone else.
func (s *Scheduler) Start() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.state != Idle {
		return fmt.Errorf("render scheduler is already %s", s.state)
	}

	if err := s.sink.Acquire(); err != nil {
		s.state = Stopped
		close(s.done)
		return &AcquisitionError{Err: err}
	}

	logrus.Infof("Start render scheduler at %.1f Hz", s.opts.TickRate)
	s.state = Running
	go s.loop()
	return nil
}

// Stop ends the render loop after the tick in progress and releases the matrix.
func (s *Scheduler) Stop() {
	s.lock.Lock()
	if s.state == Idle {
		s.state = Stopped
		close(s.done)
	}
	s.lock.Unlock()

	s.stopOnce.Do(func() {
		logrus.Infof("Stop render scheduler")
		s.stopping.Store(true)
		close(s.askDone)
	})
	<-s.done
}

// Fatal delivers the error that made the scheduler stop by itself
func (s *Scheduler) Fatal() <-chan error {
	return s.fatal
}

func (s *Scheduler) State() State {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.state
}

func (s *Scheduler) Stats() Stats {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.stats
}

func (s *Scheduler) period() time.Duration {
	return time.Duration(float64(time.Second) / s.opts.TickRate)
}

func (s *Scheduler) loop() {
	ticker := time.NewTicker(s.period())
	defer ticker.Stop()

	var fatalErr error
	s.lastTick = s.opts.Now()

	for loop := true; loop; {
		select {
		case <-s.askDone:
			loop = false
		case <-ticker.C:
			if s.stopping.Load() {
				loop = false
				break
			}
			if err := s.tick(s.opts.Now()); err != nil {
				fatalErr = err
				loop = false
			}
		}
	}

	s.release()
	if fatalErr != nil {
		s.fatal <- fatalErr
	}
	close(s.done)
}

// tick reads, composes and pushes one frame. A non nil error means the
// failure threshold has been reached.
func (s *Scheduler) tick(now time.Time) error {
	var dt time.Duration
	if !s.lastTick.IsZero() {
		dt = now.Sub(s.lastTick)
	}
	s.lastTick = now

	snapshot := s.source.Current()
	regions := s.compositor.Regions(snapshot)
	states := make([]scroll.State, len(regions))
	seen := make(map[string]bool, len(regions))
	for i, r := range regions {
		region, ok := s.regions[r.Name]
		if !ok {
			region = &scroll.Region{}
			s.regions[r.Name] = region
		}
		states[i] = region.Step(r.Key, r.Metrics, dt, s.opts.Speeds[r.Name])
		seen[r.Name] = true
	}
	for name, region := range s.regions {
		if !seen[name] {
			region.Reset()
		}
	}

	frame, err := s.compose(snapshot, states)
	if err == nil {
		err = s.sink.Push(frame)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	s.stats.Ticks++
	if err == nil {
		s.stats.Pushed++
		s.stats.ConsecutiveFailures = 0
		return nil
	}

	s.stats.Dropped++
	s.stats.ConsecutiveFailures++
	pushErr := &OutputPushError{Err: err, Consecutive: s.stats.ConsecutiveFailures}
	if s.opts.FailureThreshold > 0 && s.stats.ConsecutiveFailures >= s.opts.FailureThreshold {
		logrus.Errorf("Giving up on the matrix: %v", pushErr)
		return pushErr
	}
	logrus.Warnf("Frame dropped: %v", pushErr)
	return nil
}

// compose turns a compositor panic into a dropped frame
func (s *Scheduler) compose(snapshot content.Snapshot, states []scroll.State) (frame *compose.FrameBuffer, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			logrus.Warningf("recovered from panic while composing: [%v] - stack trace : \n [%s]", rec, debug.Stack())
			err = fmt.Errorf("compose: %v", rec)
		}
	}()
	return s.compositor.Compose(snapshot, states), nil
}

func (s *Scheduler) release() {
	s.releaseOnce.Do(func() {
		if err := s.sink.Release(); err != nil {
			logrus.Errorf("Unable to release the matrix: %v", err)
		}
		s.lock.Lock()
		s.state = Stopped
		s.lock.Unlock()
	})
}
