package srv

import (
	"errors"
	"github.com/jypelle/ledtune/internal/images"
	"github.com/jypelle/ledtune/internal/srv/compose"
	"github.com/jypelle/ledtune/internal/srv/config"
	"github.com/jypelle/ledtune/internal/srv/content"
	"github.com/jypelle/ledtune/internal/srv/device"
	"github.com/jypelle/ledtune/internal/srv/render"
	"github.com/sirupsen/logrus"
	"net/http"
	"time"
)

var errMarqueeUnavailable = errors.New("marquee is only available in scroller mode")

// ContentSource publishes snapshots to the cache while started
type ContentSource interface {
	Start()
	Stop()
}

type ServerApp struct {
	*config.ServerConfig

	cache         *content.Cache
	compositor    *compose.Compositor
	matrixDevice  *device.Matrix
	scheduler     *render.Scheduler
	contentSource ContentSource
	marqueeDevice *device.Marquee
	buttonsDevice *device.Buttons
	apiDevice     *device.Api

	eventLoopAskDone chan bool
	eventLoopDone    chan bool
}

func NewServerApp(configDir string, debugMode bool, simulationMode bool, mode string) *ServerApp {

	logrus.Debugf("Creation of ledtune server ...")

	app := &ServerApp{
		cache:            content.NewCache(),
		eventLoopAskDone: make(chan bool),
		eventLoopDone:    make(chan bool),
		ServerConfig:     config.NewServerConfig(configDir, debugMode, simulationMode, mode),
	}

	var err error
	app.compositor, err = newCompositor(app.ServerParam)
	if err != nil {
		logrus.Fatalf("Unable to prepare the compositor: %v", err)
	}

	app.matrixDevice, err = device.NewMatrix(app.ServerConfig)
	if err != nil {
		logrus.Fatalf("Unable to prepare the matrix: %v", err)
	}

	app.scheduler = render.NewScheduler(app.cache, app.compositor, app.matrixDevice, render.Options{
		TickRate:         app.Render.TickRate,
		FailureThreshold: app.Render.FailureThreshold,
		Speeds: map[string]float64{
			compose.RegionLyric:   app.Scroll.LyricSpeed,
			compose.RegionMarquee: app.Scroll.MarqueeSpeed,
		},
	})

	switch app.Mode {
	case config.ModeScroller:
		marqueeColor, _ := config.ParseColor(app.Marquee.Color)
		app.marqueeDevice = device.NewMarquee(app.ServerState, app.cache, marqueeColor)
		app.contentSource = app.marqueeDevice
	default:
		app.contentSource, err = newNowPlaying(app.ServerConfig, app.cache)
		if err != nil {
			logrus.Fatalf("Unable to prepare now playing mode: %v", err)
		}
	}

	if app.Button.Enabled && !app.SimulationMode {
		app.buttonsDevice = device.NewButtons(app.Button.Pin)
	} else {
		app.buttonsDevice = device.NewButtons("")
	}
	app.apiDevice = device.NewApi(app.ServerConfig)

	logrus.Debugln("Server created")

	return app
}

func newCompositor(param *config.ServerParam) (*compose.Compositor, error) {
	order, err := compose.ParseColorOrder(param.Matrix.ColorOrder)
	if err != nil {
		return nil, err
	}
	titleFace, err := compose.LoadFace(param.Fonts.Title.Source, param.Fonts.Title.Size)
	if err != nil {
		return nil, err
	}
	lyricFace, err := compose.LoadFace(param.Fonts.Lyric.Source, param.Fonts.Lyric.Size)
	if err != nil {
		return nil, err
	}
	marqueeFace, err := compose.LoadFace(param.Fonts.Marquee.Source, param.Fonts.Marquee.Size)
	if err != nil {
		return nil, err
	}
	marqueeColor, _ := config.ParseColor(param.Marquee.Color)

	return compose.NewCompositor(compose.Options{
		Width:       param.Matrix.Width,
		Height:      param.Matrix.Height,
		Order:       order,
		TitleFace:   titleFace,
		LyricFace:   lyricFace,
		MarqueeFace: marqueeFace,
		Layout: compose.Layout{
			ArtSide:       param.Layout.ArtSide,
			TitleBaseline: param.Layout.TitleBaseline,
			TitleLyricGap: param.Layout.TitleLyricGap,
		},
		LyricWrapGap:   param.Scroll.LyricWrapGap,
		MarqueeWrapGap: param.Scroll.MarqueeWrapGap,
		MarqueeColor:   marqueeColor,
		IdleGlyph:      images.IdleGlyph(param.Matrix.Height / 2),
	}), nil
}

func newNowPlaying(serverConfig *config.ServerConfig, publisher device.Publisher) (*device.NowPlaying, error) {
	spotifyParam := serverConfig.SpotifyParam
	if spotifyParam == nil {
		return nil, errors.New("missing spotify section in param file")
	}
	spotifyClient, err := device.NewSpotifyClient(spotifyParam, serverConfig.GetCompleteTokenFilename())
	if err != nil {
		return nil, err
	}
	httpClient := &http.Client{Timeout: 6 * time.Second}

	return device.NewNowPlaying(
		spotifyClient,
		device.NewLyricsClient(httpClient, spotifyParam.LyricsUrl),
		device.NewArtworkClient(httpClient),
		publisher,
		device.NowPlayingOptions{
			PollInterval: time.Duration(spotifyParam.PollMs) * time.Millisecond,
			LrcOffset:    time.Duration(spotifyParam.LrcOffsetMs) * time.Millisecond,
			ArtSide:      serverConfig.Layout.ArtSide,
		},
	), nil
}

// Start takes the matrix first, nothing else is started when it can't be acquired
func (s *ServerApp) Start() error {
	logrus.Printf("Starting ledtune server in %s mode ...", s.Mode)

	if err := s.scheduler.Start(); err != nil {
		return err
	}

	logrus.Printf("Starting devices ...")

	// Start content source
	s.contentSource.Start()

	// Start event loop
	go s.eventLoop()

	// Start buttons device
	s.buttonsDevice.Start()

	// Start api device
	if s.ApiParam.Enabled {
		s.apiDevice.Start()
	}

	return nil
}

// Fatal delivers the error that stopped the render loop
func (s *ServerApp) Fatal() <-chan error {
	return s.scheduler.Fatal()
}

func (s *ServerApp) Stop() {
	logrus.Printf("Stopping ledtune server ...")

	// Stop api
	if s.ApiParam.Enabled {
		s.apiDevice.StopSendingEvent()
	}

	// Stop buttons device
	s.buttonsDevice.StopSendingEvent()

	// Stop event loop
	logrus.Infof("Stop event loop")
	s.eventLoopAskDone <- true
	<-s.eventLoopDone

	// Stop content source
	s.contentSource.Stop()

	// Stop render loop, the matrix is blanked and released
	s.scheduler.Stop()

	// Flush config backup
	s.ServerConfig.ServerState.FlushSave()

	stats := s.scheduler.Stats()
	logrus.Printf("Server stopped (%d frames pushed, %d dropped)", stats.Pushed, stats.Dropped)
}
