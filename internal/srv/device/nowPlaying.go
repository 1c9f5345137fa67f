package device

import (
	"context"
	"github.com/jypelle/ledtune/internal/srv/content"
	"github.com/sirupsen/logrus"
	"image"
	"sync"
	"time"
)

const (
	lyricClockPeriod = 100 * time.Millisecond
	plainLyricPeriod = 2 * time.Second
	fetchTimeout     = 6 * time.Second
)

// Publisher receives the snapshots produced by a content source
type Publisher interface {
	Publish(snapshot content.Snapshot)
}

type playbackSource interface {
	CurrentlyPlaying(ctx context.Context) (*Playback, error)
}

type lyricsSource interface {
	Fetch(ctx context.Context, track string, artist string) (Lyrics, error)
}

type artworkSource interface {
	Fetch(ctx context.Context, url string, side int) (image.Image, error)
}

// trackAssets are the slow to fetch parts of a track
type trackAssets struct {
	trackId string
	art     image.Image
	lyrics  Lyrics
}

type NowPlayingOptions struct {
	PollInterval time.Duration
	LrcOffset    time.Duration
	ArtSide      int
	Now          func() time.Time
}

// NowPlaying follows the Spotify player and publishes what is playing with the current lyric line
type NowPlaying struct {
	opts      NowPlayingOptions
	playback  playbackSource
	lyrics    lyricsSource
	artwork   artworkSource
	publisher Publisher

	lock        sync.Mutex
	sample      *Playback
	lastSeenTid string
	assets      *trackAssets
	lastKey     string
	published   bool

	requests chan *Playback

	askDone chan bool
	wg      sync.WaitGroup
}

func NewNowPlaying(playback playbackSource, lyrics lyricsSource, artwork artworkSource, publisher Publisher, opts NowPlayingOptions) *NowPlaying {
	if opts.PollInterval < 300*time.Millisecond {
		opts.PollInterval = 300 * time.Millisecond
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &NowPlaying{
		opts:      opts,
		playback:  playback,
		lyrics:    lyrics,
		artwork:   artwork,
		publisher: publisher,
		requests:  make(chan *Playback, 1),
		askDone:   make(chan bool),
	}
}

func (d *NowPlaying) Start() {
	logrus.Infof("Start now playing device")

	d.wg.Add(3)
	go d.pollLoop()
	go d.fetchLoop()
	go d.clockLoop()
}

func (d *NowPlaying) Stop() {
	logrus.Infof("Stop now playing device")
	close(d.askDone)
	d.wg.Wait()
}

func (d *NowPlaying) pollLoop() {
	defer d.wg.Done()
	ticker := time.NewTicker(d.opts.PollInterval)
	defer ticker.Stop()

	d.poll()
	for {
		select {
		case <-d.askDone:
			return
		case <-ticker.C:
			d.poll()
		}
	}
}

// poll keeps the previous sample when the player can't be reached
func (d *NowPlaying) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), d.opts.PollInterval*4)
	defer cancel()
	playback, err := d.playback.CurrentlyPlaying(ctx)
	if err != nil {
		logrus.Debugf("Unable to poll player: %v", err)
		return
	}
	d.setSample(playback)
}

func (d *NowPlaying) setSample(playback *Playback) {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.sample = playback
	if playback == nil || playback.TrackId == "" || playback.TrackId == d.lastSeenTid {
		return
	}
	d.lastSeenTid = playback.TrackId

	// Only the newest request is kept
	select {
	case <-d.requests:
	default:
	}
	d.requests <- playback
}

func (d *NowPlaying) fetchLoop() {
	defer d.wg.Done()
	for {
		select {
		case <-d.askDone:
			return
		case playback := <-d.requests:
			assets := d.fetchAssets(playback)
			d.lock.Lock()
			if d.lastSeenTid == assets.trackId {
				d.assets = assets
			}
			d.lock.Unlock()
		}
	}
}

func (d *NowPlaying) fetchAssets(playback *Playback) *trackAssets {
	assets := &trackAssets{trackId: playback.TrackId}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	if url := chooseArtwork(playback.Images, d.opts.ArtSide); url != "" && d.opts.ArtSide > 0 {
		art, err := d.artwork.Fetch(ctx, url, d.opts.ArtSide)
		if err != nil {
			logrus.Warnf("Album art fetch failed: %v", err)
		} else {
			assets.art = art
		}
	}

	lyrics, err := d.lyrics.Fetch(ctx, playback.Title, playback.Artists)
	if err != nil {
		logrus.Warnf("Lyrics fetch failed: %v", err)
	} else {
		assets.lyrics = lyrics
	}
	return assets
}

func (d *NowPlaying) clockLoop() {
	defer d.wg.Done()
	ticker := time.NewTicker(lyricClockPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-d.askDone:
			return
		case <-ticker.C:
			d.refresh()
		}
	}
}

// refresh publishes a new snapshot when anything visible changed
func (d *NowPlaying) refresh() {
	d.lock.Lock()
	snapshot, key := buildNowPlaying(d.sample, d.assets, d.opts.Now(), d.opts.LrcOffset)
	changed := !d.published || key != d.lastKey
	d.lastKey, d.published = key, true
	d.lock.Unlock()

	if changed {
		d.publisher.Publish(snapshot)
	}
}

// progressAt extrapolates the player position from the last sample
func progressAt(sample *Playback, now time.Time) time.Duration {
	if !sample.IsPlaying {
		return sample.Progress
	}
	elapsed := now.Sub(sample.SampledAt)
	if elapsed < 0 {
		elapsed = 0
	}
	return sample.Progress + elapsed
}

// buildNowPlaying returns the snapshot for sample and a key that changes when the frame content does
func buildNowPlaying(sample *Playback, assets *trackAssets, now time.Time, lrcOffset time.Duration) (content.Snapshot, string) {
	if sample == nil {
		return content.None, ""
	}
	snapshot := content.NowPlaying{
		TrackId:    sample.TrackId,
		Title:      sample.Title,
		Artists:    sample.Artists,
		LyricIndex: -1,
	}
	artKey := "-"
	if assets != nil && assets.trackId == sample.TrackId {
		snapshot.Art = assets.art
		if assets.art != nil {
			artKey = "art"
		}
		t := progressAt(sample, now) + lrcOffset
		switch {
		case len(assets.lyrics.Synced) > 0:
			if idx := CurrentLineIndex(assets.lyrics.Synced, t); idx >= 0 {
				snapshot.LyricIndex = idx
				snapshot.LyricLine = assets.lyrics.Synced[idx].Text
			}
		case len(assets.lyrics.Plain) > 0:
			if t < 0 {
				t = 0
			}
			idx := int(t/plainLyricPeriod) % len(assets.lyrics.Plain)
			snapshot.LyricIndex = idx
			snapshot.LyricLine = assets.lyrics.Plain[idx]
		}
	}
	key := snapshot.ScrollKey() + "\x00" + snapshot.Title + "\x00" + snapshot.Artists + "\x00" + artKey
	return snapshot, key
}
