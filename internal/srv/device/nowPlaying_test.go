package device

import (
	"context"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/jypelle/ledtune/internal/srv/content"
)

type recordingPublisher struct {
	lock      sync.Mutex
	snapshots []content.Snapshot
}

func (p *recordingPublisher) Publish(snapshot content.Snapshot) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.snapshots = append(p.snapshots, snapshot)
}

func (p *recordingPublisher) count() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return len(p.snapshots)
}

func (p *recordingPublisher) last() content.Snapshot {
	p.lock.Lock()
	defer p.lock.Unlock()
	if len(p.snapshots) == 0 {
		return nil
	}
	return p.snapshots[len(p.snapshots)-1]
}

type fakePlayback struct {
	lock     sync.Mutex
	playback *Playback
	err      error
}

func (f *fakePlayback) CurrentlyPlaying(ctx context.Context) (*Playback, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.playback, f.err
}

type fakeLyrics struct {
	lyrics Lyrics
}

func (f *fakeLyrics) Fetch(ctx context.Context, track string, artist string) (Lyrics, error) {
	return f.lyrics, nil
}

type fakeArtwork struct{}

func (f *fakeArtwork) Fetch(ctx context.Context, url string, side int) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, side, side)), nil
}

func TestBuildNowPlaying(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	sample := &Playback{TrackId: "t1", Title: "Song", Artists: "A", IsPlaying: true, Progress: 4 * time.Second, SampledAt: t0}
	synced := &trackAssets{trackId: "t1", lyrics: Lyrics{Synced: []LyricLine{
		{At: 5 * time.Second, Text: "one"},
		{At: 8 * time.Second, Text: "two"},
	}}}
	plain := &trackAssets{trackId: "t1", lyrics: Lyrics{Plain: []string{"p0", "p1", "p2"}}}
	stale := &trackAssets{trackId: "old", lyrics: Lyrics{Plain: []string{"old"}}}
	paused := *sample
	paused.IsPlaying = false

	tests := []struct {
		name      string
		sample    *Playback
		assets    *trackAssets
		now       time.Time
		offset    time.Duration
		wantLine  string
		wantIndex int
	}{
		{"before first line", sample, synced, t0, 0, "", -1},
		{"extrapolated", sample, synced, t0.Add(2 * time.Second), 0, "one", 0},
		{"offset", sample, synced, t0, 4 * time.Second, "two", 1},
		{"paused", &paused, synced, t0.Add(10 * time.Second), 0, "", -1},
		{"plain cycles every 2s", sample, plain, t0.Add(time.Second), 0, "p2", 2},
		{"plain wraps", sample, plain, t0.Add(3 * time.Second), 0, "p0", 0},
		{"no assets yet", sample, nil, t0, 0, "", -1},
		{"stale assets", sample, stale, t0, 0, "", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshot, _ := buildNowPlaying(tt.sample, tt.assets, tt.now, tt.offset)
			np, ok := snapshot.(content.NowPlaying)
			if !ok {
				t.Fatalf("buildNowPlaying() = %T, want content.NowPlaying", snapshot)
			}
			if np.LyricLine != tt.wantLine || np.LyricIndex != tt.wantIndex {
				t.Errorf("buildNowPlaying() line = %q (%d), want %q (%d)", np.LyricLine, np.LyricIndex, tt.wantLine, tt.wantIndex)
			}
			if np.Title != "Song" || np.Artists != "A" || np.TrackId != "t1" {
				t.Errorf("buildNowPlaying() = %+v", np)
			}
		})
	}

	snapshot, key := buildNowPlaying(nil, synced, t0, 0)
	if snapshot != content.None || key != "" {
		t.Errorf("buildNowPlaying(nil) = %v, %q, want None", snapshot, key)
	}
}

func TestNowPlayingRefreshPublishesChangesOnly(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	publisher := &recordingPublisher{}
	d := NewNowPlaying(&fakePlayback{}, &fakeLyrics{}, &fakeArtwork{}, publisher, NowPlayingOptions{
		Now: func() time.Time { return now },
	})

	d.refresh()
	if publisher.count() != 1 || publisher.last() != content.None {
		t.Fatalf("first refresh published %d snapshots, last = %v", publisher.count(), publisher.last())
	}
	d.refresh()
	if publisher.count() != 1 {
		t.Errorf("unchanged refresh published again: %d", publisher.count())
	}

	d.setSample(&Playback{TrackId: "t1", Title: "Song", Artists: "A", IsPlaying: true, SampledAt: now})
	d.lock.Lock()
	d.assets = &trackAssets{trackId: "t1", lyrics: Lyrics{Synced: []LyricLine{{At: time.Second, Text: "one"}}}}
	d.lock.Unlock()

	d.refresh()
	if publisher.count() != 2 {
		t.Fatalf("new track published %d snapshots, want 2", publisher.count())
	}
	now = now.Add(500 * time.Millisecond)
	d.refresh()
	if publisher.count() != 2 {
		t.Errorf("same lyric line published again: %d", publisher.count())
	}
	now = now.Add(time.Second)
	d.refresh()
	if publisher.count() != 3 {
		t.Fatalf("lyric change published %d snapshots, want 3", publisher.count())
	}
	if np := publisher.last().(content.NowPlaying); np.LyricLine != "one" {
		t.Errorf("last lyric = %q, want %q", np.LyricLine, "one")
	}
}

func TestNowPlayingSetSampleKeepsLatestRequest(t *testing.T) {
	d := NewNowPlaying(&fakePlayback{}, &fakeLyrics{}, &fakeArtwork{}, &recordingPublisher{}, NowPlayingOptions{})

	d.setSample(&Playback{TrackId: "t1"})
	d.setSample(&Playback{TrackId: "t1"})
	d.setSample(&Playback{TrackId: "t2"})

	if got := len(d.requests); got != 1 {
		t.Fatalf("pending requests = %d, want 1", got)
	}
	if got := (<-d.requests).TrackId; got != "t2" {
		t.Errorf("pending request = %q, want t2", got)
	}
}

func TestNowPlayingStartStop(t *testing.T) {
	publisher := &recordingPublisher{}
	playback := &fakePlayback{playback: &Playback{
		TrackId:   "t1",
		Title:     "Song",
		Artists:   "A",
		Images:    []SpotifyImage{{Url: "http://img", Width: 64}},
		IsPlaying: true,
		SampledAt: time.Now(),
	}}
	d := NewNowPlaying(playback, &fakeLyrics{lyrics: Lyrics{Plain: []string{"la"}}}, &fakeArtwork{}, publisher, NowPlayingOptions{
		PollInterval: 300 * time.Millisecond,
		ArtSide:      28,
	})
	d.Start()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if np, ok := publisher.last().(content.NowPlaying); ok && np.LyricLine == "la" && np.Art != nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	d.Stop()

	np, ok := publisher.last().(content.NowPlaying)
	if !ok || np.LyricLine != "la" || np.Art == nil {
		t.Errorf("last snapshot = %+v, want lyric and art", publisher.last())
	}
}
