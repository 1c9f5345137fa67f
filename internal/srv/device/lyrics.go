package device

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

type LyricLine struct {
	At   time.Duration
	Text string
}

// Lyrics holds either time synced lines or plain lines
type Lyrics struct {
	Synced []LyricLine
	Plain  []string
}

func (l Lyrics) Empty() bool {
	return len(l.Synced) == 0 && len(l.Plain) == 0
}

// ParseLrc reads "[mm:ss.xx]text" lines. A line may carry several tags;
// tags that aren't timestamps are skipped. The result is sorted by time.
func ParseLrc(text string) []LyricLine {
	var lines []LyricLine
	for _, raw := range strings.Split(text, "\n") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		parts := strings.Split(raw, "]")
		lyric := strings.TrimSpace(parts[len(parts)-1])
		for _, tag := range parts[:len(parts)-1] {
			at, ok := parseLrcTag(strings.TrimSpace(tag))
			if ok {
				lines = append(lines, LyricLine{At: at, Text: lyric})
			}
		}
	}
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].At < lines[j].At
	})
	return lines
}

func parseLrcTag(tag string) (time.Duration, bool) {
	if !strings.HasPrefix(tag, "[") {
		return 0, false
	}
	minSec := strings.Split(tag[1:], ":")
	if len(minSec) != 2 {
		return 0, false
	}
	minutes, err := strconv.Atoi(minSec[0])
	if err != nil || minutes < 0 {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(minSec[1], 64)
	if err != nil || seconds < 0 {
		return 0, false
	}
	return time.Duration(minutes)*time.Minute + time.Duration(seconds*float64(time.Second)), true
}

// CurrentLineIndex returns the index of the last line starting at or before t, -1 if none
func CurrentLineIndex(lines []LyricLine, t time.Duration) int {
	return sort.Search(len(lines), func(i int) bool {
		return lines[i].At > t
	}) - 1
}

type lrclibResponse struct {
	SyncedLyrics string `json:"syncedLyrics"`
	PlainLyrics  string `json:"plainLyrics"`
}

type LyricsClient struct {
	httpClient *http.Client
	url        string
}

func NewLyricsClient(httpClient *http.Client, lyricsUrl string) *LyricsClient {
	return &LyricsClient{httpClient: httpClient, url: lyricsUrl}
}

// Fetch returns empty lyrics when the track is unknown
func (c *LyricsClient) Fetch(ctx context.Context, track string, artist string) (Lyrics, error) {
	query := url.Values{}
	query.Set("track_name", track)
	query.Set("artist_name", artist)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"?"+query.Encode(), nil)
	if err != nil {
		return Lyrics{}, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Lyrics{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Lyrics{}, nil
	case resp.StatusCode != http.StatusOK:
		return Lyrics{}, fmt.Errorf("lyrics: %s", resp.Status)
	}

	var data lrclibResponse
	if err = json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Lyrics{}, fmt.Errorf("lyrics: %w", err)
	}

	if synced := strings.TrimSpace(data.SyncedLyrics); synced != "" {
		return Lyrics{Synced: ParseLrc(synced)}, nil
	}
	var lyrics Lyrics
	for _, line := range strings.Split(data.PlainLyrics, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lyrics.Plain = append(lyrics.Plain, line)
		}
	}
	return lyrics, nil
}
