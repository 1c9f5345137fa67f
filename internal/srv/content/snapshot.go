package content

import (
	"image"
	"image/color"
	"strconv"
)

// Snapshot is an immutable description of what the matrix should currently show.
// Implementations: NowPlaying, Marquee and Empty (see None).
type Snapshot interface {
	// ScrollKey identifies the text of the scrolling region. A different key means
	// the scroll position must restart.
	ScrollKey() string
	isSnapshot()
}

// NowPlaying describes the track currently played
type NowPlaying struct {
	Art        image.Image
	Title      string
	Artists    string
	LyricLine  string
	LyricIndex int
	TrackId    string
}

func (n NowPlaying) ScrollKey() string {
	return n.TrackId + "\x00" + strconv.Itoa(n.LyricIndex) + "\x00" + n.LyricLine
}

func (NowPlaying) isSnapshot() {}

// Marquee describes a single line of scrolling text
type Marquee struct {
	Text  string
	Color color.RGBA
}

func (m Marquee) ScrollKey() string {
	return m.Text
}

func (Marquee) isSnapshot() {}

// Empty is the type of the "no content yet" sentinel.
type Empty struct{}

func (Empty) ScrollKey() string {
	return ""
}

func (Empty) isSnapshot() {}

// None is returned by Cache.Current before the first publication.
var None Snapshot = Empty{}
