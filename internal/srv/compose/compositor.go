package compose

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/jypelle/ledtune/internal/srv/content"
	"github.com/jypelle/ledtune/internal/srv/scroll"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

const (
	RegionLyric   = "lyric"
	RegionMarquee = "marquee"
)

var (
	white = color.RGBA{255, 255, 255, 255}
	dim   = color.RGBA{170, 170, 170, 255}
	red   = color.RGBA{255, 0, 0, 255}
)

// Layout places the Now Playing elements
type Layout struct {
	ArtSide       int
	TitleBaseline int
	TitleLyricGap int
}

type Options struct {
	Width  int
	Height int
	Order  ColorOrder

	TitleFace   font.Face
	LyricFace   font.Face
	MarqueeFace font.Face

	Layout         Layout
	LyricWrapGap   int
	MarqueeWrapGap int

	// MarqueeColor is used when a Marquee snapshot carries no color
	MarqueeColor color.RGBA
	// IdleGlyph is centered on the idle frame, may be nil
	IdleGlyph image.Image
}

// Region describes one scrolling area of a snapshot
type Region struct {
	Name    string
	Key     string
	Metrics scroll.State
}

// Compositor turns snapshots into frames. It does no I/O and keeps no per-frame state.
type Compositor struct {
	opts Options
}

func NewCompositor(opts Options) *Compositor {
	if opts.Width < 1 {
		opts.Width = 64
	}
	if opts.Height < 1 {
		opts.Height = 32
	}
	if opts.Order == "" {
		opts.Order = DefaultColorOrder
	}
	if opts.TitleFace == nil {
		opts.TitleFace = basicfont.Face7x13
	}
	if opts.LyricFace == nil {
		opts.LyricFace = basicfont.Face7x13
	}
	if opts.MarqueeFace == nil {
		opts.MarqueeFace = opts.TitleFace
	}
	if opts.LyricWrapGap < 0 {
		opts.LyricWrapGap = 0
	}
	if opts.MarqueeWrapGap < 0 {
		opts.MarqueeWrapGap = 0
	}
	if opts.MarqueeColor.A == 0 {
		opts.MarqueeColor = red
	}
	return &Compositor{opts: opts}
}

func (c *Compositor) Width() int {
	return c.opts.Width
}

func (c *Compositor) Height() int {
	return c.opts.Height
}

// Regions returns the scrolling areas of snapshot, in the order Compose expects their states.
func (c *Compositor) Regions(snapshot content.Snapshot) []Region {
	switch s := snapshot.(type) {
	case content.NowPlaying:
		_, w := c.rightColumn()
		return []Region{{
			Name: RegionLyric,
			Key:  s.ScrollKey(),
			Metrics: scroll.State{
				TextWidth: TextWidth(c.opts.LyricFace, lyricText(s)),
				WrapGap:   c.opts.LyricWrapGap,
				ViewWidth: w,
			},
		}}
	case content.Marquee:
		return []Region{{
			Name: RegionMarquee,
			Key:  s.ScrollKey(),
			Metrics: scroll.State{
				TextWidth: TextWidth(c.opts.MarqueeFace, s.Text),
				WrapGap:   c.opts.MarqueeWrapGap,
				ViewWidth: c.opts.Width,
			},
		}}
	}
	return nil
}

// Compose renders a complete frame. states holds one scroll state per region
// returned by Regions; missing states are treated as offset 0.
func (c *Compositor) Compose(snapshot content.Snapshot, states []scroll.State) *FrameBuffer {
	fb := NewFrameBuffer(c.opts.Width, c.opts.Height, c.opts.Order)

	switch s := snapshot.(type) {
	case content.NowPlaying:
		c.composeNowPlaying(fb.img, s, c.stateAt(snapshot, states, 0))
	case content.Marquee:
		c.composeMarquee(fb.img, s, c.stateAt(snapshot, states, 0))
	default:
		c.composeIdle(fb.img)
	}
	return fb
}

// IdleFrame is the frame shown while nothing has been published
func (c *Compositor) IdleFrame() *FrameBuffer {
	return c.Compose(content.None, nil)
}

func (c *Compositor) stateAt(snapshot content.Snapshot, states []scroll.State, i int) scroll.State {
	if i < len(states) {
		return states[i]
	}
	regions := c.Regions(snapshot)
	if i < len(regions) {
		return regions[i].Metrics
	}
	return scroll.State{}
}

func (c *Compositor) artSide() int {
	side := c.opts.Layout.ArtSide
	if side > c.opts.Height {
		side = c.opts.Height
	}
	if side > c.opts.Width {
		side = c.opts.Width
	}
	if side < 0 {
		side = 0
	}
	return side
}

// rightColumn returns the area right of the album art
func (c *Compositor) rightColumn() (x0, width int) {
	side := c.artSide()
	if side > 0 {
		x0 = side + 2
	}
	width = c.opts.Width - x0
	if width <= 0 {
		return 0, c.opts.Width
	}
	return x0, width
}

func lyricText(s content.NowPlaying) string {
	if s.LyricLine != "" {
		return s.LyricLine
	}
	return s.Artists
}

func (c *Compositor) composeNowPlaying(img *image.RGBA, s content.NowPlaying, lyricState scroll.State) {
	side := c.artSide()
	if side > 0 {
		c.drawArt(img, s.Art, side)
	}

	x0, w := c.rightColumn()
	titleFace, lyricFace := c.opts.TitleFace, c.opts.LyricFace
	lyricHeight := ascent(lyricFace) + descent(lyricFace)

	// Title: centered in the right column, truncated, never scrolled
	title := s.Title
	if title == "" {
		title = "(untitled)"
	}
	title = fitText(titleFace, title, w)
	titleBase := clamp(c.opts.Layout.TitleBaseline, ascent(titleFace), c.opts.Height-lyricHeight-1)
	column := img.SubImage(image.Rect(x0, 0, x0+w, c.opts.Height)).(*image.RGBA)
	drawLabel(column, titleFace, x0+(w-TextWidth(titleFace, title))/2, titleBase, white, title)

	// Lyric: below the title and the art
	lyricBase := titleBase + c.opts.Layout.TitleLyricGap + ascent(lyricFace)
	if side+1 > lyricBase {
		lyricBase = side + 1
	}
	if limit := c.opts.Height - descent(lyricFace); lyricBase > limit {
		lyricBase = limit
	}
	drawScrolling(column, lyricFace, lyricText(s), lyricBase, lyricState, white)
}

func (c *Compositor) drawArt(img *image.RGBA, art image.Image, side int) {
	dst := image.Rect(0, 0, side, side)
	if art == nil || art.Bounds().Empty() {
		strokeRect(img, dst, dim)
		return
	}
	if art.Bounds().Dx() == side && art.Bounds().Dy() == side {
		draw.Draw(img, dst, art, art.Bounds().Min, draw.Src)
		return
	}
	xdraw.NearestNeighbor.Scale(img, dst, art, art.Bounds(), draw.Src, nil)
}

func (c *Compositor) composeMarquee(img *image.RGBA, s content.Marquee, state scroll.State) {
	col := s.Color
	if col.A == 0 {
		col = c.opts.MarqueeColor
	}
	face := c.opts.MarqueeFace
	baseline := (c.opts.Height + ascent(face) - descent(face)) / 2
	drawScrolling(img, face, s.Text, baseline, state, col)
}

func (c *Compositor) composeIdle(img *image.RGBA) {
	glyph := c.opts.IdleGlyph
	if glyph == nil || glyph.Bounds().Empty() {
		return
	}
	gb := glyph.Bounds()
	at := image.Pt((c.opts.Width-gb.Dx())/2, (c.opts.Height-gb.Dy())/2)
	draw.Draw(img, gb.Sub(gb.Min).Add(at), glyph, gb.Min, draw.Over)
}

// drawScrolling draws text in dst (its bounds being the view) at the state offset.
// Text that doesn't scroll is centered.
func drawScrolling(dst *image.RGBA, face font.Face, text string, baseline int, state scroll.State, col color.Color) {
	if text == "" {
		return
	}
	view := dst.Bounds()
	width := TextWidth(face, text)

	if !state.Scrolls() {
		x := view.Min.X + (view.Dx()-width)/2
		if width > view.Dx() {
			x = view.Min.X
		}
		drawLabel(dst, face, x, baseline, col, text)
		return
	}

	period := state.Period()
	offset := state.Offset
	if math.IsNaN(offset) || offset < 0 {
		offset = 0
	}
	for x := view.Min.X - int(math.Floor(offset)); x < view.Max.X; x += period {
		drawLabel(dst, face, x, baseline, col, text)
	}
}

func strokeRect(img *image.RGBA, r image.Rectangle, col color.Color) {
	u := image.NewUniform(col)
	draw.Draw(img, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), u, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
}

func clamp(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
