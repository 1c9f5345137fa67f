package config

import (
	_ "embed"
)

//go:embed param_default.yaml
var ParamDefaultFile []byte

const (
	ModeNowPlaying = "nowplaying"
	ModeScroller   = "scroller"
)

const (
	DriverHub75   = "hub75"
	DriverApa102  = "apa102"
	DriverSsd1306 = "ssd1306"
	DriverSim     = "sim"
)

type ServerParam struct {
	Mode         string        `yaml:"mode"`
	Matrix       MatrixParam   `yaml:"matrix"`
	Render       RenderParam   `yaml:"render"`
	Scroll       ScrollParam   `yaml:"scroll"`
	Fonts        FontsParam    `yaml:"fonts"`
	Layout       LayoutParam   `yaml:"layout"`
	SpotifyParam *SpotifyParam `yaml:"spotify,omitempty"`
	Marquee      MarqueeParam  `yaml:"marquee"`
	ApiParam     ApiParam      `yaml:"api"`
	Button       ButtonParam   `yaml:"button"`
}

type MatrixParam struct {
	Width      int        `yaml:"width"`
	Height     int        `yaml:"height"`
	Driver     string     `yaml:"driver"`
	ColorOrder string     `yaml:"color_order"`
	Brightness int        `yaml:"brightness"`
	LockFile   string     `yaml:"lock_file"`
	SpiPort    string     `yaml:"spi_port"`
	I2cBus     string     `yaml:"i2c_bus"`
	Hub75      Hub75Param `yaml:"hub75"`
}

// Hub75Param holds the GPIO line offsets of a HUB75 connector
type Hub75Param struct {
	Chip string `yaml:"chip"`
	R1   int    `yaml:"r1"`
	G1   int    `yaml:"g1"`
	B1   int    `yaml:"b1"`
	R2   int    `yaml:"r2"`
	G2   int    `yaml:"g2"`
	B2   int    `yaml:"b2"`
	Clk  int    `yaml:"clk"`
	Oe   int    `yaml:"oe"`
	Lat  int    `yaml:"lat"`
	A    int    `yaml:"a"`
	B    int    `yaml:"b"`
	C    int    `yaml:"c"`
	D    int    `yaml:"d"`
	E    int    `yaml:"e"`
}

type RenderParam struct {
	TickRate         float64 `yaml:"tick_rate"`
	FailureThreshold int     `yaml:"failure_threshold"`
}

// ScrollParam speeds are in pixels per second, gaps in pixels
type ScrollParam struct {
	LyricSpeed     float64 `yaml:"lyric_speed"`
	MarqueeSpeed   float64 `yaml:"marquee_speed"`
	LyricWrapGap   int     `yaml:"lyric_wrap_gap"`
	MarqueeWrapGap int     `yaml:"marquee_wrap_gap"`
}

// FontParam source is "bitmap", "basic" or the path of a .ttf file
type FontParam struct {
	Source string  `yaml:"source"`
	Size   float64 `yaml:"size"`
}

type FontsParam struct {
	Title   FontParam `yaml:"title"`
	Lyric   FontParam `yaml:"lyric"`
	Marquee FontParam `yaml:"marquee"`
}

type LayoutParam struct {
	ArtSide       int `yaml:"art_side"`
	TitleBaseline int `yaml:"title_baseline"`
	TitleLyricGap int `yaml:"title_lyric_gap"`
}

type MarqueeParam struct {
	Text  string `yaml:"text"`
	Color string `yaml:"color"`
}

type ApiParam struct {
	Enabled bool   `yaml:"enabled"`
	SslPort int64  `yaml:"ssl_port"`
	ApiKey  string `yaml:"api_key"`
}

type ButtonParam struct {
	Enabled bool   `yaml:"enabled"`
	Pin     string `yaml:"pin"`
}

// normalize replaces missing or out of range values
func (p *ServerParam) normalize() {
	if p.Mode != ModeScroller {
		p.Mode = ModeNowPlaying
	}
	if p.Matrix.Width <= 0 {
		p.Matrix.Width = 64
	}
	if p.Matrix.Height <= 0 {
		p.Matrix.Height = 32
	}
	if p.Matrix.Driver == "" {
		p.Matrix.Driver = DriverHub75
	}
	if p.Matrix.Brightness <= 0 || p.Matrix.Brightness > 100 {
		p.Matrix.Brightness = 65
	}
	if p.Matrix.LockFile == "" {
		p.Matrix.LockFile = "/tmp/ledtune-matrix.lock"
	}
	if p.Matrix.Hub75.Chip == "" {
		p.Matrix.Hub75.Chip = "gpiochip0"
	}
	if p.Render.TickRate <= 0 {
		p.Render.TickRate = 30
	}
	if p.Render.FailureThreshold < 0 {
		p.Render.FailureThreshold = 0
	}
	if p.Scroll.LyricSpeed <= 0 {
		p.Scroll.LyricSpeed = 24
	}
	if p.Scroll.MarqueeSpeed <= 0 {
		p.Scroll.MarqueeSpeed = 60
	}
	if p.Scroll.LyricWrapGap < 0 {
		p.Scroll.LyricWrapGap = 0
	}
	if p.Scroll.MarqueeWrapGap < 0 {
		p.Scroll.MarqueeWrapGap = 0
	}
	if p.Layout.ArtSide < 0 {
		p.Layout.ArtSide = 0
	}
	if p.SpotifyParam != nil {
		p.SpotifyParam.normalize()
	}
}
