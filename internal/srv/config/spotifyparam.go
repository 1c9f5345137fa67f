package config

const defaultLyricsUrl = "https://lrclib.net/api/get"

type SpotifyParam struct {
	ClientId     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectUri  string `yaml:"redirect_uri"`
	PollMs       int64  `yaml:"poll_ms"`
	LrcOffsetMs  int64  `yaml:"lrc_offset_ms"`
	LyricsUrl    string `yaml:"lyrics_url"`
	ApiUrl       string `yaml:"api_url"`
	Timeout      int64  `yaml:"timeout"`
}

func (c *SpotifyParam) normalize() {
	if c.RedirectUri == "" {
		c.RedirectUri = "https://oauth.pstmn.io/v1/callback"
	}
	if c.PollMs < 300 {
		c.PollMs = 900
	}
	if c.LyricsUrl == "" {
		c.LyricsUrl = defaultLyricsUrl
	}
	if c.ApiUrl == "" {
		c.ApiUrl = "https://api.spotify.com/v1"
	}
	if c.Timeout <= 0 {
		c.Timeout = 2
	}
}

func (c SpotifyParam) GetClientId() string {
	return c.ClientId
}

func (c SpotifyParam) GetClientSecret() string {
	return c.ClientSecret
}

func (c SpotifyParam) GetRedirectUri() string {
	return c.RedirectUri
}

func (c SpotifyParam) GetTimeout() int64 {
	return c.Timeout
}
