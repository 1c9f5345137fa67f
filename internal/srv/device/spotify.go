package device

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/jypelle/ledtune/internal/srv/config"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

var spotifyEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.spotify.com/authorize",
	TokenURL: "https://accounts.spotify.com/api/token",
}

var spotifyScopes = []string{"user-read-currently-playing", "user-read-playback-state"}

var ErrMissingToken = errors.New("no spotify token, run the auth command first")

// Playback is one sample of the user's player state
type Playback struct {
	TrackId   string
	Title     string
	Artists   string
	Images    []SpotifyImage
	IsPlaying bool
	Progress  time.Duration
	SampledAt time.Time
}

type SpotifyImage struct {
	Url    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type spotifyCurrentlyPlaying struct {
	IsPlaying  bool          `json:"is_playing"`
	ProgressMs int64         `json:"progress_ms"`
	Item       *spotifyTrack `json:"item"`
}

type spotifyTrack struct {
	Id      string `json:"id"`
	Name    string `json:"name"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Images []SpotifyImage `json:"images"`
	} `json:"album"`
}

type SpotifyClient struct {
	httpClient *http.Client
	apiUrl     string
}

func oauthConfig(param *config.SpotifyParam) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     param.GetClientId(),
		ClientSecret: param.GetClientSecret(),
		RedirectURL:  param.GetRedirectUri(),
		Scopes:       spotifyScopes,
		Endpoint:     spotifyEndpoint,
	}
}

// NewSpotifyClient builds a client from the token cached in tokenFilename.
// Refreshed tokens are written back to the same file.
func NewSpotifyClient(param *config.SpotifyParam, tokenFilename string) (*SpotifyClient, error) {
	token, err := config.LoadToken(tokenFilename)
	if err != nil {
		return nil, ErrMissingToken
	}
	tokenSource := &savingTokenSource{
		base:     oauthConfig(param).TokenSource(context.Background(), token),
		filename: tokenFilename,
		last:     token.AccessToken,
	}
	httpClient := oauth2.NewClient(context.Background(), oauth2.ReuseTokenSource(token, tokenSource))
	httpClient.Timeout = time.Duration(param.GetTimeout()) * time.Second
	return newSpotifyClient(httpClient, param.ApiUrl), nil
}

func newSpotifyClient(httpClient *http.Client, apiUrl string) *SpotifyClient {
	return &SpotifyClient{
		httpClient: httpClient,
		apiUrl:     strings.TrimSuffix(apiUrl, "/"),
	}
}

// CurrentlyPlaying returns nil when nothing is playing
func (c *SpotifyClient) CurrentlyPlaying(ctx context.Context) (*Playback, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiUrl+"/me/player/currently-playing", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	sampledAt := time.Now()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("spotify currently-playing: %s", resp.Status)
	}

	var cp spotifyCurrentlyPlaying
	if err = json.NewDecoder(resp.Body).Decode(&cp); err != nil {
		return nil, fmt.Errorf("spotify currently-playing: %w", err)
	}
	if cp.Item == nil {
		return nil, nil
	}

	artists := make([]string, 0, len(cp.Item.Artists))
	for _, artist := range cp.Item.Artists {
		artists = append(artists, artist.Name)
	}
	return &Playback{
		TrackId:   cp.Item.Id,
		Title:     cp.Item.Name,
		Artists:   strings.Join(artists, ", "),
		Images:    cp.Item.Album.Images,
		IsPlaying: cp.IsPlaying,
		Progress:  time.Duration(cp.ProgressMs) * time.Millisecond,
		SampledAt: sampledAt,
	}, nil
}

// savingTokenSource persists every newly issued access token
type savingTokenSource struct {
	lock     sync.Mutex
	base     oauth2.TokenSource
	filename string
	last     string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if token.AccessToken != s.last {
		s.last = token.AccessToken
		if err := config.SaveToken(s.filename, token); err != nil {
			logrus.Warnf("Unable to save spotify token: %v", err)
		}
	}
	return token, nil
}

// SpotifyAuth runs the interactive authorization code flow and caches the token
func SpotifyAuth(ctx context.Context, param *config.SpotifyParam, tokenFilename string, in io.Reader, out io.Writer) error {
	oauthCfg := oauthConfig(param)
	state := fmt.Sprintf("%d", time.Now().UnixNano())

	fmt.Fprintf(out, "\nOpen this URL:\n%s\n", oauthCfg.AuthCodeURL(state))
	fmt.Fprintf(out, "\nAfter login you'll be redirected to: %s\n", param.GetRedirectUri())
	fmt.Fprint(out, "Paste the full redirected URL or just the 'code': ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return err
	}
	code := extractAuthCode(line)
	if code == "" {
		return errors.New("no authorization code provided")
	}

	token, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("unable to exchange authorization code: %w", err)
	}
	if err = config.SaveToken(tokenFilename, token); err != nil {
		return err
	}
	fmt.Fprintf(out, "Spotify token cached in %s\n", tokenFilename)
	return nil
}

func extractAuthCode(pasted string) string {
	pasted = strings.TrimSpace(pasted)
	if !strings.HasPrefix(pasted, "http") {
		return pasted
	}
	u, err := url.Parse(pasted)
	if err != nil {
		return ""
	}
	return u.Query().Get("code")
}
