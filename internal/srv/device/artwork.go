package device

import (
	"context"
	"fmt"
	"golang.org/x/image/draw"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"time"
)

const artworkMinTarget = 32

// chooseArtwork returns the url of the image whose width is the closest to side
func chooseArtwork(images []SpotifyImage, side int) string {
	target := side
	if target < artworkMinTarget {
		target = artworkMinTarget
	}
	bestUrl := ""
	bestDist := -1
	for _, img := range images {
		width := img.Width
		if width == 0 {
			width = 64
		}
		dist := width - target
		if dist < 0 {
			dist = -dist
		}
		if bestDist < 0 || dist < bestDist {
			bestUrl, bestDist = img.Url, dist
		}
	}
	return bestUrl
}

type ArtworkClient struct {
	httpClient *http.Client
	retryDelay time.Duration
}

func NewArtworkClient(httpClient *http.Client) *ArtworkClient {
	return &ArtworkClient{httpClient: httpClient, retryDelay: 150 * time.Millisecond}
}

// Fetch downloads and decodes the image at url, scaled to side x side. It tries twice.
func (c *ArtworkClient) Fetch(ctx context.Context, url string, side int) (image.Image, error) {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}
		var img image.Image
		img, err = c.fetch(ctx, url)
		if err == nil {
			return scaleArtwork(img, side), nil
		}
	}
	return nil, err
}

func (c *ArtworkClient) fetch(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("artwork: %s", resp.Status)
	}
	img, _, err := image.Decode(resp.Body)
	return img, err
}

func scaleArtwork(img image.Image, side int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}
