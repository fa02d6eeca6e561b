// Package ytvideodata resolves title, author and thumbnail of a YouTube video
// without an API key.
package ytvideodata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

var (
	ErrVideoNotFound      = errors.New("video not found")
	ErrVideoNotEmbeddable = errors.New("video is not embeddable")
)

type VideoData struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

type Fetcher struct {
	client       *http.Client
	oembedURL    string
	pageURL      string
	thumbnailURL string
}

type Option func(*Fetcher)

func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithBaseURLs overrides the oEmbed endpoint and the watch page prefix.
func WithBaseURLs(oembedURL, pageURL string) Option {
	return func(f *Fetcher) {
		f.oembedURL = oembedURL
		f.pageURL = pageURL
	}
}

func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:       http.DefaultClient,
		oembedURL:    "https://www.youtube.com/oembed",
		pageURL:      "https://youtu.be/",
		thumbnailURL: "https://i.ytimg.com/vi/%s/hqdefault.jpg",
	}
	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Get tries oEmbed first and falls back to scraping the watch page for
// videos with embedding disabled.
func (f *Fetcher) Get(ctx context.Context, videoID string) (*VideoData, error) {
	videoData, err := f.getWithEmbed(ctx, videoID)
	if err != nil {
		if !errors.Is(err, ErrVideoNotEmbeddable) {
			return nil, fmt.Errorf("failed to get video data with embed: %w", err)
		}

		videoData, err = f.getFromPage(ctx, videoID)
		if err != nil {
			return nil, fmt.Errorf("failed to get video data from page: %w", err)
		}
	}

	return videoData, nil
}

func (f *Fetcher) getWithEmbed(ctx context.Context, videoID string) (*VideoData, error) {
	q := url.Values{}
	q.Set("url", "https://www.youtube.com/watch?v="+videoID)
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.oembedURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest, http.StatusNotFound:
		return nil, ErrVideoNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrVideoNotEmbeddable
	default:
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var result VideoData
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode oembed response: %w", err)
	}

	return &result, nil
}
