package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrNoAPIKey   = errors.New("video search is not configured")
	ErrEmptyQuery = errors.New("query is empty")
)

const (
	defaultBaseURL  = "https://www.googleapis.com/youtube/v3"
	maxResults      = 20
	musicCategoryID = "10"
)

type Video struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Thumbnail    string `json:"thumbnail"`
	ChannelTitle string `json:"channelTitle"`
	Description  string `json:"description"`
	PublishedAt  string `json:"publishedAt"`
	ViewCount    string `json:"viewCount"`
	Duration     string `json:"duration"`
}

type Result struct {
	Videos        []Video `json:"videos"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
}

type Params struct {
	Query     string `json:"q" validate:"required,max=200"`
	PageToken string `json:"pageToken" validate:"max=200"`
	Music     bool   `json:"music"`
	// Order is one of relevance, date, viewCount, rating.
	Order string `json:"order" validate:"omitempty,oneof=relevance date viewCount rating"`
	// Duration is one of any, short, medium, long.
	Duration string `json:"duration" validate:"omitempty,oneof=any short medium long"`
}

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type service struct {
	cfg    Config
	client *http.Client
}

func NewService(cfg Config) *service {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &service{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type searchResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet snippet `json:"snippet"`
	} `json:"items"`
}

type snippet struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ChannelTitle string `json:"channelTitle"`
	PublishedAt  string `json:"publishedAt"`
	Thumbnails   struct {
		Medium struct {
			URL string `json:"url"`
		} `json:"medium"`
	} `json:"thumbnails"`
}

type videosResponse struct {
	Items []struct {
		ID         string `json:"id"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
		} `json:"statistics"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// Search runs search.list and enriches the page with videos.list statistics.
func (s service) Search(ctx context.Context, params *Params) (Result, error) {
	if s.cfg.APIKey == "" {
		return Result{}, ErrNoAPIKey
	}

	query := strings.TrimSpace(params.Query)
	if query == "" {
		return Result{}, ErrEmptyQuery
	}

	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("type", "video")
	q.Set("maxResults", fmt.Sprint(maxResults))
	q.Set("key", s.cfg.APIKey)
	if params.Music {
		query += " music"
		q.Set("videoCategoryId", musicCategoryID)
	}
	q.Set("q", query)
	if params.PageToken != "" {
		q.Set("pageToken", params.PageToken)
	}
	if params.Order != "" {
		q.Set("order", params.Order)
	}
	if params.Duration != "" && params.Duration != "any" {
		q.Set("videoDuration", params.Duration)
	}

	var sr searchResponse
	if err := s.get(ctx, "/search", q, &sr); err != nil {
		return Result{}, fmt.Errorf("failed to search videos: %w", err)
	}

	result := Result{
		Videos:        make([]Video, 0, len(sr.Items)),
		NextPageToken: sr.NextPageToken,
	}
	ids := make([]string, 0, len(sr.Items))
	for _, item := range sr.Items {
		if item.ID.VideoID == "" {
			continue
		}
		ids = append(ids, item.ID.VideoID)
		result.Videos = append(result.Videos, Video{
			ID:           item.ID.VideoID,
			Title:        item.Snippet.Title,
			Thumbnail:    item.Snippet.Thumbnails.Medium.URL,
			ChannelTitle: item.Snippet.ChannelTitle,
			Description:  item.Snippet.Description,
			PublishedAt:  item.Snippet.PublishedAt,
			ViewCount:    "0",
		})
	}
	if len(ids) == 0 {
		return result, nil
	}

	dq := url.Values{}
	dq.Set("part", "statistics,contentDetails")
	dq.Set("id", strings.Join(ids, ","))
	dq.Set("key", s.cfg.APIKey)

	var vr videosResponse
	if err := s.get(ctx, "/videos", dq, &vr); err != nil {
		return Result{}, fmt.Errorf("failed to get video details: %w", err)
	}

	type details struct{ views, duration string }
	byID := make(map[string]details, len(vr.Items))
	for _, item := range vr.Items {
		byID[item.ID] = details{views: item.Statistics.ViewCount, duration: item.ContentDetails.Duration}
	}
	for i := range result.Videos {
		d, ok := byID[result.Videos[i].ID]
		if !ok {
			continue
		}
		if d.views != "" {
			result.Videos[i].ViewCount = d.views
		}
		result.Videos[i].Duration = d.duration
	}

	return result, nil
}

func (s service) get(ctx context.Context, path string, q url.Values, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(dst)
}
