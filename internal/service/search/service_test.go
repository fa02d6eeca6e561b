package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchMergesDetails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "lofi music", q.Get("q"))
		assert.Equal(t, "10", q.Get("videoCategoryId"))
		assert.Equal(t, "video", q.Get("type"))
		assert.Equal(t, "20", q.Get("maxResults"))
		assert.Equal(t, "next-1", q.Get("pageToken"))
		assert.Equal(t, "short", q.Get("videoDuration"))
		assert.Equal(t, "k", q.Get("key"))

		w.Write([]byte(`{
			"nextPageToken": "next-2",
			"items": [
				{"id": {"videoId": "v1"}, "snippet": {"title": "Lofi 1", "channelTitle": "Chill", "publishedAt": "2024-01-01T00:00:00Z", "thumbnails": {"medium": {"url": "http://t/1"}}}},
				{"id": {"videoId": "v2"}, "snippet": {"title": "Lofi 2", "channelTitle": "Chill", "thumbnails": {"medium": {"url": "http://t/2"}}}}
			]
		}`))
	})
	mux.HandleFunc("/videos", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "v1,v2", r.URL.Query().Get("id"))
		w.Write([]byte(`{"items": [{"id": "v1", "statistics": {"viewCount": "42"}, "contentDetails": {"duration": "PT3M1S"}}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := NewService(Config{APIKey: "k", BaseURL: srv.URL})
	res, err := s.Search(context.Background(), &Params{Query: "lofi", PageToken: "next-1", Music: true, Duration: "short"})
	require.NoError(t, err)

	assert.Equal(t, "next-2", res.NextPageToken)
	require.Len(t, res.Videos, 2)
	assert.Equal(t, Video{
		ID:           "v1",
		Title:        "Lofi 1",
		Thumbnail:    "http://t/1",
		ChannelTitle: "Chill",
		PublishedAt:  "2024-01-01T00:00:00Z",
		ViewCount:    "42",
		Duration:     "PT3M1S",
	}, res.Videos[0])
	assert.Equal(t, "0", res.Videos[1].ViewCount, "missing statistics default to zero views")
}

func TestSearchErrors(t *testing.T) {
	_, err := NewService(Config{}).Search(context.Background(), &Params{Query: "x"})
	assert.ErrorIs(t, err, ErrNoAPIKey)

	_, err = NewService(Config{APIKey: "k"}).Search(context.Background(), &Params{Query: "  "})
	assert.ErrorIs(t, err, ErrEmptyQuery)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err = NewService(Config{APIKey: "k", BaseURL: srv.URL}).Search(context.Background(), &Params{Query: "x"})
	assert.Error(t, err)
}
