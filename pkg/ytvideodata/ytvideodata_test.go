package ytvideodata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(t *testing.T, oembed, page http.HandlerFunc) *Fetcher {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/oembed", oembed)
	mux.HandleFunc("/watch/", page)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return NewFetcher(WithBaseURLs(srv.URL+"/oembed", srv.URL+"/watch/"))
}

func TestGetWithEmbed(t *testing.T) {
	f := newTestFetcher(t,
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "https://www.youtube.com/watch?v=abc", r.URL.Query().Get("url"))
			w.Write([]byte(`{"title":"Song","author_name":"Band","thumbnail_url":"http://img"}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			t.Error("page must not be requested when oembed succeeds")
		},
	)

	data, err := f.Get(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, &VideoData{Title: "Song", AuthorName: "Band", ThumbnailURL: "http://img"}, data)
}

func TestGetFallsBackToPage(t *testing.T) {
	f := newTestFetcher(t,
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		},
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html><head><title>Hidden Song</title></head><body>
				<span itemprop="author"><link itemprop="name" content="Quiet Band"></span>
			</body></html>`))
		},
	)

	data, err := f.Get(context.Background(), "xyz")
	require.NoError(t, err)
	assert.Equal(t, "Hidden Song", data.Title)
	assert.Equal(t, "Quiet Band", data.AuthorName)
	assert.Equal(t, "https://i.ytimg.com/vi/xyz/hqdefault.jpg", data.ThumbnailURL)
}

func TestGetNotFound(t *testing.T) {
	f := newTestFetcher(t,
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		},
		func(w http.ResponseWriter, r *http.Request) {},
	)

	_, err := f.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrVideoNotFound)
}
