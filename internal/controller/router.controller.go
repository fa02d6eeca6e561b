package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (c controller) GetMux() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(c.requestIdMw)
	r.Use(c.requestLoggingMw)
	r.Use(cors.AllowAll().Handler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		r.Get("/stats", c.getStats)
		r.Get("/ws", c.serveRelay)
		r.Post("/trigger", c.trigger)
		r.Route("/history", func(r chi.Router) {
			r.Get("/{kind}", c.listHistory)
			r.Post("/chat", c.appendChatMessage)
			r.Post("/moods", c.appendMood)
			r.Post("/memories", c.appendMemory)
		})
		r.Get("/search", c.searchVideos)
		r.Get("/videos/{video-id}", c.getVideoData)
		r.Route("/uploads", func(r chi.Router) {
			r.Post("/", c.uploadFile)
			r.Get("/{name}", c.getUpload)
		})
	})

	return r
}
