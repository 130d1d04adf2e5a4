package server

import (
	"net/http"

	"github.com/desertthunder/reelx/internal/storage"
	"github.com/go-chi/chi/v5"
)

// NewRouter builds the proxy routes for cfg.
func NewRouter(cfg Config) *chi.Mux {
	h := newHandlers(cfg)

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(h.logger))
	r.Use(LoggingMiddleware(h.logger))
	r.Use(CORSMiddleware(cfg.FrontendURL))

	r.Get("/health", h.health)
	if cfg.Media != nil {
		r.Handle(storage.MediaPrefix+"*", http.StripPrefix(storage.MediaPrefix, cfg.Media.Handler()))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/tiktok/callback/", h.tiktokCallback)
		r.Post("/tiktok/token/", h.tiktokToken)
		r.Get("/tiktok/user-info/", h.tiktokUserInfo)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(cfg.JWTSecret, h.logger))

			r.Get("/hello/", h.hello)
			r.Post("/proxy/video-upload/", h.videoUpload)
			r.Post("/proxy/create-movie/", h.createMovie)
			r.Get("/proxy/movie-status/{project_id}/", h.movieStatus)
		})
	})

	return r
}
