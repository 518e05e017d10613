package httpapi

import (
	"net/http"
	"time"

	"studio/internal/http/handlers"
	"studio/internal/infra"
	"studio/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func NewRouter(app *handlers.App, cfg infra.Config, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(logger),
		middleware.CORS(cfg.AllowedOrigins),
		middleware.RateLimit(cfg.RateLimitPerMin, time.Minute),
		middleware.Session(cfg.SessionSecret),
	)

	r.Get("/v1/healthz", app.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1/generations", func(r chi.Router) {
		r.Post("/", app.Generate)
		r.Get("/", app.ListGenerations)
		r.Get("/export", app.ExportGenerations)
		r.Get("/{id}", app.GetGeneration)
		r.Delete("/{id}", app.DeleteGeneration)
		r.Post("/{id}/activate", app.ActivateGeneration)
	})

	r.Route("/v1/assets", func(r chi.Router) {
		r.Post("/", app.UploadAsset)
		r.Get("/", app.ListAssets)
		r.Delete("/{id}", app.DeleteAsset)
	})

	r.Get("/v1/history", app.History)
	r.Get("/v1/engines", app.ListEngines)

	r.Route("/v1/credits", func(r chi.Router) {
		r.Get("/", app.CreditsBalance)
		r.Post("/resync", app.CreditsResync)
	})

	return r
}
