package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nikhilbhutani/audiobrief/internal/api/handlers"
	"github.com/nikhilbhutani/audiobrief/internal/api/middleware"
	"github.com/nikhilbhutani/audiobrief/internal/config"
)

// Deps are the services behind the HTTP API. Jobs and Queue may be nil, in
// which case the job routes are not mounted; likewise Models.
type Deps struct {
	Pipeline handlers.Pipeline
	Jobs     handlers.JobStore
	Queue    handlers.Enqueuer
	Redis    handlers.Pinger
	Models   handlers.ModelLister
	FFmpeg   string
}

type Router struct {
	mux  *chi.Mux
	cfg  *config.Config
	deps Deps
	rl   *middleware.RateLimiter
}

func NewRouter(cfg *config.Config, deps Deps) *Router {
	return &Router{
		mux:  chi.NewRouter(),
		cfg:  cfg,
		deps: deps,
		rl:   middleware.NewRateLimiter(5, 20),
	}
}

// Close releases background resources held by the router's middleware.
func (rt *Router) Close() {
	rt.rl.Stop()
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.Server.AllowOrigins))

	// Health and metrics endpoints
	health := handlers.NewHealthHandler(rt.deps.Redis, rt.deps.FFmpeg)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	r.Handle(rt.cfg.Server.MetricsPath, promhttp.Handler())

	maxUpload := int64(rt.cfg.Server.MaxUploadMB) << 20
	audioH := handlers.NewAudioHandler(rt.deps.Pipeline, rt.deps.Jobs, rt.deps.Queue, maxUpload, rt.cfg.Pipeline.Timeout)

	r.Route("/api/v1/audio", func(r chi.Router) {
		r.Use(rt.rl.Limit)

		r.Post("/summarize", audioH.Summarize)
		r.Post("/summarize-from-url", audioH.SummarizeFromURL)

		if rt.deps.Jobs != nil && rt.deps.Queue != nil {
			r.Post("/jobs", audioH.CreateJob)
			r.Get("/jobs/{id}", audioH.GetJob)
		}
	})

	if rt.deps.Models != nil {
		r.Get("/api/v1/models", handlers.NewLLMHandler(rt.deps.Models).ListModels)
	}

	return r
}
