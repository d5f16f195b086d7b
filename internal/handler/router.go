package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/suar-net/leadintake/internal/config"
	"github.com/suar-net/leadintake/pkg/logging"
)

// SetupRouter mounts the lead-intake, health and metrics endpoints. metrics
// may be nil to leave /metrics unrouted.
func SetupRouter(leads *LeadHandler, health *HealthHandler, metrics http.Handler, corsCfg config.CORSConfig, logger *logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)

	origins := corsCfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Retry-After", "X-Request-ID"},
		MaxAge:         300,
	}))

	for _, path := range []string{"/lead-intake", "/api/consultation"} {
		r.Post(path, leads.Submit)
		r.Get(path, leads.Status)
	}

	r.Get("/healthz", health.Check)
	if metrics != nil {
		r.Handle("/metrics", metrics)
	}

	return r
}
