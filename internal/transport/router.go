// Package transport assembles the HTTP router: middleware chain, API prefix,
// health and metrics endpoints.
package transport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"atelier/internal/platform/metrics"
	"atelier/internal/platform/middleware"
)

// Registrar mounts a feature's routes on a router subtree.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck probes one dependency; nil error means healthy.
type HealthCheck func() error

// NewRouter builds the server's routing tree. Feature handlers register
// under /api/v1; health and metrics live at the root.
func NewRouter(logger *slog.Logger, m *metrics.Metrics, health map[string]HealthCheck, features ...Registrar) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(m))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", healthHandler(health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.ContentTypeJSON)
		for _, f := range features {
			f.Register(api)
		}
	})

	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		for name, check := range checks {
			if err := check(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded","failing":"` + name + `"}`))
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
