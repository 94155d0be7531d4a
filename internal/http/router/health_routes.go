package router

import (
	"github.com/go-chi/chi/v5"
)

// registerHealthRoutes registra /health y /metrics. Ninguna pasa por el
// pipeline: los probes no consumen cupo de rate limit.
func registerHealthRoutes(r chi.Router, d Deps) {
	if d.Health != nil {
		r.Get("/health", d.Health.Health)
	}
	if d.Metrics != nil {
		r.Method("GET", "/metrics", d.Metrics)
	}
}
