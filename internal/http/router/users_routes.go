package router

import (
	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/gatekeeper/internal/pipeline"
)

// registerUserRoutes registra /api/v1/users (sólo admin).
func registerUserRoutes(r chi.Router, d Deps) {
	if d.Users == nil {
		return
	}
	admin := pipeline.Route{Class: pipeline.ClassGeneral, Protected: true, RequiredRole: d.AdminRole}
	r.With(gated(d, admin)).Get("/users/{id}", d.Users.Get)
}
