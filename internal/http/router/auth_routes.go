package router

import (
	"github.com/go-chi/chi/v5"

	mw "github.com/dropDatabas3/gatekeeper/internal/http/middlewares"
	"github.com/dropDatabas3/gatekeeper/internal/pipeline"
)

// registerAuthRoutes registra /api/v1/auth.
func registerAuthRoutes(r chi.Router, d Deps) {
	c := d.Auth
	if c == nil {
		return
	}

	credentials := pipeline.Route{Class: pipeline.ClassAuth}
	protected := pipeline.Route{Class: pipeline.ClassGeneral, Protected: true}

	r.Route("/auth", func(r chi.Router) {
		// Endpoints de credenciales: política auth (sólo IP), sin token.
		r.With(gated(d, credentials, mw.WithNoStore())).Post("/register", c.Register.Register)
		r.With(gated(d, credentials, mw.WithNoStore())).Post("/login", c.Login.Login)
		r.With(gated(d, credentials, mw.WithNoStore())).Post("/refresh", c.Refresh.Refresh)

		r.With(gated(d, protected)).Post("/revoke", c.Revoke.Revoke)
		r.With(gated(d, protected)).Post("/revoke-all", c.Revoke.RevokeAll)
		r.With(gated(d, protected, mw.WithNoStore())).Get("/me", c.Me.Me)
	})
}
