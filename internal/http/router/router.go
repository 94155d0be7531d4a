// Package router arma el árbol de rutas HTTP sobre chi.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	authctrl "github.com/dropDatabas3/gatekeeper/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/gatekeeper/internal/http/controllers/health"
	usersctrl "github.com/dropDatabas3/gatekeeper/internal/http/controllers/users"
	"github.com/dropDatabas3/gatekeeper/internal/http/errors"
	mw "github.com/dropDatabas3/gatekeeper/internal/http/middlewares"
	"github.com/dropDatabas3/gatekeeper/internal/pipeline"
)

// Deps contiene todo lo que el router necesita.
type Deps struct {
	Gate      *pipeline.Gate
	ClientIPs *mw.ClientIP

	Auth   *authctrl.Controllers
	Users  *usersctrl.UsersController
	Health *healthctrl.HealthController

	// Metrics es el handler de /metrics; nil no expone la ruta.
	Metrics http.Handler

	// AdminRole es el rol exigido por /api/v1/users. Default "admin".
	AdminRole string
}

// New construye el handler raíz.
func New(d Deps) http.Handler {
	if d.AdminRole == "" {
		d.AdminRole = "admin"
	}

	r := chi.NewRouter()
	r.Use(
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithLogging(d.ClientIPs),
		mw.WithMetrics(),
		mw.WithSecurityHeaders(),
	)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		errors.WriteError(w, errors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		errors.WriteError(w, errors.ErrMethodNotAllowed)
	})

	registerHealthRoutes(r, d)
	r.Route("/api/v1", func(r chi.Router) {
		registerAuthRoutes(r, d)
		registerUserRoutes(r, d)
	})
	return r
}

// gated aplica el pipeline para route.
func gated(d Deps, route pipeline.Route, extra ...mw.Middleware) func(http.Handler) http.Handler {
	return mw.Stack(append([]mw.Middleware{mw.WithGate(d.Gate, d.ClientIPs, route)}, extra...)...)
}
