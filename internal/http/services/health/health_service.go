// Package health implementa el chequeo de dependencias de /health.
package health

import (
	"context"
	"time"

	dto "github.com/dropDatabas3/gatekeeper/internal/http/dto/health"
)

// Pinger es cualquier dependencia que se puede chequear (cache, *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapta una función a Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// Deps del health service. Critical son las dependencias sin las cuales los
// gates no pueden decidir (cache); el resto sólo degrada.
type Deps struct {
	Version  string
	Critical map[string]Pinger
	Optional map[string]Pinger
	Timeout  time.Duration
}

// HealthService chequea dependencias.
type HealthService interface {
	Check(ctx context.Context) dto.HealthResponse
}

type healthService struct {
	deps Deps
}

// NewHealthService crea el service; Timeout por defecto 2s.
func NewHealthService(d Deps) HealthService {
	if d.Timeout <= 0 {
		d.Timeout = 2 * time.Second
	}
	return &healthService{deps: d}
}

func (s *healthService) Check(ctx context.Context) dto.HealthResponse {
	resp := dto.HealthResponse{
		Status:     "ok",
		Version:    s.deps.Version,
		Components: map[string]dto.ComponentStatus{},
	}

	check := func(name string, p Pinger) bool {
		cctx, cancel := context.WithTimeout(ctx, s.deps.Timeout)
		defer cancel()
		if err := p.PingContext(cctx); err != nil {
			resp.Components[name] = dto.ComponentStatus{Status: "down", Error: err.Error()}
			return false
		}
		resp.Components[name] = dto.ComponentStatus{Status: "ok"}
		return true
	}

	for name, p := range s.deps.Optional {
		if !check(name, p) {
			resp.Status = "degraded"
		}
	}
	for name, p := range s.deps.Critical {
		if !check(name, p) {
			resp.Status = "unavailable"
		}
	}
	return resp
}
