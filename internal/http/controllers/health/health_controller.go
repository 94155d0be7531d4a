// Package health contiene el controller de health check.
package health

import (
	"net/http"

	"github.com/dropDatabas3/gatekeeper/internal/http/helpers"
	svc "github.com/dropDatabas3/gatekeeper/internal/http/services/health"
	"github.com/dropDatabas3/gatekeeper/internal/observability/logger"
)

// HealthController maneja GET /health.
type HealthController struct {
	service svc.HealthService
}

func NewHealthController(service svc.HealthService) *HealthController {
	return &HealthController{service: service}
}

func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	res := c.service.Check(r.Context())

	status := http.StatusOK
	if res.Status == "unavailable" {
		status = http.StatusServiceUnavailable
	}
	if res.Version != "" {
		w.Header().Set("X-Service-Version", res.Version)
	}

	logger.From(r.Context()).Debug("health check completed",
		logger.Layer("controller"),
		logger.String("status", res.Status),
		logger.Int("components_count", len(res.Components)),
	)
	helpers.WriteJSON(w, status, res)
}
