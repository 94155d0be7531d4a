package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/gatekeeper/internal/http/dto/auth"
	"github.com/dropDatabas3/gatekeeper/internal/http/helpers"
	mw "github.com/dropDatabas3/gatekeeper/internal/http/middlewares"
	svc "github.com/dropDatabas3/gatekeeper/internal/http/services/auth"
)

// RefreshController maneja POST /api/v1/auth/refresh.
type RefreshController struct {
	service svc.RefreshService
}

func NewRefreshController(service svc.RefreshService) *RefreshController {
	return &RefreshController{service: service}
}

func (c *RefreshController) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	tokens, err := c.service.Refresh(r.Context(), req, mw.GetClientIP(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	helpers.WriteSuccess(w, http.StatusOK, "", tokens)
}
