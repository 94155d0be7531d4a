package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/gatekeeper/internal/http/dto/auth"
	"github.com/dropDatabas3/gatekeeper/internal/http/helpers"
	mw "github.com/dropDatabas3/gatekeeper/internal/http/middlewares"
	svc "github.com/dropDatabas3/gatekeeper/internal/http/services/auth"
)

// RevokeController maneja /api/v1/auth/revoke y /revoke-all.
type RevokeController struct {
	service svc.RevokeService
}

func NewRevokeController(service svc.RevokeService) *RevokeController {
	return &RevokeController{service: service}
}

// Revoke maneja POST /api/v1/auth/revoke
func (c *RevokeController) Revoke(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req dto.RevokeRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := c.service.Revoke(r.Context(), id, req, mw.GetClientIP(r.Context())); err != nil {
		writeServiceError(w, r, err)
		return
	}
	helpers.WriteSuccess(w, http.StatusOK, "Token revoked", nil)
}

// RevokeAll maneja POST /api/v1/auth/revoke-all
func (c *RevokeController) RevokeAll(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	res, err := c.service.RevokeAll(r.Context(), id, mw.GetClientIP(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	helpers.WriteSuccess(w, http.StatusOK, "All sessions revoked", res)
}
