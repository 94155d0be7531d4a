package auth

import (
	"net/http"

	"github.com/dropDatabas3/gatekeeper/internal/http/helpers"
	svc "github.com/dropDatabas3/gatekeeper/internal/http/services/auth"
)

// MeController maneja GET /api/v1/auth/me.
type MeController struct {
	service svc.MeService
}

func NewMeController(service svc.MeService) *MeController {
	return &MeController{service: service}
}

func (c *MeController) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	res, err := c.service.Me(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	helpers.WriteSuccess(w, http.StatusOK, "", res)
}
