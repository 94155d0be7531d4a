// Package users contiene los controllers de /api/v1/users (admin).
package users

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	httperrors "github.com/dropDatabas3/gatekeeper/internal/http/errors"
	"github.com/dropDatabas3/gatekeeper/internal/http/helpers"
	svc "github.com/dropDatabas3/gatekeeper/internal/http/services/auth"
	"github.com/dropDatabas3/gatekeeper/internal/observability/logger"
)

// UsersController maneja GET /api/v1/users/{id}.
type UsersController struct {
	service svc.MeService
}

func NewUsersController(service svc.MeService) *UsersController {
	return &UsersController{service: service}
}

func (c *UsersController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithFields(map[string]any{"id": "must be a positive integer"}))
		return
	}

	u, err := c.service.GetUser(r.Context(), id)
	switch {
	case errors.Is(err, svc.ErrUserNotFound):
		httperrors.WriteError(w, httperrors.ErrUserNotFound)
		return
	case err != nil:
		logger.From(r.Context()).Error("get user failed",
			logger.Layer("controller"), logger.Op("UsersController.Get"), logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	helpers.WriteSuccess(w, http.StatusOK, "", u)
}
