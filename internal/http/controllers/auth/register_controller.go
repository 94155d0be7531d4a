package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/gatekeeper/internal/http/dto/auth"
	"github.com/dropDatabas3/gatekeeper/internal/http/helpers"
	mw "github.com/dropDatabas3/gatekeeper/internal/http/middlewares"
	svc "github.com/dropDatabas3/gatekeeper/internal/http/services/auth"
)

// RegisterController maneja POST /api/v1/auth/register.
type RegisterController struct {
	service svc.RegisterService
}

func NewRegisterController(service svc.RegisterService) *RegisterController {
	return &RegisterController{service: service}
}

func (c *RegisterController) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	res, err := c.service.Register(r.Context(), req, mw.GetClientIP(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if res.Tokens == nil {
		helpers.WriteSuccess(w, http.StatusCreated, "Registration successful, email verification required",
			map[string]any{"user": res.User})
		return
	}
	helpers.WriteSuccess(w, http.StatusCreated, "Registration successful",
		dto.AuthResult{User: res.User, Tokens: *res.Tokens})
}
