package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/gatekeeper/internal/http/dto/auth"
	"github.com/dropDatabas3/gatekeeper/internal/http/helpers"
	mw "github.com/dropDatabas3/gatekeeper/internal/http/middlewares"
	svc "github.com/dropDatabas3/gatekeeper/internal/http/services/auth"
)

// LoginController maneja POST /api/v1/auth/login.
type LoginController struct {
	service svc.LoginService
}

func NewLoginController(service svc.LoginService) *LoginController {
	return &LoginController{service: service}
}

func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	res, err := c.service.Login(r.Context(), req, mw.GetClientIP(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	helpers.WriteSuccess(w, http.StatusOK, "Login successful", res)
}
