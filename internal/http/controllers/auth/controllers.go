// Package auth contiene los controllers de /api/v1/auth.
package auth

import (
	"errors"
	"net/http"

	"github.com/dropDatabas3/gatekeeper/internal/cache"
	httperrors "github.com/dropDatabas3/gatekeeper/internal/http/errors"
	svc "github.com/dropDatabas3/gatekeeper/internal/http/services/auth"
	"github.com/dropDatabas3/gatekeeper/internal/observability/logger"
	"github.com/dropDatabas3/gatekeeper/internal/pipeline"
	"github.com/dropDatabas3/gatekeeper/internal/revocation"
)

// Controllers agrupa los controllers del dominio auth.
type Controllers struct {
	Login    *LoginController
	Register *RegisterController
	Refresh  *RefreshController
	Revoke   *RevokeController
	Me       *MeController
}

// NewControllers crea el agregador de controllers auth.
func NewControllers(s svc.Services) *Controllers {
	return &Controllers{
		Login:    NewLoginController(s.Login),
		Register: NewRegisterController(s.Register),
		Refresh:  NewRefreshController(s.Refresh),
		Revoke:   NewRevokeController(s.Revoke),
		Me:       NewMeController(s.Me),
	}
}

// writeServiceError traduce los errores de los services a AppError.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var weak *svc.WeakPasswordError
	var appErr *httperrors.AppError

	switch {
	case errors.As(err, &appErr):
	case errors.As(err, &weak):
		appErr = httperrors.ErrPasswordTooWeak.WithFields(map[string]any{"password": weak.Reasons})
	case errors.Is(err, svc.ErrMissingFields):
		appErr = httperrors.ErrMissingFields
	case errors.Is(err, svc.ErrInvalidEmail):
		appErr = httperrors.ErrBadRequest.WithFields(map[string]any{"email": "invalid"})
	case errors.Is(err, svc.ErrInvalidCredentials):
		appErr = httperrors.ErrInvalidCredentials
	case errors.Is(err, svc.ErrAccountInactive):
		appErr = httperrors.ErrAccountInactive
	case errors.Is(err, svc.ErrEmailNotVerified):
		appErr = httperrors.ErrEmailNotVerified
	case errors.Is(err, svc.ErrEmailInUse):
		appErr = httperrors.ErrEmailAlreadyInUse
	case errors.Is(err, svc.ErrInvalidRefreshToken):
		appErr = httperrors.ErrInvalidRefreshToken
	case errors.Is(err, svc.ErrRefreshConflict):
		appErr = httperrors.ErrRefreshConflict
	case errors.Is(err, svc.ErrRefreshNotFound):
		appErr = httperrors.ErrNotFound.WithDetail("refresh token not found")
	case errors.Is(err, svc.ErrUserNotFound):
		appErr = httperrors.ErrUserNotFound
	case errors.Is(err, revocation.ErrUnavailable), errors.Is(err, cache.ErrUnavailable):
		appErr = httperrors.ErrServiceUnavailable.WithCause(err)
	default:
		appErr = httperrors.ErrInternalServerError.WithCause(err)
	}

	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.From(r.Context()).Error("request failed",
			logger.Layer("controller"), logger.String("code", appErr.Code), logger.Err(err))
	}
	httperrors.WriteError(w, appErr)
}

// identity obtiene la identidad que dejó el gate. Un handler protegido sin
// identidad es un error de cableado de rutas, no del cliente.
func identity(w http.ResponseWriter, r *http.Request) (*pipeline.Identity, bool) {
	id, ok := pipeline.IdentityFrom(r.Context())
	if !ok {
		logger.From(r.Context()).Error("protected handler without identity", logger.Layer("controller"))
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return nil, false
	}
	return id, true
}
