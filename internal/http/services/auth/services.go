// Package auth implementa los casos de uso de autenticación: login,
// registro, refresh con rotación, revocación y "me".
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/gatekeeper/internal/audit"
	dto "github.com/dropDatabas3/gatekeeper/internal/http/dto/auth"
	"github.com/dropDatabas3/gatekeeper/internal/jwt"
	"github.com/dropDatabas3/gatekeeper/internal/security/password"
	"github.com/dropDatabas3/gatekeeper/internal/store/refreshtoken"
	"github.com/dropDatabas3/gatekeeper/internal/store/user"
)

// Errores de negocio; el controller los traduce a AppError.
var (
	ErrMissingFields       = errors.New("missing required fields")
	ErrInvalidEmail        = errors.New("invalid email")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountInactive     = errors.New("account inactive")
	ErrEmailNotVerified    = errors.New("email not verified")
	ErrEmailInUse          = errors.New("email already in use")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	ErrRefreshConflict     = errors.New("refresh token already rotated")
	ErrRefreshNotFound     = errors.New("refresh token not found")
	ErrUserNotFound        = errors.New("user not found")
)

// WeakPasswordError lista las reglas de la política que no se cumplen.
type WeakPasswordError struct {
	Reasons []string
}

func (e *WeakPasswordError) Error() string {
	return fmt.Sprintf("weak password: %v", e.Reasons)
}

// TokenIssuer firma access tokens (jwt.Codec).
type TokenIssuer interface {
	Issue(subjectID int64, role string) (jwt.Issued, error)
	AccessTTL() time.Duration
}

// Revoker es la parte de escritura de la lista de revocación.
type Revoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	RevokeUser(ctx context.Context, userID int64, at time.Time) error
}

// Deps son las dependencias compartidas por los services de auth.
type Deps struct {
	Users                    user.Repository
	Refresh                  refreshtoken.Repository
	Tokens                   TokenIssuer
	Revocations              Revoker
	Hasher                   password.Hasher
	Policy                   password.Policy
	Audit                    audit.Sink
	RequireEmailVerification bool
	DefaultRole              string
	Now                      func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Audit == nil {
		d.Audit = audit.NopSink{}
	}
	if d.DefaultRole == "" {
		d.DefaultRole = "user"
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Policy == (password.Policy{}) {
		d.Policy = password.DefaultPolicy
	}
	return d
}

// Services agrupa los services del dominio auth.
type Services struct {
	Login    LoginService
	Register RegisterService
	Refresh  RefreshService
	Revoke   RevokeService
	Me       MeService
}

// NewServices construye todos los services con las mismas dependencias.
func NewServices(d Deps) Services {
	d = d.withDefaults()
	return Services{
		Login:    &loginService{deps: d},
		Register: &registerService{deps: d},
		Refresh:  &refreshService{deps: d},
		Revoke:   &revokeService{deps: d},
		Me:       &meService{deps: d},
	}
}

// issuePair emite access + refresh para u.
func issuePair(ctx context.Context, d Deps, u *user.User) (dto.TokenPair, error) {
	access, err := d.Tokens.Issue(u.ID, u.Role)
	if err != nil {
		return dto.TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	rt, err := d.Refresh.Issue(ctx, u.ID)
	if err != nil {
		return dto.TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}
	return pair(d, access, rt.Token), nil
}

func pair(d Deps, access jwt.Issued, refresh string) dto.TokenPair {
	return dto.TokenPair{
		AccessToken:  access.Token,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(d.Tokens.AccessTTL() / time.Second),
	}
}

// ToUserResponse arma la vista pública de u.
func ToUserResponse(u *user.User) dto.UserResponse {
	out := dto.UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		Role:          u.Role,
		Status:        string(u.Status),
		EmailVerified: u.EmailVerifiedAt != nil,
	}
	if !u.CreatedAt.IsZero() {
		t := u.CreatedAt
		out.CreatedAt = &t
	}
	return out
}

func statusError(err error) error {
	switch {
	case errors.Is(err, user.ErrInactive):
		return ErrAccountInactive
	case errors.Is(err, user.ErrEmailNotVerified):
		return ErrEmailNotVerified
	}
	return err
}
