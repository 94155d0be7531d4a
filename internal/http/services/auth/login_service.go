package auth

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/dropDatabas3/gatekeeper/internal/audit"
	dto "github.com/dropDatabas3/gatekeeper/internal/http/dto/auth"
	"github.com/dropDatabas3/gatekeeper/internal/observability/logger"
	"github.com/dropDatabas3/gatekeeper/internal/security/password"
	"github.com/dropDatabas3/gatekeeper/internal/store/user"
)

// LoginService autentica por email + password.
type LoginService interface {
	Login(ctx context.Context, in dto.LoginRequest, ip string) (*dto.AuthResult, error)
}

type loginService struct {
	deps Deps
}

func (s *loginService) Login(ctx context.Context, in dto.LoginRequest, ip string) (*dto.AuthResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.login"),
		logger.Op("Login"),
	)

	email := user.NormalizeEmail(in.Email)
	if email == "" || strings.TrimSpace(in.Password) == "" {
		return nil, ErrMissingFields
	}

	u, err := s.deps.Users.GetByEmail(ctx, email)
	if errors.Is(err, user.ErrNotFound) {
		s.deps.Hasher.Burn(in.Password)
		s.failed(ctx, 0, ip, "unknown_email")
		log.Debug("login failed", logger.Email(email), logger.Reason("unknown_email"))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := s.deps.Hasher.Verify(u.PasswordHash, in.Password); err != nil {
		if !errors.Is(err, password.ErrMismatch) {
			log.Error("password verify failed", logger.UserID(u.ID), logger.Err(err))
		}
		s.failed(ctx, u.ID, ip, "bad_password")
		log.Debug("login failed", logger.UserID(u.ID), logger.Reason("bad_password"))
		return nil, ErrInvalidCredentials
	}

	if err := u.CanAuthenticate(s.deps.RequireEmailVerification); err != nil {
		s.failed(ctx, u.ID, ip, err.Error())
		return nil, statusError(err)
	}

	tokens, err := issuePair(ctx, s.deps, u)
	if err != nil {
		return nil, err
	}

	s.deps.Audit.Log(ctx, audit.Event{
		Action:     audit.ActionLogin,
		EntityType: "user",
		EntityID:   strconv.FormatInt(u.ID, 10),
		UserID:     u.ID,
		IP:         ip,
		At:         s.deps.Now(),
	})
	log.Info("login succeeded", logger.UserID(u.ID))

	return &dto.AuthResult{User: ToUserResponse(u), Tokens: tokens}, nil
}

func (s *loginService) failed(ctx context.Context, userID int64, ip, reason string) {
	s.deps.Audit.Log(ctx, audit.Event{
		Action:     audit.ActionLoginFailed,
		EntityType: "user",
		EntityID:   strconv.FormatInt(userID, 10),
		UserID:     userID,
		IP:         ip,
		New:        map[string]any{"reason": reason},
		At:         s.deps.Now(),
	})
}
