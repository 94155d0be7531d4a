package auth

import (
	"context"
	"errors"
	"net/mail"
	"strconv"

	"github.com/dropDatabas3/gatekeeper/internal/audit"
	dto "github.com/dropDatabas3/gatekeeper/internal/http/dto/auth"
	"github.com/dropDatabas3/gatekeeper/internal/observability/logger"
	"github.com/dropDatabas3/gatekeeper/internal/store/user"
)

// RegisterResult: Tokens es nil cuando la cuenta todavía no puede
// autenticarse (verificación de email pendiente).
type RegisterResult struct {
	User   dto.UserResponse
	Tokens *dto.TokenPair
}

// RegisterService da de alta usuarios con rol por defecto.
type RegisterService interface {
	Register(ctx context.Context, in dto.RegisterRequest, ip string) (*RegisterResult, error)
}

type registerService struct {
	deps Deps
}

func (s *registerService) Register(ctx context.Context, in dto.RegisterRequest, ip string) (*RegisterResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.register"),
		logger.Op("Register"),
	)

	email := user.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, ErrMissingFields
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, ErrInvalidEmail
	}
	if ok, reasons := s.deps.Policy.Validate(in.Password); !ok {
		return nil, &WeakPasswordError{Reasons: reasons}
	}

	hash, err := s.deps.Hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	u, err := s.deps.Users.Create(ctx, user.NewUser{
		Email:        email,
		PasswordHash: hash,
		Role:         s.deps.DefaultRole,
		Status:       user.StatusActive,
	})
	if errors.Is(err, user.ErrEmailTaken) {
		log.Debug("register rejected", logger.Email(email), logger.Reason("email_taken"))
		return nil, ErrEmailInUse
	}
	if err != nil {
		return nil, err
	}

	s.deps.Audit.Log(ctx, audit.Event{
		Action:     audit.ActionRegister,
		EntityType: "user",
		EntityID:   strconv.FormatInt(u.ID, 10),
		UserID:     u.ID,
		IP:         ip,
		New:        map[string]any{"email": u.Email, "role": u.Role},
		At:         s.deps.Now(),
	})
	log.Info("user registered", logger.UserID(u.ID))

	res := &RegisterResult{User: ToUserResponse(u)}
	if u.CanAuthenticate(s.deps.RequireEmailVerification) != nil {
		return res, nil
	}
	tokens, err := issuePair(ctx, s.deps, u)
	if err != nil {
		return nil, err
	}
	res.Tokens = &tokens
	return res, nil
}
