package auth

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/dropDatabas3/gatekeeper/internal/audit"
	dto "github.com/dropDatabas3/gatekeeper/internal/http/dto/auth"
	"github.com/dropDatabas3/gatekeeper/internal/metrics"
	"github.com/dropDatabas3/gatekeeper/internal/observability/logger"
	"github.com/dropDatabas3/gatekeeper/internal/store/refreshtoken"
	"github.com/dropDatabas3/gatekeeper/internal/store/user"
)

// RefreshService canjea un refresh token por un par nuevo.
type RefreshService interface {
	Refresh(ctx context.Context, in dto.RefreshRequest, ip string) (*dto.TokenPair, error)
}

type refreshService struct {
	deps Deps
}

func (s *refreshService) Refresh(ctx context.Context, in dto.RefreshRequest, ip string) (*dto.TokenPair, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.refresh"),
		logger.Op("Refresh"),
	)

	raw := strings.TrimSpace(in.RefreshToken)
	if raw == "" {
		return nil, ErrMissingFields
	}

	rot, err := s.deps.Refresh.Rotate(ctx, raw)
	switch {
	case errors.Is(err, refreshtoken.ErrNotFound):
		metrics.Rotation("invalid")
		log.Debug("refresh rejected", logger.Reason("not_found"))
		return nil, ErrInvalidRefreshToken
	case errors.Is(err, refreshtoken.ErrAlreadyRotated):
		metrics.Rotation("conflict")
		log.Info("refresh token reuse or lost race", logger.Reason("already_rotated"))
		return nil, ErrRefreshConflict
	case err != nil:
		metrics.Rotation("error")
		return nil, err
	}

	u, err := s.deps.Users.GetByID(ctx, rot.UserID)
	if err == nil {
		err = u.CanAuthenticate(s.deps.RequireEmailVerification)
	}
	if err != nil {
		// el sucesor ya existe: se revoca para no dejar una sesión huérfana
		if _, rerr := s.deps.Refresh.Revoke(ctx, rot.Next.Token); rerr != nil {
			log.Error("revoke orphan refresh token failed", logger.UserID(rot.UserID), logger.Err(rerr))
		}
		metrics.Rotation("invalid")
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, statusError(err)
	}

	access, err := s.deps.Tokens.Issue(u.ID, u.Role)
	if err != nil {
		metrics.Rotation("error")
		return nil, err
	}

	metrics.Rotation("success")
	s.deps.Audit.Log(ctx, audit.Event{
		Action:     audit.ActionRefresh,
		EntityType: "refresh_token",
		EntityID:   strconv.FormatInt(rot.Next.Record.ID, 10),
		UserID:     u.ID,
		IP:         ip,
		Old:        map[string]any{"id": rot.PreviousID},
		New:        map[string]any{"id": rot.Next.Record.ID},
		At:         s.deps.Now(),
	})

	tp := pair(s.deps, access, rot.Next.Token)
	return &tp, nil
}
