package auth

import (
	"context"
	"strconv"
	"strings"

	"github.com/dropDatabas3/gatekeeper/internal/audit"
	dto "github.com/dropDatabas3/gatekeeper/internal/http/dto/auth"
	"github.com/dropDatabas3/gatekeeper/internal/observability/logger"
	"github.com/dropDatabas3/gatekeeper/internal/pipeline"
)

// RevokeService revoca el token actual o toda la sesión del usuario.
// Ambas operaciones son idempotentes.
type RevokeService interface {
	Revoke(ctx context.Context, id *pipeline.Identity, in dto.RevokeRequest, ip string) error
	RevokeAll(ctx context.Context, id *pipeline.Identity, ip string) (*dto.RevokeAllResponse, error)
}

type revokeService struct {
	deps Deps
}

// Revoke revoca el refresh token del body, si viene, y luego agrega el jti
// del caller a la lista. Un refresh token desconocido es ErrRefreshNotFound y
// deja el access token intacto; uno ya revocado no es error.
func (s *revokeService) Revoke(ctx context.Context, id *pipeline.Identity, in dto.RevokeRequest, ip string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.revoke"),
		logger.Op("Revoke"),
	)

	if raw := strings.TrimSpace(in.RefreshToken); raw != "" {
		found, err := s.deps.Refresh.Revoke(ctx, raw)
		if err != nil {
			return err
		}
		if !found {
			log.Debug("refresh token to revoke not found", logger.UserID(id.UserID))
			return ErrRefreshNotFound
		}
	}

	if err := s.deps.Revocations.Revoke(ctx, id.JTI, id.ExpiresAt); err != nil {
		return err
	}

	s.deps.Audit.Log(ctx, audit.Event{
		Action:     audit.ActionRevoke,
		EntityType: "access_token",
		EntityID:   id.JTI,
		UserID:     id.UserID,
		IP:         ip,
		At:         s.deps.Now(),
	})
	log.Info("token revoked", logger.UserID(id.UserID), logger.JTI(id.JTI))
	return nil
}

// RevokeAll revoca los refresh tokens del usuario y marca un corte para
// todos sus access tokens emitidos hasta ahora.
func (s *revokeService) RevokeAll(ctx context.Context, id *pipeline.Identity, ip string) (*dto.RevokeAllResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.revoke"),
		logger.Op("RevokeAll"),
	)

	affected, err := s.deps.Refresh.RevokeAllForUser(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Revocations.RevokeUser(ctx, id.UserID, s.deps.Now()); err != nil {
		return nil, err
	}

	s.deps.Audit.Log(ctx, audit.Event{
		Action:     audit.ActionRevokeAll,
		EntityType: "user",
		EntityID:   strconv.FormatInt(id.UserID, 10),
		UserID:     id.UserID,
		IP:         ip,
		New:        map[string]any{"refresh_tokens_revoked": affected},
		At:         s.deps.Now(),
	})
	log.Info("all sessions revoked", logger.UserID(id.UserID), logger.Bool("refresh_tokens_revoked", affected))
	return &dto.RevokeAllResponse{RefreshTokensRevoked: affected}, nil
}
