package auth

import (
	"context"
	"errors"

	dto "github.com/dropDatabas3/gatekeeper/internal/http/dto/auth"
	"github.com/dropDatabas3/gatekeeper/internal/pipeline"
	"github.com/dropDatabas3/gatekeeper/internal/store/user"
)

// MeService devuelve el usuario autenticado.
type MeService interface {
	Me(ctx context.Context, id *pipeline.Identity) (*dto.MeResponse, error)
	GetUser(ctx context.Context, userID int64) (*dto.UserResponse, error)
}

type meService struct {
	deps Deps
}

func (s *meService) Me(ctx context.Context, id *pipeline.Identity) (*dto.MeResponse, error) {
	u, err := s.GetUser(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	return &dto.MeResponse{
		User:      *u,
		JTI:       id.JTI,
		ExpiresAt: id.ExpiresAt,
		APIKeyID:  id.APIKeyID,
	}, nil
}

// GetUser es el lookup por id (GET /api/v1/users/{id}).
func (s *meService) GetUser(ctx context.Context, userID int64) (*dto.UserResponse, error) {
	u, err := s.deps.Users.GetByID(ctx, userID)
	if errors.Is(err, user.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	out := ToUserResponse(u)
	return &out, nil
}
