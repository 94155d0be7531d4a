// Package user es el lookup de usuarios que necesitan login y refresh.
// El CRUD completo de usuarios vive fuera de este servicio.
package user

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound         = errors.New("user not found")
	ErrEmailTaken       = errors.New("email already in use")
	ErrInactive         = errors.New("user is not active")
	ErrEmailNotVerified = errors.New("email not verified")
)

type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
	StatusPending   Status = "pending"
)

type User struct {
	ID              int64
	Email           string
	PasswordHash    string
	Role            string
	Status          Status
	EmailVerifiedAt *time.Time
	OAuthProvider   *string
	CreatedAt       time.Time
}

// CanAuthenticate aplica las reglas de estado previas a emitir tokens.
// Las cuentas federadas (oauth_provider) cuentan como verificadas.
func (u User) CanAuthenticate(requireVerified bool) error {
	if u.Status != StatusActive {
		return ErrInactive
	}
	if requireVerified && u.EmailVerifiedAt == nil && u.OAuthProvider == nil {
		return ErrEmailNotVerified
	}
	return nil
}

// NewUser son los datos de alta.
type NewUser struct {
	Email        string
	PasswordHash string
	Role         string
	Status       Status
}

type Repository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, nu NewUser) (*User, error)
}

// NormalizeEmail: trim + lower. Los lookups son case-insensitive.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
