// Package refreshtoken persiste los refresh tokens opacos.
//
// Sólo se guarda sha256(token). La rotación es un UPDATE condicional
// (revoked_at IS NULL) dentro de la misma transacción que inserta el sucesor:
// ante dos rotaciones concurrentes del mismo token exactamente una gana.
package refreshtoken

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound: el token no existe, expiró o fue revocado por logout.
	ErrNotFound = errors.New("refresh token not found")
	// ErrAlreadyRotated: el token ya fue canjeado por otro (reuso o carrera perdida).
	ErrAlreadyRotated = errors.New("refresh token already rotated")
)

// RefreshToken es la fila persistida.
type RefreshToken struct {
	ID          int64
	UserID      int64
	TokenHash   string
	ExpiresAt   time.Time
	RevokedAt   *time.Time
	RotatedFrom *int64
	CreatedAt   time.Time
}

// Active: no revocado y no expirado en now.
func (t RefreshToken) Active(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

// Issued es un token recién emitido; Token es el valor en claro (sólo existe acá).
type Issued struct {
	Token  string
	Record RefreshToken
}

// Rotation es el resultado de canjear un refresh token.
type Rotation struct {
	UserID     int64
	PreviousID int64
	Next       Issued
}

// Repository es el contrato del Refresh Token Store.
type Repository interface {
	// Issue emite un token nuevo para userID con el TTL configurado.
	Issue(ctx context.Context, userID int64) (Issued, error)
	// FindActive busca por valor en claro; ErrNotFound si no está activo.
	FindActive(ctx context.Context, token string) (*RefreshToken, error)
	// Revoke marca el token como revocado. Retorna true si la fila existe,
	// aunque ya estuviera revocada; false sólo si no existe.
	Revoke(ctx context.Context, token string) (bool, error)
	// RevokeAllForUser revoca todos los tokens activos; true si afectó alguno.
	RevokeAllForUser(ctx context.Context, userID int64) (bool, error)
	// DeleteExpired borra las filas expiradas y retorna cuántas.
	DeleteExpired(ctx context.Context) (int64, error)
	// Rotate revoca token y emite su sucesor de forma atómica.
	Rotate(ctx context.Context, token string) (Rotation, error)
}

// Options comunes a las implementaciones.
type Options struct {
	TTL time.Duration
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.TTL <= 0 {
		o.TTL = 7 * 24 * time.Hour
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
