// Package revocation mantiene la lista negra de access tokens por jti.
//
// Cada entrada vive en el cache compartido con TTL igual a la vida restante del
// token: cuando el token expiraría de todos modos, la entrada desaparece sola.
package revocation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dropDatabas3/gatekeeper/internal/cache"
	"github.com/dropDatabas3/gatekeeper/internal/jwt"
	"github.com/dropDatabas3/gatekeeper/internal/observability/logger"
)

// FailMode define qué responde IsRevoked cuando el cache no responde.
type FailMode int

const (
	// FailClosed: el token se trata como revocado y se retorna ErrUnavailable.
	FailClosed FailMode = iota
	// FailOpen: el token se trata como vigente; la falla se loguea en Error.
	FailOpen
)

// ParseFailMode acepta "closed" | "open".
func ParseFailMode(s string) (FailMode, error) {
	switch s {
	case "closed", "":
		return FailClosed, nil
	case "open":
		return FailOpen, nil
	}
	return FailClosed, fmt.Errorf("revocation: unknown fail mode %q", s)
}

func (m FailMode) String() string {
	if m == FailOpen {
		return "open"
	}
	return "closed"
}

// ErrUnavailable: no se pudo consultar la lista (sólo en FailClosed).
var ErrUnavailable = errors.New("revocation: store unavailable")

const (
	jtiPrefix  = "revoked:jti:"
	userPrefix = "revoked:user:"
)

// Options del Store.
type Options struct {
	FailMode FailMode
	// UserCutoffTTL es cuánto vive la marca de revocación por usuario;
	// debe ser >= al TTL de los access tokens.
	UserCutoffTTL time.Duration
	Now           func() time.Time
}

// Store es la lista de revocación sobre un cache.Client.
type Store struct {
	cache     cache.Client
	mode      FailMode
	cutoffTTL time.Duration
	now       func() time.Time
}

func New(c cache.Client, opts Options) *Store {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{cache: c, mode: opts.FailMode, cutoffTTL: opts.UserCutoffTTL, now: now}
}

// Mode retorna la política configurada.
func (s *Store) Mode() FailMode { return s.mode }

// Revoke agrega jti a la lista hasta expiresAt. Si el token ya expiró no hace nada.
// Es idempotente: revocar dos veces deja una sola entrada.
func (s *Store) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return errors.New("revocation: empty jti")
	}
	ttl := ceilMilli(expiresAt.Sub(s.now()))
	if ttl <= 0 {
		return nil
	}
	if err := s.cache.Set(ctx, jtiPrefix+jti, strconv.FormatInt(expiresAt.Unix(), 10), ttl); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// IsRevoked consulta la lista por coincidencia exacta del jti.
func (s *Store) IsRevoked(ctx context.Context, jti string) (bool, error) {
	ok, err := s.cache.Exists(ctx, jtiPrefix+jti)
	if err != nil {
		return s.fail(ctx, "is_revoked", err)
	}
	return ok, nil
}

// RevokeUser invalida todos los access tokens de userID emitidos antes de at.
func (s *Store) RevokeUser(ctx context.Context, userID int64, at time.Time) error {
	ttl := s.cutoffTTL
	if ttl <= 0 {
		return errors.New("revocation: user cutoff ttl not configured")
	}
	key := userPrefix + strconv.FormatInt(userID, 10)
	if err := s.cache.Set(ctx, key, strconv.FormatInt(at.Unix(), 10), ttl); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Check combina IsRevoked(jti) con la marca por usuario. Es lo que usa el pipeline.
func (s *Store) Check(ctx context.Context, c jwt.Claims) (bool, error) {
	revoked, err := s.IsRevoked(ctx, c.JTI)
	if err != nil || revoked {
		return revoked, err
	}

	raw, err := s.cache.Get(ctx, userPrefix+strconv.FormatInt(c.SubjectID, 10))
	switch {
	case cache.IsNotFound(err):
		return false, nil
	case err != nil:
		return s.fail(ctx, "user_cutoff", err)
	}

	cutoff, perr := strconv.ParseInt(raw, 10, 64)
	if perr != nil {
		return false, nil
	}
	// iat y cutoff tienen granularidad de segundos: un token emitido en el mismo
	// segundo que el revoke-all también cae.
	return c.IssuedAt.Unix() <= cutoff, nil
}

func (s *Store) fail(ctx context.Context, op string, err error) (bool, error) {
	if s.mode == FailOpen {
		logger.From(ctx).Error("revocation store unavailable, failing open",
			logger.Component("revocation"), logger.Op(op), logger.Err(err))
		return false, nil
	}
	return true, fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// ceilMilli redondea hacia arriba a la resolución de PX: la entrada vence a
// lo sumo 1ms después del token y nunca antes.
func ceilMilli(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	if r := d % time.Millisecond; r != 0 {
		d += time.Millisecond - r
	}
	return d
}
