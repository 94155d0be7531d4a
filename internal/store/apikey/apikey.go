// Package apikey resuelve API keys (valor en claro -> registro con límites).
//
// Sólo se persiste sha256(key). Resolver cachea el registro en el cache
// compartido y colapsa lookups concurrentes de la misma key con singleflight.
package apikey

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dropDatabas3/gatekeeper/internal/security/token"
)

// KeyPrefix antecede a toda key emitida.
const KeyPrefix = "gk_"

var ErrNotFound = errors.New("api key not found")

// Key es una API key registrada. Los límites en 0 toman los defaults de config.
type Key struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	Prefix        string        `json:"prefix"`
	KeyHash       string        `json:"key_hash"`
	Active        bool          `json:"active"`
	RateLimit     int64         `json:"rate_limit"`
	Window        time.Duration `json:"window"`
	UserRateLimit int64         `json:"user_rate_limit"`
	IPRateLimit   int64         `json:"ip_rate_limit"`
	CreatedAt     time.Time     `json:"created_at"`
}

// NewKey son los datos de alta.
type NewKey struct {
	Name          string
	RateLimit     int64
	Window        time.Duration
	UserRateLimit int64
	IPRateLimit   int64
}

// Created contiene la key en claro; se muestra una única vez.
type Created struct {
	Raw string
	Key Key
}

type Repository interface {
	GetByHash(ctx context.Context, hash string) (*Key, error)
	Create(ctx context.Context, nk NewKey) (Created, error)
}

// Generate arma una key nueva: raw, prefijo visible y hash persistible.
func Generate() (raw, prefix, hash string, err error) {
	body, err := token.Opaque(24)
	if err != nil {
		return "", "", "", err
	}
	raw = KeyPrefix + body
	return raw, raw[:len(KeyPrefix)+6], token.Hash(raw), nil
}

// LooksValid descarta sin tocar el cache valores que no pueden ser una key.
func LooksValid(raw string) bool {
	return strings.HasPrefix(raw, KeyPrefix) && len(raw) > len(KeyPrefix)+8 && len(raw) < 256
}
