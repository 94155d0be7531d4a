// Package rate implementa el rate limiting de ventana fija sobre el cache compartido.
//
// Cada (política, identificador) es un contador con TTL = ventana, creado en el
// primer hit. Es una aproximación: en el borde entre dos ventanas un cliente
// puede llegar a 2x el límite. Un hit rechazado no incrementa el contador.
package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/gatekeeper/internal/cache"
)

// ErrUnavailable: el cache no respondió; nunca se trata como "permitido".
var ErrUnavailable = errors.New("rate: limiter unavailable")

// Policy es un par (límite, ventana) con nombre; el nombre forma parte de la key.
type Policy struct {
	Name   string
	Limit  int64
	Window time.Duration
}

func (p Policy) valid() bool { return p.Name != "" && p.Limit > 0 && p.Window > 0 }

// Result es el estado del contador luego de evaluar un hit.
type Result struct {
	Policy     string
	Allowed    bool
	Limit      int64
	Remaining  int64
	Count      int64
	ResetAt    time.Time
	RetryAfter time.Duration // sólo si !Allowed
}

// RetryAfterSeconds redondea hacia arriba (header Retry-After y body retry_after).
func (r Result) RetryAfterSeconds() int64 {
	return ceilSeconds(r.RetryAfter)
}

// Tighter retorna el resultado con menos margen (para reportar en headers).
func Tighter(a, b *Result) *Result {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.Remaining < a.Remaining:
		return b
	default:
		return a
	}
}

// Limiter evalúa un hit contra una política.
type Limiter interface {
	Allow(ctx context.Context, p Policy, identifier string) (Result, error)
}

// CacheLimiter: ventana fija sobre cache.Client.IncrementBelow.
type CacheLimiter struct {
	cache cache.Client
	now   func() time.Time
}

func NewCacheLimiter(c cache.Client) *CacheLimiter {
	return &CacheLimiter{cache: c, now: time.Now}
}

func (l *CacheLimiter) Allow(ctx context.Context, p Policy, identifier string) (Result, error) {
	if !p.valid() {
		return Result{}, fmt.Errorf("rate: invalid policy %+v", p)
	}

	ctr, err := l.cache.IncrementBelow(ctx, key(p.Name, identifier), p.Limit, p.Window)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	ttl := ctr.TTL
	if ttl <= 0 || ttl > p.Window {
		ttl = p.Window
	}

	res := Result{
		Policy:  p.Name,
		Allowed: ctr.Incremented,
		Limit:   p.Limit,
		Count:   ctr.Value,
		ResetAt: l.now().Add(ttl),
	}
	if res.Allowed {
		res.Remaining = p.Limit - ctr.Value
		if res.Remaining < 0 {
			res.Remaining = 0
		}
	} else {
		res.RetryAfter = ttl
	}
	return res, nil
}

func key(policy, identifier string) string {
	return "rl:" + policy + ":" + identifier
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	s := int64(d / time.Second)
	if d%time.Second != 0 {
		s++
	}
	return s
}
