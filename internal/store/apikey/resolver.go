package apikey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/gatekeeper/internal/cache"
	"github.com/dropDatabas3/gatekeeper/internal/security/token"
)

// ErrInactive: la key existe pero está deshabilitada.
var ErrInactive = errors.New("api key inactive")

// negativeMarker marca en cache una key inexistente.
const negativeMarker = "-"

// Resolver: cache-through sobre Repository.
type Resolver struct {
	repo        Repository
	cache       cache.Client
	ttl         time.Duration
	negativeTTL time.Duration
	sf          singleflight.Group
}

func NewResolver(repo Repository, c cache.Client, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Resolver{repo: repo, cache: c, ttl: ttl, negativeTTL: 30 * time.Second}
}

// Resolve retorna la key activa para raw, ErrNotFound / ErrInactive, o un error
// de infraestructura (cache o base) que el pipeline responde como 503.
func (r *Resolver) Resolve(ctx context.Context, raw string) (*Key, error) {
	if !LooksValid(raw) {
		return nil, ErrNotFound
	}
	hash := token.Hash(raw)
	ck := "apikey:" + hash

	if v, err := r.cache.Get(ctx, ck); err == nil {
		return decodeCached(v)
	} else if !cache.IsNotFound(err) {
		return nil, err
	}

	v, err, _ := r.sf.Do(hash, func() (any, error) {
		k, err := r.repo.GetByHash(ctx, hash)
		if errors.Is(err, ErrNotFound) {
			_ = r.cache.Set(ctx, ck, negativeMarker, r.negativeTTL)
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		if b, err := json.Marshal(k); err == nil {
			_ = r.cache.Set(ctx, ck, string(b), r.ttl)
		}
		return k, nil
	})
	if err != nil {
		return nil, err
	}
	k := v.(*Key)
	if !k.Active {
		return nil, ErrInactive
	}
	cp := *k
	return &cp, nil
}

// Invalidate borra la entrada cacheada (al desactivar una key).
func (r *Resolver) Invalidate(ctx context.Context, raw string) error {
	return r.cache.Delete(ctx, "apikey:"+token.Hash(raw))
}

func decodeCached(v string) (*Key, error) {
	if v == negativeMarker {
		return nil, ErrNotFound
	}
	var k Key
	if err := json.Unmarshal([]byte(v), &k); err != nil {
		return nil, fmt.Errorf("decode cached api key: %w", err)
	}
	if !k.Active {
		return nil, ErrInactive
	}
	return &k, nil
}
