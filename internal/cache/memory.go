package cache

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// memoryClient implementa Client sobre patrickmn/go-cache.
// Sólo válido para una réplica: el estado no se comparte entre procesos.
type memoryClient struct {
	prefix string
	c      *gocache.Cache

	// serializa IncrementBelow (leer + comparar + incrementar)
	incrMu sync.Mutex

	hits   atomic.Int64
	misses atomic.Int64
}

// NewMemory crea un cliente de cache en memoria.
func NewMemory(prefix string) Client {
	return &memoryClient{
		prefix: prefix,
		c:      gocache.New(gocache.NoExpiration, time.Minute),
	}
}

func (m *memoryClient) key(k string) string { return prefixed(m.prefix, k) }

func ttlToExpiration(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return gocache.NoExpiration
	}
	return ttl
}

func (m *memoryClient) Get(_ context.Context, key string) (string, error) {
	v, ok := m.c.Get(m.key(key))
	if !ok {
		m.misses.Add(1)
		return "", ErrNotFound
	}
	m.hits.Add(1)
	switch s := v.(type) {
	case string:
		return s, nil
	case int64:
		return strconv.FormatInt(s, 10), nil
	default:
		return "", ErrNotFound
	}
}

func (m *memoryClient) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.c.Set(m.key(key), value, ttlToExpiration(ttl))
	return nil
}

func (m *memoryClient) Delete(_ context.Context, key string) error {
	m.c.Delete(m.key(key))
	return nil
}

func (m *memoryClient) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.c.Get(m.key(key))
	return ok, nil
}

func (m *memoryClient) IncrementBelow(_ context.Context, key string, ceiling int64, ttl time.Duration) (Counter, error) {
	k := m.key(key)

	m.incrMu.Lock()
	defer m.incrMu.Unlock()

	v, exp, ok := m.c.GetWithExpiration(k)
	if !ok {
		if ceiling <= 0 {
			return Counter{Value: 0, TTL: ttl}, nil
		}
		m.c.Set(k, int64(1), ttlToExpiration(ttl))
		return Counter{Value: 1, TTL: ttl, Incremented: true}, nil
	}

	current, _ := v.(int64)
	remaining := time.Duration(0)
	if !exp.IsZero() {
		remaining = time.Until(exp)
	}
	if current >= ceiling {
		return Counter{Value: current, TTL: remaining}, nil
	}

	// IncrementInt64 conserva la expiración original de la key
	next, err := m.c.IncrementInt64(k, 1)
	if err != nil {
		// expiró entre GetWithExpiration y el incremento: nueva ventana
		m.c.Set(k, int64(1), ttlToExpiration(ttl))
		return Counter{Value: 1, TTL: ttl, Incremented: true}, nil
	}
	return Counter{Value: next, TTL: remaining, Incremented: true}, nil
}

func (m *memoryClient) Ping(context.Context) error { return nil }

func (m *memoryClient) Close() error {
	m.c.Flush()
	return nil
}

func (m *memoryClient) Stats(context.Context) (Stats, error) {
	return Stats{
		Driver: "memory",
		Keys:   int64(m.c.ItemCount()),
		Hits:   m.hits.Load(),
		Misses: m.misses.Load(),
	}, nil
}
