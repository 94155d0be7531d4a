package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrementBelowScript: GET + INCR + PEXPIRE en un solo paso atómico.
// Retorna {valor, pttl_ms, incrementado(0|1)}.
var incrementBelowScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local ceiling = tonumber(ARGV[1])
if current >= ceiling then
  return {current, redis.call('PTTL', KEYS[1]), 0}
end
current = redis.call('INCR', KEYS[1])
if redis.call('PTTL', KEYS[1]) < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return {current, redis.call('PTTL', KEYS[1]), 1}
`)

// redisClient implementa Client usando Redis.
type redisClient struct {
	client *redis.Client
	prefix string
}

// NewRedis crea un cliente de cache Redis y verifica la conexión.
func NewRedis(cfg Config) (Client, error) {
	addr := cfg.Addr
	if addr == "" {
		addr = "localhost:6379"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: redis ping failed: %w", err)
	}

	return NewRedisFromClient(rdb, cfg.Prefix), nil
}

// NewRedisFromClient envuelve un *redis.Client existente (tests, pools compartidos).
func NewRedisFromClient(rdb *redis.Client, prefix string) Client {
	return &redisClient{client: rdb, prefix: prefix}
}

func (c *redisClient) key(k string) string { return prefixed(c.prefix, k) }

func (c *redisClient) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, c.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", unavailable("get", err)
	}
	return val, nil
}

func (c *redisClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		return unavailable("set", err)
	}
	return nil
}

func (c *redisClient) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return unavailable("del", err)
	}
	return nil
}

func (c *redisClient) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(key)).Result()
	if err != nil {
		return false, unavailable("exists", err)
	}
	return n > 0, nil
}

func (c *redisClient) IncrementBelow(ctx context.Context, key string, ceiling int64, ttl time.Duration) (Counter, error) {
	ms := ttl.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	vals, err := incrementBelowScript.Run(ctx, c.client, []string{c.key(key)}, ceiling, ms).Int64Slice()
	if err != nil {
		return Counter{}, unavailable("incr", err)
	}
	if len(vals) != 3 {
		return Counter{}, unavailable("incr", fmt.Errorf("unexpected script reply %v", vals))
	}

	out := Counter{Value: vals[0], Incremented: vals[2] == 1}
	if vals[1] > 0 {
		out.TTL = time.Duration(vals[1]) * time.Millisecond
	}
	return out, nil
}

func (c *redisClient) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (c *redisClient) Close() error {
	return c.client.Close()
}

func (c *redisClient) Stats(ctx context.Context) (Stats, error) {
	keys, err := c.client.DBSize(ctx).Result()
	if err != nil {
		return Stats{}, unavailable("dbsize", err)
	}

	// keyspace_hits / keyspace_misses de INFO stats; best effort
	var hits, misses int64
	if info, err := c.client.Info(ctx, "stats").Result(); err == nil {
		for _, line := range strings.Split(info, "\r\n") {
			switch {
			case strings.HasPrefix(line, "keyspace_hits:"):
				fmt.Sscanf(strings.TrimPrefix(line, "keyspace_hits:"), "%d", &hits)
			case strings.HasPrefix(line, "keyspace_misses:"):
				fmt.Sscanf(strings.TrimPrefix(line, "keyspace_misses:"), "%d", &misses)
			}
		}
	}

	return Stats{Driver: "redis", Keys: keys, Hits: hits, Misses: misses}, nil
}
