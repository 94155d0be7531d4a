package apikey

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/gatekeeper/internal/store/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByHash(ctx context.Context, hash string) (*Key, error) {
	var (
		k      Key
		window int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, prefix, key_hash, is_active, rate_limit, window_seconds, user_rate_limit, ip_rate_limit, created_at
FROM api_keys WHERE key_hash = $1`, hash).
		Scan(&k.ID, &k.Name, &k.Prefix, &k.KeyHash, &k.Active, &k.RateLimit, &window, &k.UserRateLimit, &k.IPRateLimit, &k.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select api key: %w", err)
	}
	k.Window = time.Duration(window) * time.Second
	return &k, nil
}

func (r *PostgresRepository) Create(ctx context.Context, nk NewKey) (Created, error) {
	raw, prefix, hash, err := Generate()
	if err != nil {
		return Created{}, fmt.Errorf("generate api key: %w", err)
	}
	k := Key{
		Name:          nk.Name,
		Prefix:        prefix,
		KeyHash:       hash,
		Active:        true,
		RateLimit:     nk.RateLimit,
		Window:        nk.Window,
		UserRateLimit: nk.UserRateLimit,
		IPRateLimit:   nk.IPRateLimit,
	}
	err = r.db.QueryRowContext(ctx,
		`INSERT INTO api_keys (name, prefix, key_hash, rate_limit, window_seconds, user_rate_limit, ip_rate_limit)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at`,
		k.Name, k.Prefix, k.KeyHash, k.RateLimit, int64(k.Window/time.Second), k.UserRateLimit, k.IPRateLimit,
	).Scan(&k.ID, &k.CreatedAt)
	if err != nil {
		return Created{}, fmt.Errorf("insert api key: %w", err)
	}
	return Created{Raw: raw, Key: k}, nil
}
