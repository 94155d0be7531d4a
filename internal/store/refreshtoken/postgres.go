package refreshtoken

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dropDatabas3/gatekeeper/internal/security/token"
	"github.com/dropDatabas3/gatekeeper/internal/store/dbx"
)

const (
	insertSQL = `INSERT INTO refresh_tokens (user_id, token_hash, expires_at, rotated_from, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`

	findActiveSQL = `SELECT id, user_id, token_hash, expires_at, revoked_at, rotated_from, created_at
FROM refresh_tokens
WHERE token_hash = $1 AND revoked_at IS NULL AND expires_at > $2`

	revokeSQL = `UPDATE refresh_tokens SET revoked_at = COALESCE(revoked_at, $2)
WHERE token_hash = $1`

	revokeAllSQL = `UPDATE refresh_tokens SET revoked_at = $2
WHERE user_id = $1 AND revoked_at IS NULL`

	deleteExpiredSQL = `DELETE FROM refresh_tokens WHERE expires_at <= $1`

	claimSQL = `UPDATE refresh_tokens SET revoked_at = $2
WHERE token_hash = $1 AND revoked_at IS NULL AND expires_at > $2
RETURNING id, user_id`

	inspectSQL = `SELECT rt.revoked_at IS NOT NULL,
       EXISTS (SELECT 1 FROM refresh_tokens c WHERE c.rotated_from = rt.id)
FROM refresh_tokens rt
WHERE rt.token_hash = $1`
)

// PostgresRepository implementa Repository sobre database/sql (driver pgx).
type PostgresRepository struct {
	db   dbx.DB
	opts Options
}

func NewPostgresRepository(db dbx.DB, opts Options) *PostgresRepository {
	return &PostgresRepository{db: db, opts: opts.withDefaults()}
}

func (r *PostgresRepository) Issue(ctx context.Context, userID int64) (Issued, error) {
	return r.insert(ctx, r.db, userID, nil)
}

func (r *PostgresRepository) insert(ctx context.Context, q dbx.DBTX, userID int64, rotatedFrom *int64) (Issued, error) {
	raw, err := token.Opaque(token.RefreshBytes)
	if err != nil {
		return Issued{}, fmt.Errorf("generate refresh token: %w", err)
	}

	now := r.opts.Now()
	rec := RefreshToken{
		UserID:      userID,
		TokenHash:   token.Hash(raw),
		ExpiresAt:   now.Add(r.opts.TTL),
		RotatedFrom: rotatedFrom,
		CreatedAt:   now,
	}

	if err := q.QueryRowContext(ctx, insertSQL, rec.UserID, rec.TokenHash, rec.ExpiresAt, nullInt64(rotatedFrom), rec.CreatedAt).
		Scan(&rec.ID); err != nil {
		return Issued{}, fmt.Errorf("insert refresh token: %w", err)
	}
	return Issued{Token: raw, Record: rec}, nil
}

func (r *PostgresRepository) FindActive(ctx context.Context, tok string) (*RefreshToken, error) {
	var (
		rec         RefreshToken
		revokedAt   sql.NullTime
		rotatedFrom sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, findActiveSQL, token.Hash(tok), r.opts.Now()).
		Scan(&rec.ID, &rec.UserID, &rec.TokenHash, &rec.ExpiresAt, &revokedAt, &rotatedFrom, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	if revokedAt.Valid {
		rec.RevokedAt = &revokedAt.Time
	}
	if rotatedFrom.Valid {
		rec.RotatedFrom = &rotatedFrom.Int64
	}
	return &rec, nil
}

func (r *PostgresRepository) Revoke(ctx context.Context, tok string) (bool, error) {
	res, err := r.db.ExecContext(ctx, revokeSQL, token.Hash(tok), r.opts.Now())
	if err != nil {
		return false, fmt.Errorf("revoke refresh token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("revoke refresh token: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) RevokeAllForUser(ctx context.Context, userID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, revokeAllSQL, userID, r.opts.Now())
	if err != nil {
		return false, fmt.Errorf("revoke user refresh tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("revoke user refresh tokens: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteExpiredSQL, r.opts.Now())
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	return res.RowsAffected()
}

func (r *PostgresRepository) Rotate(ctx context.Context, tok string) (Rotation, error) {
	hash := token.Hash(tok)
	var out Rotation

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var prevID, userID int64
		err := tx.QueryRowContext(ctx, claimSQL, hash, r.opts.Now()).Scan(&prevID, &userID)
		if errors.Is(err, sql.ErrNoRows) {
			return r.classify(ctx, tx, hash)
		}
		if err != nil {
			return fmt.Errorf("claim refresh token: %w", err)
		}

		next, err := r.insert(ctx, tx, userID, &prevID)
		if err != nil {
			return err
		}
		out = Rotation{UserID: userID, PreviousID: prevID, Next: next}
		return nil
	})
	if err != nil {
		return Rotation{}, err
	}
	return out, nil
}

// classify explica por qué el UPDATE condicional no tomó la fila.
func (r *PostgresRepository) classify(ctx context.Context, q dbx.DBTX, hash string) error {
	var revoked, hasSuccessor bool
	err := q.QueryRowContext(ctx, inspectSQL, hash).Scan(&revoked, &hasSuccessor)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("inspect refresh token: %w", err)
	}
	if revoked && hasSuccessor {
		return ErrAlreadyRotated
	}
	return ErrNotFound
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
