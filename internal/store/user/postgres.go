package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dropDatabas3/gatekeeper/internal/store/dbx"
)

const userColumns = `id, email, COALESCE(password_hash, ''), role, status, email_verified_at, oauth_provider, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = $1`, NormalizeEmail(email))
}

func (r *PostgresRepository) Create(ctx context.Context, nu NewUser) (*User, error) {
	if nu.Status == "" {
		nu.Status = StatusActive
	}
	u := &User{
		Email:        NormalizeEmail(nu.Email),
		PasswordHash: nu.PasswordHash,
		Role:         nu.Role,
		Status:       nu.Status,
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (email, password_hash, role, status) VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		u.Email, u.PasswordHash, u.Role, string(u.Status),
	).Scan(&u.ID, &u.CreatedAt)
	if dbx.IsUniqueViolation(err) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) one(ctx context.Context, q string, arg any) (*User, error) {
	var (
		u        User
		status   string
		verified sql.NullTime
		provider sql.NullString
	)
	err := r.db.QueryRowContext(ctx, q, arg).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &status, &verified, &provider, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	u.Status = Status(status)
	if verified.Valid {
		u.EmailVerifiedAt = &verified.Time
	}
	if provider.Valid {
		u.OAuthProvider = &provider.String
	}
	return &u, nil
}
