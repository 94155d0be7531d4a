package refreshtoken

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/gatekeeper/internal/security/token"
)

var fixedNow = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo := NewPostgresRepository(db, Options{TTL: time.Hour, Now: func() time.Time { return fixedNow }})
	return repo, mock
}

func TestPostgres_Issue(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+refresh_tokens\b.*RETURNING\s+id$`).
		WithArgs(int64(7), sqlmock.AnyArg(), fixedNow.Add(time.Hour), sql.NullInt64{}, fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(100)))

	iss, err := repo.Issue(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(100), iss.Record.ID)
	assert.Equal(t, token.Hash(iss.Token), iss.Record.TokenHash)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FindActive_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+refresh_tokens\s+WHERE\s+token_hash\s*=\s*\$1\s+AND\s+revoked_at\s+IS\s+NULL`).
		WithArgs(token.Hash("missing"), fixedNow).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindActive(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgres_FindActive_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	rows := sqlmock.NewRows([]string{"id", "user_id", "token_hash", "expires_at", "revoked_at", "rotated_from", "created_at"}).
		AddRow(int64(1), int64(7), token.Hash("tok"), fixedNow.Add(time.Hour), nil, int64(0), fixedNow)
	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+refresh_tokens`).
		WithArgs(token.Hash("tok"), fixedNow).
		WillReturnRows(rows)

	rec, err := repo.FindActive(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, int64(7), rec.UserID)
	assert.Nil(t, rec.RevokedAt)
}

func TestPostgres_Revoke(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)^UPDATE\s+refresh_tokens\s+SET\s+revoked_at\s*=\s*COALESCE\(revoked_at,\s*\$2\)\s+WHERE\s+token_hash\s*=\s*\$1$`
	mock.ExpectExec(q).WithArgs(token.Hash("known"), fixedNow).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs(token.Hash("unknown"), fixedNow).WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Revoke(context.Background(), "known")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Revoke(context.Background(), "unknown")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_RevokeAllForUser(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`(?s)^UPDATE\s+refresh_tokens\s+SET\s+revoked_at\s*=\s*\$2\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+revoked_at\s+IS\s+NULL$`).
		WithArgs(int64(7), fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 3))

	ok, err := repo.RevokeAllForUser(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPostgres_DeleteExpired(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`(?s)^DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+expires_at\s*<=\s*\$1$`).
		WithArgs(fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestPostgres_DBErrorIsWrapped(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`(?s)^DELETE`).WillReturnError(errors.New("db down"))

	_, err := repo.DeleteExpired(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

const claimRe = `(?s)^UPDATE\s+refresh_tokens\s+SET\s+revoked_at\s*=\s*\$2\s+WHERE\s+token_hash\s*=\s*\$1\s+AND\s+revoked_at\s+IS\s+NULL\s+AND\s+expires_at\s*>\s*\$2\s+RETURNING\s+id,\s*user_id$`

func TestPostgres_Rotate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(claimRe).
		WithArgs(token.Hash("old"), fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}).AddRow(int64(10), int64(7)))
	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+refresh_tokens`).
		WithArgs(int64(7), sqlmock.AnyArg(), fixedNow.Add(time.Hour), sql.NullInt64{Int64: 10, Valid: true}, fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))
	mock.ExpectCommit()

	rot, err := repo.Rotate(context.Background(), "old")
	require.NoError(t, err)
	assert.Equal(t, int64(7), rot.UserID)
	assert.Equal(t, int64(10), rot.PreviousID)
	assert.Equal(t, int64(11), rot.Next.Record.ID)
	assert.NotEqual(t, "old", rot.Next.Token)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Rotate_LoserGetsConflict(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(claimRe).WithArgs(token.Hash("old"), fixedNow).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`(?s)^SELECT\s+rt\.revoked_at\s+IS\s+NOT\s+NULL`).
		WithArgs(token.Hash("old")).
		WillReturnRows(sqlmock.NewRows([]string{"revoked", "has_successor"}).AddRow(true, true))
	mock.ExpectRollback()

	_, err := repo.Rotate(context.Background(), "old")
	assert.ErrorIs(t, err, ErrAlreadyRotated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Rotate_UnknownOrExpired(t *testing.T) {
	cases := map[string]*sqlmock.Rows{
		"expired": sqlmock.NewRows([]string{"revoked", "has_successor"}).AddRow(false, false),
		"logout":  sqlmock.NewRows([]string{"revoked", "has_successor"}).AddRow(true, false),
	}
	for name, rows := range cases {
		t.Run(name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)
			mock.ExpectBegin()
			mock.ExpectQuery(claimRe).WillReturnError(sql.ErrNoRows)
			mock.ExpectQuery(`(?s)^SELECT\s+rt\.revoked_at`).WillReturnRows(rows)
			mock.ExpectRollback()

			_, err := repo.Rotate(context.Background(), "x")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}

	t.Run("missing", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(claimRe).WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(`(?s)^SELECT\s+rt\.revoked_at`).WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := repo.Rotate(context.Background(), "x")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
