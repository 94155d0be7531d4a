package apikey

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/gatekeeper/internal/cache"
	"github.com/dropDatabas3/gatekeeper/internal/security/token"
)

type countingRepo struct {
	Repository
	calls atomic.Int32
}

func (c *countingRepo) GetByHash(ctx context.Context, hash string) (*Key, error) {
	c.calls.Add(1)
	time.Sleep(5 * time.Millisecond)
	return c.Repository.GetByHash(ctx, hash)
}

func TestGenerate(t *testing.T) {
	raw, prefix, hash, err := Generate()
	require.NoError(t, err)
	assert.True(t, LooksValid(raw))
	assert.Equal(t, raw[:len(prefix)], prefix)
	assert.Equal(t, token.Hash(raw), hash)
	assert.False(t, LooksValid("nope"))
}

func TestResolver_CachesAndCollapses(t *testing.T) {
	mem := NewMemoryRepository()
	created, err := mem.Create(context.Background(), NewKey{Name: "svc", RateLimit: 10, Window: time.Minute})
	require.NoError(t, err)

	repo := &countingRepo{Repository: mem}
	r := NewResolver(repo, cache.NewMemory(""), time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			k, err := r.Resolve(context.Background(), created.Raw)
			assert.NoError(t, err)
			assert.Equal(t, created.Key.ID, k.ID)
		}()
	}
	wg.Wait()

	k, err := r.Resolve(context.Background(), created.Raw)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, k.Window)
	assert.LessOrEqual(t, repo.calls.Load(), int32(8))
	before := repo.calls.Load()

	_, err = r.Resolve(context.Background(), created.Raw)
	require.NoError(t, err)
	assert.Equal(t, before, repo.calls.Load(), "second lookup must be served from cache")
}

func TestResolver_UnknownAndInactive(t *testing.T) {
	mem := NewMemoryRepository()
	created, err := mem.Create(context.Background(), NewKey{Name: "svc"})
	require.NoError(t, err)
	r := NewResolver(mem, cache.NewMemory(""), time.Minute)

	_, err = r.Resolve(context.Background(), "gk_doesnotexist12345")
	assert.ErrorIs(t, err, ErrNotFound)
	// negativo cacheado
	_, err = r.Resolve(context.Background(), "gk_doesnotexist12345")
	assert.ErrorIs(t, err, ErrNotFound)

	mem.SetActive(created.Key.KeyHash, false)
	_, err = r.Resolve(context.Background(), created.Raw)
	assert.ErrorIs(t, err, ErrInactive)
}

func TestPostgres_GetByHash(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*name,.*FROM\s+api_keys\s+WHERE\s+key_hash\s*=\s*\$1$`).
		WithArgs("h").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "prefix", "key_hash", "is_active", "rate_limit", "window_seconds", "user_rate_limit", "ip_rate_limit", "created_at"}).
			AddRow(int64(1), "svc", "gk_abc", "h", true, int64(100), int64(60), int64(10), int64(20), time.Now()))

	k, err := NewPostgresRepository(db).GetByHash(context.Background(), "h")
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, k.Window)
	assert.Equal(t, int64(10), k.UserRateLimit)
}
