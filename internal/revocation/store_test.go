package revocation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/gatekeeper/internal/cache"
	"github.com/dropDatabas3/gatekeeper/internal/jwt"
)

func newRedisStore(t *testing.T, mode FailMode, now time.Time) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	s := New(cache.NewRedisFromClient(rdb, ""), Options{
		FailMode:      mode,
		UserCutoffTTL: 15 * time.Minute,
		Now:           func() time.Time { return now },
	})
	return s, mr
}

func TestRevoke_TTLMatchesRemainingLife(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, mr := newRedisStore(t, FailClosed, now)
	ctx := context.Background()

	require.NoError(t, s.Revoke(ctx, "jti-1", now.Add(10*time.Minute)))
	assert.Equal(t, 10*time.Minute, mr.TTL("revoked:jti:jti-1"))

	revoked, err := s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(10*time.Minute + time.Second)
	revoked, err = s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevoke_EntryDoesNotOutliveToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 500*int(time.Millisecond), time.UTC)
	s, mr := newRedisStore(t, FailClosed, now)
	ctx := context.Background()
	exp := now.Truncate(time.Second).Add(10 * time.Minute)

	require.NoError(t, s.Revoke(ctx, "jti-frac", exp))
	assert.Equal(t, 10*time.Minute-500*time.Millisecond, mr.TTL("revoked:jti:jti-frac"))

	mr.FastForward(10*time.Minute - 500*time.Millisecond)
	revoked, err := s.IsRevoked(ctx, "jti-frac")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestCeilMilli(t *testing.T) {
	assert.Equal(t, time.Duration(0), ceilMilli(-time.Second))
	assert.Equal(t, time.Millisecond, ceilMilli(time.Microsecond))
	assert.Equal(t, 1500*time.Millisecond, ceilMilli(1500*time.Millisecond))
	assert.Equal(t, 1501*time.Millisecond, ceilMilli(1500*time.Millisecond+time.Nanosecond))
}

func TestRevoke_AlreadyExpiredIsNoop(t *testing.T) {
	now := time.Now()
	s, mr := newRedisStore(t, FailClosed, now)

	require.NoError(t, s.Revoke(context.Background(), "old", now.Add(-time.Second)))
	require.NoError(t, s.Revoke(context.Background(), "edge", now))
	assert.False(t, mr.Exists("revoked:jti:old"))
	assert.False(t, mr.Exists("revoked:jti:edge"))
}

func TestRevoke_Idempotent(t *testing.T) {
	now := time.Now()
	s, mr := newRedisStore(t, FailClosed, now)
	ctx := context.Background()

	require.NoError(t, s.Revoke(ctx, "dup", now.Add(time.Minute)))
	require.NoError(t, s.Revoke(ctx, "dup", now.Add(time.Minute)))
	assert.Len(t, mr.Keys(), 1)
}

func TestIsRevoked_ExactMatch(t *testing.T) {
	now := time.Now()
	s, _ := newRedisStore(t, FailClosed, now)
	ctx := context.Background()

	require.NoError(t, s.Revoke(ctx, "abc-123", now.Add(time.Minute)))
	for _, probe := range []string{"abc", "ABC-123", "abc-1234", ""} {
		revoked, err := s.IsRevoked(ctx, probe)
		require.NoError(t, err)
		assert.False(t, revoked, probe)
	}
}

func TestIsRevoked_FailClosed(t *testing.T) {
	s, mr := newRedisStore(t, FailClosed, time.Now())
	mr.Close()

	revoked, err := s.IsRevoked(context.Background(), "any")
	assert.True(t, revoked)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestIsRevoked_FailOpen(t *testing.T) {
	s, mr := newRedisStore(t, FailOpen, time.Now())
	mr.Close()

	revoked, err := s.IsRevoked(context.Background(), "any")
	assert.False(t, revoked)
	assert.NoError(t, err)
}

func TestCheck_UserCutoff(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, _ := newRedisStore(t, FailClosed, now)
	ctx := context.Background()

	before := jwt.Claims{SubjectID: 9, JTI: "a", IssuedAt: now.Add(-time.Minute)}
	after := jwt.Claims{SubjectID: 9, JTI: "b", IssuedAt: now.Add(time.Minute)}
	otherUser := jwt.Claims{SubjectID: 10, JTI: "c", IssuedAt: now.Add(-time.Minute)}

	require.NoError(t, s.RevokeUser(ctx, 9, now))

	revoked, err := s.Check(ctx, before)
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = s.Check(ctx, after)
	require.NoError(t, err)
	assert.False(t, revoked)

	revoked, err = s.Check(ctx, otherUser)
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestMemoryBackend(t *testing.T) {
	s := New(cache.NewMemory(""), Options{UserCutoffTTL: time.Minute})
	ctx := context.Background()

	require.NoError(t, s.Revoke(ctx, "m1", time.Now().Add(time.Minute)))
	revoked, err := s.IsRevoked(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestParseFailMode(t *testing.T) {
	m, err := ParseFailMode("open")
	require.NoError(t, err)
	assert.Equal(t, FailOpen, m)
	m, err = ParseFailMode("closed")
	require.NoError(t, err)
	assert.Equal(t, FailClosed, m)
	_, err = ParseFailMode("maybe")
	assert.Error(t, err)
}
