package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/gatekeeper/internal/config"
)

func loadConfig(t *testing.T, env map[string]string) *config.Config {
	t.Helper()
	t.Setenv("APP_ENV", "test")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("CACHE_KIND", "memory")
	t.Setenv("BCRYPT_COST", "4")
	for k, v := range env {
		t.Setenv(k, v)
	}
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestBuild_MemoryServesHealthAndMetrics(t *testing.T) {
	c, err := Build(context.Background(), loadConfig(t, nil), Options{Version: "test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	rec := httptest.NewRecorder()
	c.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-Service-Version"))

	rec = httptest.NewRecorder()
	c.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gatekeeper_http_requests_total")
}

func TestBuild_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := loadConfig(t, map[string]string{"CACHE_KIND": "redis", "REDIS_ADDR": mr.Addr(), "METRICS_ENABLED": "false"})

	c, err := Build(context.Background(), cfg, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	assert.NotNil(t, c.Gate.Limiter)
	assert.Nil(t, c.Registry)

	rec := httptest.NewRecorder()
	c.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBuild_RateDisabled(t *testing.T) {
	c, err := Build(context.Background(), loadConfig(t, map[string]string{"RATE_ENABLED": "false"}), Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	assert.Nil(t, c.Gate.Limiter)
	assert.Nil(t, c.Gate.Tiered)
}

func TestBuild_SkipHTTP(t *testing.T) {
	c, err := Build(context.Background(), loadConfig(t, nil), Options{SkipHTTP: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	assert.Nil(t, c.Handler)
	assert.NotNil(t, c.Revocations)
	assert.NotNil(t, c.Users)
}
