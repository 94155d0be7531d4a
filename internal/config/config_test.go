package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("APP_ENV", "dev")

	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, int64(60), c.Rate.General.Limit)
	assert.Equal(t, 60*time.Second, c.Rate.General.Window.Duration)
	assert.Equal(t, int64(5), c.Rate.Auth.Limit)
	assert.Equal(t, 900*time.Second, c.Rate.Auth.Window.Duration)
	assert.Equal(t, FailClosed, c.Security.RevocationFailMode)
	assert.Equal(t, map[string]int{"user": 0, "admin": 10}, c.Roles)
	assert.True(t, c.JWT.EphemeralSecret)
	assert.GreaterOrEqual(t, len(c.JWT.Secret), MinSecretLen)
}

func TestLoad_YAMLThenEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `
app:
  env: prod
jwt:
  secret: "` + testSecret + `"
  access_ttl: 10m
rate:
  auth:
    limit: 3
    window: 5m
roles:
  user: 0
  editor: 5
  admin: 10
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv("AUTH_RATE_LIMIT_REQUESTS", "7")
	t.Setenv("RATE_LIMIT_WINDOW", "30")
	t.Setenv("REVOCATION_FAIL_MODE", "OPEN")

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Minute, c.JWT.AccessTTL.Duration)
	assert.Equal(t, int64(7), c.Rate.Auth.Limit)
	assert.Equal(t, 5*time.Minute, c.Rate.Auth.Window.Duration)
	assert.Equal(t, 30*time.Second, c.Rate.General.Window.Duration)
	assert.Equal(t, FailOpen, c.Security.RevocationFailMode)
	assert.Equal(t, 5, c.Roles["editor"])
	assert.False(t, c.JWT.EphemeralSecret)
}

func TestLoad_ProdRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("JWT_SECRET", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt.secret")
}

func TestLoad_InvalidFailMode(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("RATE_FAIL_MODE", "sometimes")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "security.rate_fail_mode")
}

func TestLoad_BadDurationInYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("jwt:\n  access_ttl: soon\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_RolesFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("ROLES", "user=0, support=3 ,admin=10")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"user": 0, "support": 3, "admin": 10}, c.Roles)
}

func TestLoad_LogFormat(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("LOG_FORMAT", "JSON")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "json", c.Log.Format)

	t.Setenv("LOG_FORMAT", "xml")
	_, err = Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.format")
}
