package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFrom_FallsBackToGlobal(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := Replace(zap.New(core))
	defer restore()

	From(context.Background()).Info("hello")
	require.Equal(t, 1, logs.Len())
}

func TestEnrich_PropagatesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := ToContext(context.Background(), zap.New(core))

	ctx = Enrich(ctx, RequestID("r1"))
	ctx = Enrich(ctx, UserID(42), Role("admin"))
	From(ctx).Debug("authorized")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "r1", fields["request_id"])
	require.Equal(t, int64(42), fields["user_id"])
	require.Equal(t, "admin", fields["role"])
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	require.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	require.Equal(t, zapcore.InfoLevel, parseLevel("bogus"))
	require.Equal(t, zapcore.InfoLevel, parseLevel(""))
	require.Equal(t, zapcore.ErrorLevel, parseLevel("fatal"))
	require.Equal(t, zapcore.ErrorLevel, parseLevel("dpanic"))
}

func TestConfig_ZapConfig(t *testing.T) {
	prod := Config{Env: "production", Level: "warn", ServiceName: "gatekeeper", Version: "1.2.3"}.zapConfig()
	require.Equal(t, "json", prod.Encoding)
	require.Equal(t, zapcore.WarnLevel, prod.Level.Level())
	require.Equal(t, map[string]any{"service": "gatekeeper", "version": "1.2.3"}, prod.InitialFields)

	dev := Config{Env: "dev"}.zapConfig()
	require.Equal(t, "console", dev.Encoding)
	require.True(t, dev.DisableStacktrace)
	require.Nil(t, dev.InitialFields)

	forced := Config{Env: "dev", Format: "JSON"}.zapConfig()
	require.Equal(t, "json", forced.Encoding)
}

func TestBuild_NeverNil(t *testing.T) {
	require.NotNil(t, build(Config{Env: "prod", Level: "debug"}))
	require.NotNil(t, build(Config{}))
}

func TestConfig_IsProd(t *testing.T) {
	require.True(t, Config{Env: "production"}.isProd())
	require.True(t, Config{Env: " prod "}.isProd())
	require.False(t, Config{Env: "dev"}.isProd())
}

func TestMaskEmail(t *testing.T) {
	cases := []struct{ in, want string }{
		{"John.Doe@Example.com", "j…@e….com"},
		{"a@b.io", "a@b.io"},
		{"", ""},
		{"abc", "***"},
		{"nodomain", "n…n"},
	}
	for _, c := range cases {
		require.Equal(t, c.want, MaskEmail(c.in), c.in)
	}
	require.Equal(t, "j…@e….com", Email("john@example.com").String)
}
