package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", "/"},
		{"/", "/"},
		{"/health", "/health"},
		{"/api/v1/users/42", "/api/v1/users/:param"},
		{"/api/v1/users/42?x=1", "/api/v1/users/:param"},
		{"/keys/0123456789abcdef01", "/keys/:param"},
		{"/u/8c1f7e2a-9b3d-4c5e-a6f7-0123456789ab/me", "/u/:param/me"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NormalizePath(c.in), c.in)
	}
}

func TestRegister_IsIdempotentAndExposes(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))
	require.NoError(t, Register(reg))

	ObserveHTTP("get", "/api/v1/users/7", 200, 15*time.Millisecond)
	Decision("authn", OutcomeDeny)
	RateLimit("auth", false)
	Infra("cache")
	Rotation("conflict")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	out := string(body)
	assert.Contains(t, out, `gatekeeper_http_requests_total{method="GET",path="/api/v1/users/:param",status="200"}`)
	assert.Contains(t, out, `gatekeeper_pipeline_decisions_total{gate="authn",outcome="deny"}`)
	assert.Contains(t, out, `gatekeeper_rate_limit_hits_total{policy="auth",result="denied"}`)
	assert.Contains(t, out, `gatekeeper_infra_errors_total{component="cache"}`)
	assert.Contains(t, out, `gatekeeper_refresh_rotations_total{result="conflict"}`)
}
