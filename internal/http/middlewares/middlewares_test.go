package middlewares

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/gatekeeper/internal/authz"
	"github.com/dropDatabas3/gatekeeper/internal/cache"
	"github.com/dropDatabas3/gatekeeper/internal/jwt"
	"github.com/dropDatabas3/gatekeeper/internal/pipeline"
	"github.com/dropDatabas3/gatekeeper/internal/rate"
	"github.com/dropDatabas3/gatekeeper/internal/revocation"
)

func TestChain_Order(t *testing.T) {
	var order []string
	mk := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { order = append(order, "h") }),
		mk("a"), nil, mk("b"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"a", "b", "h"}, order)
}

func TestClientIP(t *testing.T) {
	ips, err := NewClientIP([]string{"10.0.0.0/8", "192.168.1.1"})
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.9:5555"
	r.Header.Set("X-Forwarded-For", "1.2.3.4")
	assert.Equal(t, "203.0.113.9", ips.Resolve(r), "untrusted peer cannot spoof XFF")

	r.RemoteAddr = "10.1.2.3:5555"
	r.Header.Set("X-Forwarded-For", "9.9.9.9, 1.2.3.4, 192.168.1.1")
	assert.Equal(t, "1.2.3.4", ips.Resolve(r))

	r.Header.Del("X-Forwarded-For")
	assert.Equal(t, "10.1.2.3", ips.Resolve(r))

	var none *ClientIP
	assert.Equal(t, "10.1.2.3", none.Resolve(r))

	_, err = NewClientIP([]string{"not-an-ip"})
	assert.Error(t, err)
}

func TestWithRequestID(t *testing.T) {
	var seen string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}), WithRequestID())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "abc", seen)
}

func TestWithRecover(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }), WithRecover())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func newGate(t *testing.T) (*pipeline.Gate, *jwt.Codec) {
	t.Helper()
	c := cache.NewMemory("")
	codec, err := jwt.NewCodec(jwt.Config{Secret: []byte("0123456789abcdef0123456789abcdef"), AccessTTL: time.Minute})
	require.NoError(t, err)
	return &pipeline.Gate{
		Limiter: rate.NewCacheLimiter(c),
		Policies: pipeline.Policies{
			General: rate.Policy{Name: rate.PolicyGeneral, Limit: 60, Window: time.Minute},
			Auth:    rate.Policy{Name: rate.PolicyAuth, Limit: 1, Window: 900 * time.Second},
		},
		Codec:       codec,
		Revocations: revocation.New(c, revocation.Options{UserCutoffTTL: time.Minute}),
		Authorizer:  authz.DefaultHierarchy(),
	}, codec
}

func TestWithGate_DenialsAndIdentity(t *testing.T) {
	g, codec := newGate(t)
	var got *pipeline.Identity
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = pipeline.IdentityFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	admin := Chain(ok, WithGate(g, nil, pipeline.Route{Protected: true, RequiredRole: "admin"}))

	rec := httptest.NewRecorder()
	admin.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, wwwAuthenticate, rec.Header().Get("WWW-Authenticate"))
	assert.Equal(t, "59", rec.Header().Get("X-RateLimit-Remaining"))

	iss, err := codec.Issue(3, "user")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+iss.Token)
	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Insufficient permissions", body["message"])

	iss, err = codec.Issue(4, "admin")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+iss.Token)
	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, int64(4), got.UserID)
}

func TestWithGate_RateLimitedResponse(t *testing.T) {
	g, _ := newGate(t)
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), WithGate(g, nil, pipeline.Route{Class: pipeline.ClassAuth}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "900", rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, float64(429), body["code"])
	assert.Equal(t, float64(900), body["retry_after"])
	assert.Contains(t, body["errors"], "rate_limit")
}
