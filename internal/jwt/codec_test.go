package jwt

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCodec(t *testing.T, clk *fakeClock) *Codec {
	t.Helper()
	c, err := NewCodec(Config{Secret: testSecret, Issuer: "gatekeeper", AccessTTL: 15 * time.Minute}, WithClock(clk.Now))
	require.NoError(t, err)
	return c
}

func TestIssueDecode_RoundTrip(t *testing.T) {
	clk := &fakeClock{t: time.Date(2026, 1, 1, 10, 0, 0, 700_000_000, time.UTC)}
	c := newTestCodec(t, clk)

	iss, err := c.Issue(42, "admin")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(iss.Token, ".")+1)
	assert.NotEmpty(t, iss.Claims.JTI)
	assert.Equal(t, time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC), iss.Claims.IssuedAt)
	assert.Equal(t, iss.Claims.IssuedAt.Add(15*time.Minute), iss.Claims.ExpiresAt)

	res := c.Decode(iss.Token)
	require.True(t, res.Valid(), "reason=%s", res.Reason)
	assert.Equal(t, int64(42), res.Claims.SubjectID)
	assert.Equal(t, "admin", res.Claims.Role)
	assert.Equal(t, iss.Claims.JTI, res.Claims.JTI)
	assert.True(t, iss.Claims.ExpiresAt.Equal(res.Claims.ExpiresAt))
}

func TestIssue_UniqueJTI(t *testing.T) {
	clk := &fakeClock{t: time.Now()}
	c := newTestCodec(t, clk)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		iss, err := c.Issue(1, "user")
		require.NoError(t, err)
		require.False(t, seen[iss.Claims.JTI])
		seen[iss.Claims.JTI] = true
	}
}

func TestDecode_ExpiryIsExact(t *testing.T) {
	clk := &fakeClock{t: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)}
	c := newTestCodec(t, clk)
	iss, err := c.Issue(7, "user")
	require.NoError(t, err)

	clk.Advance(15*time.Minute - time.Second)
	assert.True(t, c.Decode(iss.Token).Valid())

	// exp == now ya es expirado
	clk.Advance(time.Second)
	res := c.Decode(iss.Token)
	assert.False(t, res.Valid())
	assert.Equal(t, ReasonExpired, res.Reason)
	assert.Nil(t, res.Claims)
}

func TestDecode_RejectsTampering(t *testing.T) {
	clk := &fakeClock{t: time.Now()}
	c := newTestCodec(t, clk)
	iss, err := c.Issue(7, "user")
	require.NoError(t, err)

	parts := strings.Split(iss.Token, ".")
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	forged := strings.Replace(string(payload), `"role":"user"`, `"role":"admin"`, 1)
	require.NotEqual(t, string(payload), forged)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(forged))

	res := c.Decode(strings.Join(parts, "."))
	assert.Equal(t, ReasonSignature, res.Reason)
}

func TestDecode_WrongSecret(t *testing.T) {
	clk := &fakeClock{t: time.Now()}
	c := newTestCodec(t, clk)
	other, err := NewCodec(Config{Secret: []byte("another-secret-another-secret-xx"), Issuer: "gatekeeper", AccessTTL: time.Minute}, WithClock(clk.Now))
	require.NoError(t, err)

	iss, err := other.Issue(1, "user")
	require.NoError(t, err)
	assert.Equal(t, ReasonSignature, c.Decode(iss.Token).Reason)
}

func TestDecode_RejectsOtherAlgorithms(t *testing.T) {
	clk := &fakeClock{t: time.Now()}
	c := newTestCodec(t, clk)

	claims := wireClaims{
		Sub:  1,
		Role: "admin",
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        "x",
			Issuer:    "gatekeeper",
			IssuedAt:  jwtv5.NewNumericDate(clk.Now()),
			ExpiresAt: jwtv5.NewNumericDate(clk.Now().Add(time.Hour)),
		},
	}

	hs512, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS512, claims).SignedString(testSecret)
	require.NoError(t, err)
	assert.Equal(t, ReasonSignature, c.Decode(hs512).Reason)

	none, err := jwtv5.NewWithClaims(jwtv5.SigningMethodNone, claims).SignedString(jwtv5.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	assert.False(t, c.Decode(none).Valid())
}

func TestDecode_MissingClaims(t *testing.T) {
	clk := &fakeClock{t: time.Now()}
	c := newTestCodec(t, clk)

	claims := wireClaims{
		Sub: 1,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        "x",
			Issuer:    "gatekeeper",
			IssuedAt:  jwtv5.NewNumericDate(clk.Now()),
			ExpiresAt: jwtv5.NewNumericDate(clk.Now().Add(time.Hour)),
		},
	}
	tok, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	assert.Equal(t, ReasonClaims, c.Decode(tok).Reason)
}

func TestDecode_WrongIssuer(t *testing.T) {
	clk := &fakeClock{t: time.Now()}
	c := newTestCodec(t, clk)
	other, err := NewCodec(Config{Secret: testSecret, Issuer: "someone-else", AccessTTL: time.Minute}, WithClock(clk.Now))
	require.NoError(t, err)

	iss, err := other.Issue(1, "user")
	require.NoError(t, err)
	assert.Equal(t, ReasonClaims, c.Decode(iss.Token).Reason)
}

func TestDecode_GarbageNeverPanics(t *testing.T) {
	c := newTestCodec(t, &fakeClock{t: time.Now()})

	inputs := []string{
		"", "   ", ".", "..", "a.b.c", "Bearer x.y.z", "eyJhbGciOiJIUzI1NiJ9..",
		"eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJ4In0.sig",
		strings.Repeat("a", maxTokenLen+1),
		"\x00\x01\x02.\xff\xfe.\x80",
	}
	for _, in := range inputs {
		res := c.Decode(in)
		assert.False(t, res.Valid(), "input %q", in)
		assert.NotEqual(t, ReasonNone, res.Reason)
	}
	assert.Equal(t, ReasonEmpty, c.Decode("").Reason)
}

func TestNewCodec_Validation(t *testing.T) {
	_, err := NewCodec(Config{AccessTTL: time.Minute})
	require.Error(t, err)
	_, err = NewCodec(Config{Secret: testSecret})
	require.Error(t, err)
}

func TestIssue_Validation(t *testing.T) {
	c := newTestCodec(t, &fakeClock{t: time.Now()})
	_, err := c.Issue(0, "user")
	require.Error(t, err)
	_, err = c.Issue(1, " ")
	require.Error(t, err)
}

func TestClaims_Remaining(t *testing.T) {
	now := time.Now()
	c := Claims{ExpiresAt: now.Add(90 * time.Second)}
	assert.Equal(t, 90*time.Second, c.Remaining(now))
	assert.Equal(t, time.Duration(0), c.Remaining(now.Add(2*time.Minute)))
}
