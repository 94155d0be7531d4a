package jwt

import (
	"strconv"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Claims son los datos de identidad de un access token ya verificado.
type Claims struct {
	SubjectID int64
	Role      string
	JTI       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Remaining es la vida útil que le queda al token (0 si ya expiró).
func (c Claims) Remaining(now time.Time) time.Duration {
	if d := c.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Reason describe por qué un token no es válido.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonEmpty
	ReasonMalformed
	ReasonSignature
	ReasonExpired
	ReasonClaims
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonEmpty:
		return "empty"
	case ReasonMalformed:
		return "malformed"
	case ReasonSignature:
		return "signature"
	case ReasonExpired:
		return "expired"
	case ReasonClaims:
		return "claims"
	default:
		return "unknown"
	}
}

// Result de Decode: Claims != nil sii Reason == ReasonNone.
type Result struct {
	Claims *Claims
	Reason Reason
}

func (r Result) Valid() bool { return r.Reason == ReasonNone && r.Claims != nil }

// wireClaims es la forma JSON del payload. "sub" es numérico.
type wireClaims struct {
	Sub  int64  `json:"sub"`
	Role string `json:"role"`
	jwtv5.RegisteredClaims
}

func (w wireClaims) GetSubject() (string, error) {
	return strconv.FormatInt(w.Sub, 10), nil
}

func (c Claims) wire(issuer string) wireClaims {
	return wireClaims{
		Sub:  c.SubjectID,
		Role: c.Role,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        c.JTI,
			Issuer:    issuer,
			IssuedAt:  jwtv5.NewNumericDate(c.IssuedAt),
			ExpiresAt: jwtv5.NewNumericDate(c.ExpiresAt),
		},
	}
}

func (w wireClaims) domain() (Claims, bool) {
	if w.Sub <= 0 || w.Role == "" || w.ID == "" || w.IssuedAt == nil || w.ExpiresAt == nil {
		return Claims{}, false
	}
	return Claims{
		SubjectID: w.Sub,
		Role:      w.Role,
		JTI:       w.ID,
		IssuedAt:  w.IssuedAt.Time,
		ExpiresAt: w.ExpiresAt.Time,
	}, true
}
