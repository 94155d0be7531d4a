// Package jwt emite y verifica access tokens HS256 firmados con un único secreto.
//
// Decode nunca retorna error ni hace panic: un token inválido es un resultado
// esperado y se describe con un Reason. Los motivos sólo se loguean; la capa
// HTTP responde siempre el mismo 401.
package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// maxTokenLen acota el input antes de parsear.
const maxTokenLen = 8 << 10

// Config del codec.
type Config struct {
	Secret    []byte
	Issuer    string // vacío = no se valida "iss"
	AccessTTL time.Duration
}

// Codec firma y valida access tokens. Es seguro para uso concurrente.
type Codec struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
	parser *jwtv5.Parser
}

// Issued es un token recién firmado junto con sus claims.
type Issued struct {
	Token  string
	Claims Claims
}

// Option personaliza el Codec.
type Option func(*Codec)

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// NewCodec valida la configuración y construye el codec.
func NewCodec(cfg Config, opts ...Option) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("jwt: empty secret")
	}
	if cfg.AccessTTL <= 0 {
		return nil, errors.New("jwt: access ttl must be positive")
	}

	c := &Codec{
		secret: append([]byte(nil), cfg.Secret...),
		issuer: cfg.Issuer,
		ttl:    cfg.AccessTTL,
		now:    time.Now,
	}
	for _, o := range opts {
		o(c)
	}

	popts := []jwtv5.ParserOption{
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithIssuedAt(),
		jwtv5.WithTimeFunc(func() time.Time { return c.now() }),
	}
	if c.issuer != "" {
		popts = append(popts, jwtv5.WithIssuer(c.issuer))
	}
	c.parser = jwtv5.NewParser(popts...)

	return c, nil
}

// AccessTTL expone el TTL configurado (expires_in de las respuestas).
func (c *Codec) AccessTTL() time.Duration { return c.ttl }

// Issue firma un access token para subjectID con el rol dado.
// iat y exp tienen granularidad de segundos: exp = iat + ttl.
func (c *Codec) Issue(subjectID int64, role string) (Issued, error) {
	if subjectID <= 0 {
		return Issued{}, fmt.Errorf("jwt: invalid subject %d", subjectID)
	}
	if strings.TrimSpace(role) == "" {
		return Issued{}, errors.New("jwt: empty role")
	}

	iat := c.now().Truncate(time.Second)
	claims := Claims{
		SubjectID: subjectID,
		Role:      role,
		JTI:       uuid.NewString(),
		IssuedAt:  iat,
		ExpiresAt: iat.Add(c.ttl),
	}

	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims.wire(c.issuer))
	signed, err := tok.SignedString(c.secret)
	if err != nil {
		return Issued{}, fmt.Errorf("jwt: sign: %w", err)
	}
	return Issued{Token: signed, Claims: claims}, nil
}

// Decode valida firma, algoritmo, expiración y claims requeridos.
func (c *Codec) Decode(raw string) (res Result) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Result{Reason: ReasonEmpty}
	}
	if len(raw) > maxTokenLen || strings.Count(raw, ".") != 2 {
		return Result{Reason: ReasonMalformed}
	}

	// input hostil: un panic del parser se reporta como malformed
	defer func() {
		if r := recover(); r != nil {
			res = Result{Reason: ReasonMalformed}
		}
	}()

	var wc wireClaims
	_, err := c.parser.ParseWithClaims(raw, &wc, func(t *jwtv5.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return Result{Reason: reasonFor(err)}
	}

	claims, ok := wc.domain()
	if !ok {
		return Result{Reason: ReasonClaims}
	}
	return Result{Claims: &claims}
}

func reasonFor(err error) Reason {
	switch {
	case errors.Is(err, jwtv5.ErrTokenMalformed):
		return ReasonMalformed
	case errors.Is(err, jwtv5.ErrTokenSignatureInvalid), errors.Is(err, jwtv5.ErrTokenUnverifiable):
		return ReasonSignature
	case errors.Is(err, jwtv5.ErrTokenExpired):
		return ReasonExpired
	default:
		return ReasonClaims
	}
}
