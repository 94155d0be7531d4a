// Package pipeline orquesta los gates de cada request:
//
//	Received -> RateChecked -> Authenticated -> Authorized -> Dispatched
//
// o Rejected en el primer gate que falla. El orden es fijo: el rate limit
// corre antes de autenticar (un flood sin credenciales se corta barato), la
// revocación es parte de la autenticación y el rol se evalúa al final.
//
// El pipeline no reintenta: una falla de cache se resuelve según la política
// configurada (fail closed -> 503).
package pipeline

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/dropDatabas3/gatekeeper/internal/authz"
	"github.com/dropDatabas3/gatekeeper/internal/jwt"
	"github.com/dropDatabas3/gatekeeper/internal/metrics"
	"github.com/dropDatabas3/gatekeeper/internal/observability/logger"
	"github.com/dropDatabas3/gatekeeper/internal/rate"
	"github.com/dropDatabas3/gatekeeper/internal/store/apikey"
)

// RouteClass elige la política de rate limit de una ruta.
type RouteClass int

const (
	// ClassGeneral: política general (IP [+ usuario]).
	ClassGeneral RouteClass = iota
	// ClassAuth: endpoints de credenciales (login, register, refresh); sólo IP.
	ClassAuth
)

// Route describe qué exige una ruta.
type Route struct {
	Class        RouteClass
	Protected    bool
	RequiredRole string
}

// Request son los datos del request que consumen los gates.
type Request struct {
	IP            string
	Authorization string
	APIKey        string
}

// Policies de rate limit por clase de ruta.
type Policies struct {
	General rate.Policy
	Auth    rate.Policy
}

// TokenDecoder decodifica access tokens (jwt.Codec).
type TokenDecoder interface {
	Decode(raw string) jwt.Result
}

// RevocationChecker consulta la lista de revocación (revocation.Store).
type RevocationChecker interface {
	Check(ctx context.Context, c jwt.Claims) (bool, error)
}

// KeyResolver resuelve API keys (apikey.Resolver).
type KeyResolver interface {
	Resolve(ctx context.Context, raw string) (*apikey.Key, error)
}

// Authorizer compara roles (authz.Hierarchy).
type Authorizer interface {
	Authorize(caller, required string) authz.Decision
}

// Gate agrupa los colaboradores del pipeline. Limiter nil desactiva el
// rate limit; APIKeys nil ignora el header de API key.
type Gate struct {
	Limiter      rate.Limiter
	Policies     Policies
	Tiered       *rate.Tiered
	APIKeys      KeyResolver
	Codec        TokenDecoder
	Revocations  RevocationChecker
	Authorizer   Authorizer
	RateFailOpen bool
}

// bearer extrae el token de "Authorization: Bearer <token>".
func bearer(h string) (string, bool) {
	h = strings.TrimSpace(h)
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(h[7:])
	return raw, raw != ""
}

// Evaluate corre los gates en orden y corta en el primer rechazo.
func (g *Gate) Evaluate(ctx context.Context, req Request, route Route) Outcome {
	log := logger.From(ctx).With(logger.Component("pipeline"), logger.ClientIP(req.IP))
	out := Outcome{State: StateReceived}

	// El token se decodifica una sola vez: sin I/O, y el identificador de la
	// política general necesita el usuario si lo hay.
	raw, hasBearer := bearer(req.Authorization)
	var decoded jwt.Result
	if hasBearer {
		decoded = g.Codec.Decode(raw)
	}

	// ---- rate ----
	key, d := g.checkRate(ctx, log, req, route, decoded, &out)
	if d != nil {
		return reject(out, d)
	}
	out.State = StateRateChecked

	if !route.Protected && route.RequiredRole == "" {
		out.State = StateDispatched
		return out
	}

	// ---- authn ----
	if !hasBearer {
		return reject(out, g.unauthenticated(log, "missing_bearer"))
	}
	if !decoded.Valid() {
		return reject(out, g.unauthenticated(log, decoded.Reason.String()))
	}
	claims := *decoded.Claims

	revoked, err := g.Revocations.Check(ctx, claims)
	if err != nil {
		return reject(out, g.unavailable(log, GateAuthN, "revocation", err))
	}
	if revoked {
		return reject(out, g.unauthenticated(log, "revoked", logger.JTI(claims.JTI)))
	}

	id := &Identity{
		UserID:    claims.SubjectID,
		Role:      claims.Role,
		JTI:       claims.JTI,
		ExpiresAt: claims.ExpiresAt,
	}
	if key != nil {
		kid := key.ID
		id.APIKeyID = &kid

		res, err := g.Tiered.AllowUser(ctx, *key, claims.SubjectID)
		if d := g.rateDecision(log, res, err); d != nil {
			return reject(out, d)
		}
		if err == nil {
			out.Rate = rate.Tighter(out.Rate, &res)
		}
	}
	id.RateLimit = out.Rate
	out.Identity = id
	out.State = StateAuthenticated
	metrics.Decision(GateAuthN, metrics.OutcomeAllow)

	// ---- authz ----
	if route.RequiredRole != "" {
		switch g.Authorizer.Authorize(claims.Role, route.RequiredRole) {
		case authz.DecisionAllow:
		case authz.DecisionUnauthenticated:
			return reject(out, g.unauthenticated(log, "missing_role"))
		default:
			metrics.Decision(GateAuthZ, metrics.OutcomeDeny)
			log.Info("insufficient role",
				logger.Gate(GateAuthZ), logger.UserID(claims.SubjectID),
				logger.Role(claims.Role), logger.String("required_role", route.RequiredRole))
			return reject(out, &Denial{Kind: DenialForbidden, Gate: GateAuthZ, Reason: "insufficient_role"})
		}
		metrics.Decision(GateAuthZ, metrics.OutcomeAllow)
		out.State = StateAuthorized
	}

	out.State = StateDispatched
	return out
}

// checkRate aplica el rate limit de la ruta. Con API key corren los scopes
// tiered; las rutas de credenciales pasan además por la política auth, con o
// sin key. Gana la primera denegación. Retorna la key resuelta para el
// sub-límite por usuario.
func (g *Gate) checkRate(ctx context.Context, log *zap.Logger, req Request, route Route, decoded jwt.Result, out *Outcome) (*apikey.Key, *Denial) {
	var key *apikey.Key
	if req.APIKey != "" && g.APIKeys != nil && g.Tiered != nil {
		k, err := g.APIKeys.Resolve(ctx, req.APIKey)
		switch {
		case errors.Is(err, apikey.ErrNotFound), errors.Is(err, apikey.ErrInactive):
			metrics.Decision(GateRate, metrics.OutcomeDeny)
			log.Info("api key rejected", logger.Gate(GateRate), logger.Reason(err.Error()))
			return nil, &Denial{Kind: DenialInvalidAPIKey, Gate: GateRate, Reason: err.Error()}
		case err != nil:
			return nil, g.unavailable(log, GateRate, "apikey", err)
		}
		key = k
	}

	if g.Limiter != nil && (key == nil || route.Class == ClassAuth) {
		var (
			policy rate.Policy
			ident  string
		)
		if route.Class == ClassAuth {
			policy, ident = g.Policies.Auth, rate.AuthIdentifier(req.IP)
		} else {
			var uid int64
			if decoded.Valid() {
				uid = decoded.Claims.SubjectID
			}
			policy, ident = g.Policies.General, rate.GeneralIdentifier(req.IP, uid)
		}

		res, err := g.Limiter.Allow(ctx, policy, ident)
		if d := g.rateDecision(log, res, err); d != nil {
			return nil, d
		}
		if err == nil {
			out.Rate = &res
		}
	}

	if key != nil {
		res, err := g.Tiered.AllowRequest(ctx, *key, req.IP)
		if d := g.rateDecision(log, res, err); d != nil {
			return nil, d
		}
		if err == nil {
			out.Rate = rate.Tighter(out.Rate, &res)
		}
	}
	return key, nil
}

// rateDecision traduce el resultado de un Allow. Con err != nil y fail open
// retorna nil (el request sigue sin headers de rate limit).
func (g *Gate) rateDecision(log *zap.Logger, res rate.Result, err error) *Denial {
	if err != nil {
		if g.RateFailOpen {
			metrics.Infra("rate")
			log.Error("rate limiter unavailable, failing open", logger.Gate(GateRate), logger.Err(err))
			return nil
		}
		return g.unavailable(log, GateRate, "rate", err)
	}
	metrics.RateLimit(res.Policy, res.Allowed)
	if !res.Allowed {
		metrics.Decision(GateRate, metrics.OutcomeDeny)
		log.Info("rate limit exceeded",
			logger.Gate(GateRate), logger.Policy(res.Policy),
			logger.Int64("retry_after", res.RetryAfterSeconds()))
		r := res
		return &Denial{Kind: DenialRateLimited, Gate: GateRate, Reason: "limit_exceeded", Rate: &r}
	}
	metrics.Decision(GateRate, metrics.OutcomeAllow)
	return nil
}

func (g *Gate) unauthenticated(log *zap.Logger, reason string, fields ...zap.Field) *Denial {
	metrics.Decision(GateAuthN, metrics.OutcomeDeny)
	log.Debug("authentication rejected", append(fields, logger.Gate(GateAuthN), logger.Reason(reason))...)
	return &Denial{Kind: DenialUnauthenticated, Gate: GateAuthN, Reason: reason}
}

func (g *Gate) unavailable(log *zap.Logger, gate, component string, err error) *Denial {
	metrics.Decision(gate, metrics.OutcomeUnavailable)
	metrics.Infra(component)
	log.Error("gate dependency unavailable",
		logger.Gate(gate), logger.String("dependency", component), logger.Err(err))
	return &Denial{Kind: DenialUnavailable, Gate: gate, Reason: component + "_unavailable", Err: err}
}

func reject(out Outcome, d *Denial) Outcome {
	out.State = StateRejected
	out.Denial = d
	out.Identity = nil
	return out
}
