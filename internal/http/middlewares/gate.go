package middlewares

import (
	"net/http"
	"strconv"

	"github.com/dropDatabas3/gatekeeper/internal/http/errors"
	"github.com/dropDatabas3/gatekeeper/internal/observability/logger"
	"github.com/dropDatabas3/gatekeeper/internal/pipeline"
	"github.com/dropDatabas3/gatekeeper/internal/rate"
)

// APIKeyHeader es el header del que se lee la API key.
const APIKeyHeader = "X-API-Key"

// wwwAuthenticate es idéntico para todo 401: el cliente no distingue
// token ausente, vencido o revocado.
const wwwAuthenticate = `Bearer realm="gatekeeper", error="invalid_token"`

// WithGate corre el pipeline para route. Si pasa, adjunta la identidad al
// contexto y despacha; si no, escribe la denegación estructurada.
func WithGate(g *pipeline.Gate, ips *ClientIP, route pipeline.Route) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			out := g.Evaluate(ctx, pipeline.Request{
				IP:            ips.Resolve(r),
				Authorization: r.Header.Get("Authorization"),
				APIKey:        r.Header.Get(APIKeyHeader),
			}, route)

			if out.Rate != nil {
				setRateHeaders(w, out.Rate)
			}
			if out.Denial != nil {
				annotate(ctx, logger.Gate(out.Denial.Gate), logger.Reason(out.Denial.Reason))
				writeDenial(w, out.Denial)
				return
			}

			if id := out.Identity; id != nil {
				fields := []logger.Field{logger.UserID(id.UserID), logger.Role(id.Role)}
				if id.APIKeyID != nil {
					fields = append(fields, logger.APIKeyID(*id.APIKeyID))
				}
				annotate(ctx, fields...)
				ctx = pipeline.WithIdentity(logger.Enrich(ctx, fields...), id)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resetUnix(res *rate.Result) int64 {
	ms := res.ResetAt.UnixMilli()
	return (ms + 999) / 1000
}

func setRateHeaders(w http.ResponseWriter, res *rate.Result) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.FormatInt(res.Limit, 10))
	h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(resetUnix(res), 10))
}

func writeDenial(w http.ResponseWriter, d *pipeline.Denial) {
	switch d.Kind {
	case pipeline.DenialRateLimited:
		setRateHeaders(w, d.Rate)
		w.Header().Set("X-RateLimit-Remaining", "0")
		retry := d.RetryAfter()
		w.Header().Set("Retry-After", strconv.FormatInt(retry, 10))
		errors.WriteError(w, errors.ErrRateLimitExceeded.
			WithRetryAfter(retry).
			WithFields(map[string]any{"rate_limit": map[string]any{
				"policy":    d.Rate.Policy,
				"limit":     d.Rate.Limit,
				"remaining": 0,
				"reset":     resetUnix(d.Rate),
			}}))
	case pipeline.DenialUnauthenticated:
		w.Header().Set("WWW-Authenticate", wwwAuthenticate)
		errors.WriteError(w, errors.ErrUnauthorized)
	case pipeline.DenialInvalidAPIKey:
		errors.WriteError(w, errors.ErrInvalidAPIKey)
	case pipeline.DenialForbidden:
		errors.WriteError(w, errors.ErrForbidden)
	default:
		errors.WriteError(w, errors.ErrServiceUnavailable.WithCause(d.Err))
	}
}
