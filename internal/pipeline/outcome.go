package pipeline

import (
	"net/http"
	"time"

	"github.com/dropDatabas3/gatekeeper/internal/rate"
)

// State es la etapa alcanzada por un request dentro del pipeline.
type State int

const (
	StateReceived State = iota
	StateRateChecked
	StateAuthenticated
	StateAuthorized
	StateDispatched
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateRateChecked:
		return "rate_checked"
	case StateAuthenticated:
		return "authenticated"
	case StateAuthorized:
		return "authorized"
	case StateDispatched:
		return "dispatched"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Nombres de gate (logs y métricas).
const (
	GateRate  = "rate"
	GateAuthN = "authn"
	GateAuthZ = "authz"
)

// DenialKind clasifica un rechazo; cada tipo tiene un status HTTP fijo.
type DenialKind int

const (
	DenialUnauthenticated DenialKind = iota + 1
	DenialInvalidAPIKey
	DenialForbidden
	DenialRateLimited
	DenialUnavailable
)

func (k DenialKind) String() string {
	switch k {
	case DenialUnauthenticated:
		return "unauthenticated"
	case DenialInvalidAPIKey:
		return "invalid_api_key"
	case DenialForbidden:
		return "forbidden"
	case DenialRateLimited:
		return "rate_limited"
	case DenialUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Denial es un rechazo estructurado. Reason y Err son internos: se loguean
// pero nunca se devuelven al cliente.
type Denial struct {
	Kind   DenialKind
	Gate   string
	Reason string
	Err    error
	// Rate sólo para DenialRateLimited.
	Rate *rate.Result
}

// Status es el código HTTP del rechazo.
func (d Denial) Status() int {
	switch d.Kind {
	case DenialUnauthenticated, DenialInvalidAPIKey:
		return http.StatusUnauthorized
	case DenialForbidden:
		return http.StatusForbidden
	case DenialRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusServiceUnavailable
	}
}

// RetryAfter: segundos hasta que la ventana se reinicia (0 si no aplica).
func (d Denial) RetryAfter() int64 {
	if d.Rate == nil {
		return 0
	}
	return d.Rate.RetryAfterSeconds()
}

// Identity es el contexto autenticado que reciben los handlers.
type Identity struct {
	UserID    int64
	Role      string
	JTI       string
	ExpiresAt time.Time
	APIKeyID  *int64
	RateLimit *rate.Result
}

// Outcome es el resultado de Evaluate. Denial != nil sii State == StateRejected.
type Outcome struct {
	State    State
	Identity *Identity
	Rate     *rate.Result
	Denial   *Denial
}

// Allowed indica si el request puede despacharse al handler.
func (o Outcome) Allowed() bool { return o.State == StateDispatched && o.Denial == nil }
