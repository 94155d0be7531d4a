// Package metrics expone los collectors Prometheus de gatekeeper.
//
// Los collectors son variables de paquete para que el pipeline, los
// middlewares HTTP y los servicios registren sin recibir dependencias.
// Register los agrega a un registry (o al default si es nil).
package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcomes usados en gatekeeper_pipeline_decisions_total.
const (
	OutcomeAllow       = "allow"
	OutcomeDeny        = "deny"
	OutcomeUnavailable = "unavailable"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gatekeeper_http_requests_total",
		Help: "Total de requests HTTP por método, ruta y status",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gatekeeper_http_request_duration_seconds",
		Help:    "Latencia de requests HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	PipelineDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gatekeeper_pipeline_decisions_total",
		Help: "Decisiones de cada etapa del pipeline (rate, authn, authz)",
	}, []string{"gate", "outcome"})

	RateLimitHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gatekeeper_rate_limit_hits_total",
		Help: "Evaluaciones del rate limiter por política y resultado",
	}, []string{"policy", "result"})

	InfraErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gatekeeper_infra_errors_total",
		Help: "Fallas de cache/DB detectadas en el camino del request",
	}, []string{"component"})

	RefreshRotations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gatekeeper_refresh_rotations_total",
		Help: "Rotaciones de refresh token por resultado",
	}, []string{"result"})
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		HTTPRequestsTotal,
		HTTPRequestDuration,
		PipelineDecisions,
		RateLimitHits,
		InfraErrors,
		RefreshRotations,
	}
}

// Register registra todos los collectors, ignorando duplicados.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

// Handler devuelve el handler de /metrics para el gatherer indicado.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// ObserveHTTP registra un request completado.
func ObserveHTTP(method, path string, status int, d time.Duration) {
	method = strings.ToUpper(method)
	label := NormalizePath(path)
	HTTPRequestsTotal.WithLabelValues(method, label, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, label).Observe(d.Seconds())
}

// Decision registra el resultado de una etapa del pipeline.
func Decision(gate, outcome string) {
	PipelineDecisions.WithLabelValues(gate, outcome).Inc()
}

// RateLimit registra una evaluación del limiter.
func RateLimit(policy string, allowed bool) {
	result := "allowed"
	if !allowed {
		result = "denied"
	}
	RateLimitHits.WithLabelValues(policy, result).Inc()
}

// Infra registra una falla de infraestructura.
func Infra(component string) {
	InfraErrors.WithLabelValues(component).Inc()
}

// Rotation registra el resultado de un refresh.
func Rotation(result string) {
	RefreshRotations.WithLabelValues(result).Inc()
}

var (
	uuidSegmentRE = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F-]{4}-[0-9a-fA-F-]{4,}$`)
	hexSegmentRE  = regexp.MustCompile(`^[0-9a-fA-F]{16,}$`)
)

// NormalizePath reemplaza segmentos dinámicos (ids numéricos, uuid, hex)
// por ":param" para acotar la cardinalidad del label path.
func NormalizePath(p string) string {
	clean := strings.SplitN(p, "?", 2)[0]
	if clean == "" || clean == "/" {
		return "/"
	}
	var out []string
	for _, seg := range strings.Split(clean, "/") {
		if seg == "" {
			continue
		}
		if isDynamicSegment(seg) {
			out = append(out, ":param")
		} else {
			out = append(out, seg)
		}
	}
	if len(out) == 0 {
		return "/"
	}
	return "/" + strings.Join(out, "/")
}

func isDynamicSegment(seg string) bool {
	if len(seg) > 48 {
		return true
	}
	if _, err := strconv.ParseInt(seg, 10, 64); err == nil {
		return true
	}
	return uuidSegmentRE.MatchString(seg) || hexSegmentRE.MatchString(seg)
}
