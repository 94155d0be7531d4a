// Package health contiene los DTOs del health check.
package health

// ComponentStatus es el estado de una dependencia.
type ComponentStatus struct {
	Status string `json:"status"` // "ok" | "down"
	Error  string `json:"error,omitempty"`
}

// HealthResponse: GET /health
type HealthResponse struct {
	Status     string                     `json:"status"` // "ok" | "degraded" | "unavailable"
	Version    string                     `json:"version,omitempty"`
	Components map[string]ComponentStatus `json:"components"`
}
