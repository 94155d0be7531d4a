// Package authz decide si un rol alcanza el nivel que exige una ruta.
package authz

import (
	"fmt"
	"sort"
	"strings"
)

// Decision de Authorize.
type Decision int

const (
	DecisionDeny Decision = iota
	DecisionAllow
	// DecisionUnauthenticated: no hay rol (sin identidad); corresponde 401, no 403.
	DecisionUnauthenticated
)

func (d Decision) String() string {
	switch d {
	case DecisionAllow:
		return "allow"
	case DecisionUnauthenticated:
		return "unauthenticated"
	default:
		return "deny"
	}
}

// Hierarchy es un mapa inmutable rol -> nivel. Se construye una vez y se
// inyecta; no hay estado global.
type Hierarchy struct {
	levels map[string]int
}

// DefaultHierarchy: user=0, admin=10.
func DefaultHierarchy() Hierarchy {
	h, _ := NewHierarchy(map[string]int{"user": 0, "admin": 10})
	return h
}

// NewHierarchy normaliza los nombres (trim + lower) y rechaza vacíos o duplicados.
func NewHierarchy(levels map[string]int) (Hierarchy, error) {
	if len(levels) == 0 {
		return Hierarchy{}, fmt.Errorf("authz: empty role hierarchy")
	}
	out := make(map[string]int, len(levels))
	for name, lvl := range levels {
		n := normalize(name)
		if n == "" {
			return Hierarchy{}, fmt.Errorf("authz: empty role name")
		}
		if _, dup := out[n]; dup {
			return Hierarchy{}, fmt.Errorf("authz: duplicate role %q", n)
		}
		out[n] = lvl
	}
	return Hierarchy{levels: out}, nil
}

func normalize(role string) string { return strings.ToLower(strings.TrimSpace(role)) }

// Known indica si el rol pertenece a la jerarquía.
func (h Hierarchy) Known(role string) bool {
	_, ok := h.levels[normalize(role)]
	return ok
}

// Level retorna el nivel del rol; los desconocidos valen 0.
func (h Hierarchy) Level(role string) int {
	return h.levels[normalize(role)]
}

// Roles lista los roles ordenados por nivel y nombre.
func (h Hierarchy) Roles() []string {
	out := make([]string, 0, len(h.levels))
	for r := range h.levels {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if h.levels[out[i]] != h.levels[out[j]] {
			return h.levels[out[i]] < h.levels[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

// Authorize permite sii level(caller) >= level(required).
//
// Un rol que no está en la jerarquía nunca satisface un requisito, aunque su
// nivel por defecto (0) iguale al requerido: authorize("unknown","user") es deny.
// Lo mismo para un rol requerido desconocido (error de configuración de la ruta).
func (h Hierarchy) Authorize(caller, required string) Decision {
	if normalize(caller) == "" {
		return DecisionUnauthenticated
	}
	if !h.Known(caller) || !h.Known(required) {
		return DecisionDeny
	}
	if h.Level(caller) >= h.Level(required) {
		return DecisionAllow
	}
	return DecisionDeny
}
