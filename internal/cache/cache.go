// Package cache provee el almacenamiento compartido de claves con TTL que usan
// la lista de revocación, los contadores de rate limit y el lookup de API keys.
//
// Soporta:
//   - Redis (distribuido, para producción; fuente de verdad entre réplicas)
//   - Memory (in-process, para desarrollo/testing; una sola réplica)
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Client define las operaciones de cache.
type Client interface {
	// Get obtiene un valor. Retorna ErrNotFound si no existe.
	Get(ctx context.Context, key string) (string, error)

	// Set guarda un valor con TTL opcional.
	// Si ttl es 0, no expira.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete elimina una key.
	Delete(ctx context.Context, key string) error

	// Exists verifica si una key existe.
	Exists(ctx context.Context, key string) (bool, error)

	// IncrementBelow incrementa atómicamente el contador de key sólo si su
	// valor actual es menor que ceiling. Al crear la key le asigna ttl, que no
	// se renueva en incrementos posteriores (ventana fija).
	IncrementBelow(ctx context.Context, key string, ceiling int64, ttl time.Duration) (Counter, error)

	// Ping verifica la conexión.
	Ping(ctx context.Context) error

	// Close cierra la conexión.
	Close() error

	// Stats retorna estadísticas del cache.
	Stats(ctx context.Context) (Stats, error)
}

// Counter es el estado de un contador luego de IncrementBelow.
type Counter struct {
	Value       int64
	TTL         time.Duration
	Incremented bool
}

// Stats contiene estadísticas del cache.
type Stats struct {
	Driver string
	Keys   int64
	Hits   int64
	Misses int64
}

// Config configuración para crear un cliente de cache.
type Config struct {
	Driver   string // "memory" | "redis"
	Addr     string
	Password string
	DB       int
	Prefix   string // Prefijo para todas las keys
}

// Errores de cache.
var (
	ErrNotFound = errNotFound{}

	// ErrUnavailable envuelve cualquier falla del backend (timeout, conexión
	// rechazada, script inválido). Nunca significa "la key no existe".
	ErrUnavailable = errors.New("cache: backend unavailable")
)

type errNotFound struct{}

func (e errNotFound) Error() string { return "cache: key not found" }

// IsNotFound verifica si el error es porque la key no existe.
func IsNotFound(err error) bool {
	var nf errNotFound
	return errors.As(err, &nf)
}

// IsUnavailable verifica si el error es una falla de infraestructura.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

// New crea un cliente de cache según la configuración.
func New(cfg Config) (Client, error) {
	switch cfg.Driver {
	case "redis":
		return NewRedis(cfg)
	case "memory", "":
		return NewMemory(cfg.Prefix), nil
	default:
		return nil, fmt.Errorf("cache: unknown driver %q", cfg.Driver)
	}
}

func prefixed(prefix, k string) string {
	if prefix == "" {
		return k
	}
	return prefix + ":" + k
}
