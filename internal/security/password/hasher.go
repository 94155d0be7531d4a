// Package password hashea y verifica contraseñas con bcrypt.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost se usa cuando la config no define uno.
const DefaultCost = 12

// ErrMismatch: la contraseña no corresponde al hash.
var ErrMismatch = errors.New("password: mismatch")

// Hasher encapsula el costo de bcrypt.
type Hasher struct {
	cost  int
	dummy []byte
}

// NewHasher acota cost al rango que acepta bcrypt.
func NewHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	// hash descartable con el mismo costo, para Burn
	dummy, _ := bcrypt.GenerateFromPassword([]byte("gatekeeper-timing-pad"), cost)
	return Hasher{cost: cost, dummy: dummy}
}

func (h Hasher) Hash(plain string) (string, error) {
	if plain == "" {
		return "", errors.New("password: empty")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("password: hash: %w", err)
	}
	return string(b), nil
}

// Verify retorna nil si plain corresponde a hash, ErrMismatch si no.
func (h Hasher) Verify(hash, plain string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	if err != nil {
		return fmt.Errorf("password: verify: %w", err)
	}
	return nil
}

// Burn consume el mismo trabajo que un Verify fallido. Se usa cuando el
// usuario no existe, para no filtrar su existencia por tiempos de respuesta.
func (h Hasher) Burn(plain string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plain))
}
