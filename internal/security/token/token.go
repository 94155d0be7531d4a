// Package token genera los secretos opacos (refresh tokens, API keys) y el
// hash con el que se persisten. El valor en claro nunca llega a la base.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// RefreshBytes es la entropía de un refresh token (256 bits).
const RefreshBytes = 32

// Opaque genera nBytes aleatorios codificados en base64url sin padding.
func Opaque(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Hash es sha256(s) en hexadecimal: la forma almacenada y la clave de lookup.
func Hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
