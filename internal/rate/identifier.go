package rate

import (
	"strconv"

	"github.com/dropDatabas3/gatekeeper/internal/security/token"
)

// Nombres de política (parte de la key del contador y label de métricas).
const (
	PolicyGeneral    = "general"
	PolicyAuth       = "auth"
	PolicyAPIKey     = "api_key"
	PolicyAPIKeyUser = "api_key_user"
	PolicyAPIKeyIP   = "api_key_ip"
)

// GeneralIdentifier: sha256(ip) o sha256(ip|user) si hay usuario autenticado.
func GeneralIdentifier(ip string, userID int64) string {
	if userID > 0 {
		return token.Hash(ip + "|" + strconv.FormatInt(userID, 10))
	}
	return token.Hash(ip)
}

// AuthIdentifier: sólo IP, todavía no hay identidad antes del login.
func AuthIdentifier(ip string) string {
	return ip
}
