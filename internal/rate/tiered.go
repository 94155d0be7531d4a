package rate

import (
	"context"
	"strconv"
	"time"

	"github.com/dropDatabas3/gatekeeper/internal/store/apikey"
)

// APIKeyDefaults completa los límites en 0 de una key.
type APIKeyDefaults struct {
	Limit     int64
	Window    time.Duration
	UserLimit int64
	IPLimit   int64
}

// Tiered aplica la política de API keys: un presupuesto propio de la key y
// sub-límites por IP y por usuario dentro de esa key.
//
// AllowRequest corre antes de autenticar (IP y key); AllowUser corre apenas hay
// identidad. Dentro de AllowRequest se evalúa primero el scope más angosto
// (IP) para que una IP ruidosa no consuma el presupuesto compartido de la key.
type Tiered struct {
	Limiter  Limiter
	Defaults APIKeyDefaults
}

func (t Tiered) policies(k apikey.Key) (key, user, ip Policy) {
	window := k.Window
	if window <= 0 {
		window = t.Defaults.Window
	}
	pick := func(v, def int64) int64 {
		if v > 0 {
			return v
		}
		return def
	}
	key = Policy{Name: PolicyAPIKey, Limit: pick(k.RateLimit, t.Defaults.Limit), Window: window}
	user = Policy{Name: PolicyAPIKeyUser, Limit: pick(k.UserRateLimit, t.Defaults.UserLimit), Window: window}
	ip = Policy{Name: PolicyAPIKeyIP, Limit: pick(k.IPRateLimit, t.Defaults.IPLimit), Window: window}
	return key, user, ip
}

func scope(k apikey.Key) string { return "key:" + strconv.FormatInt(k.ID, 10) }

// AllowRequest evalúa IP y luego key. Retorna el primer rechazo, o el
// resultado más ajustado si ambos permiten.
func (t Tiered) AllowRequest(ctx context.Context, k apikey.Key, ip string) (Result, error) {
	keyPol, _, ipPol := t.policies(k)

	ipRes, err := t.Limiter.Allow(ctx, ipPol, scope(k)+":ip:"+ip)
	if err != nil || !ipRes.Allowed {
		return ipRes, err
	}
	keyRes, err := t.Limiter.Allow(ctx, keyPol, scope(k))
	if err != nil || !keyRes.Allowed {
		return keyRes, err
	}
	return *Tighter(&keyRes, &ipRes), nil
}

// AllowUser evalúa el sub-límite del usuario autenticado dentro de la key.
func (t Tiered) AllowUser(ctx context.Context, k apikey.Key, userID int64) (Result, error) {
	_, userPol, _ := t.policies(k)
	return t.Limiter.Allow(ctx, userPol, scope(k)+":user:"+strconv.FormatInt(userID, 10))
}
