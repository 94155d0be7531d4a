package middlewares

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ClientIP resuelve la IP del cliente. X-Forwarded-For sólo se respeta
// cuando la conexión viene de un proxy confiable; si no, cualquiera podría
// elegir su propio identificador de rate limit.
type ClientIP struct {
	trusted []netip.Prefix
}

// NewClientIP acepta IPs sueltas o CIDRs.
func NewClientIP(trusted []string) (*ClientIP, error) {
	c := &ClientIP{}
	for _, t := range trusted {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if strings.Contains(t, "/") {
			p, err := netip.ParsePrefix(t)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", t, err)
			}
			c.trusted = append(c.trusted, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(t)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", t, err)
		}
		c.trusted = append(c.trusted, netip.PrefixFrom(a.Unmap(), a.Unmap().BitLen()))
	}
	return c, nil
}

func (c *ClientIP) isTrusted(ip string) bool {
	a, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	a = a.Unmap()
	for _, p := range c.trusted {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

// Resolve retorna la IP del cliente para r. Recorre X-Forwarded-For de
// derecha a izquierda y se queda con la primera IP no confiable.
func (c *ClientIP) Resolve(r *http.Request) string {
	remote := r.RemoteAddr
	if host, _, err := net.SplitHostPort(remote); err == nil {
		remote = host
	}
	if c == nil || len(c.trusted) == 0 || !c.isTrusted(remote) {
		return remote
	}

	xff := r.Header.Values("X-Forwarded-For")
	var hops []string
	for _, h := range xff {
		for _, part := range strings.Split(h, ",") {
			if p := strings.TrimSpace(part); p != "" {
				hops = append(hops, p)
			}
		}
	}
	for i := len(hops) - 1; i >= 0; i-- {
		if !c.isTrusted(hops[i]) {
			return hops[i]
		}
	}
	if len(hops) > 0 {
		return hops[0]
	}
	return remote
}
