package logger

import "strings"

// MaskEmail deja la primera letra del usuario y del dominio:
// "john.doe@example.com" -> "j…@e….com".
func MaskEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	i := strings.IndexByte(s, '@')
	if i <= 0 {
		if s == "" {
			return ""
		}
		if len(s) <= 3 {
			return "***"
		}
		return s[:1] + "…" + s[len(s)-1:]
	}
	local, dom := s[:i], s[i+1:]
	if len(local) > 1 {
		local = local[:1] + "…"
	}
	parts := strings.Split(dom, ".")
	if len(parts[0]) > 1 {
		parts[0] = parts[0][:1] + "…"
	}
	return local + "@" + strings.Join(parts, ".")
}
