package middleware

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP resolves the caller's address, preferring the first hop of an
// X-Forwarded-For header (set by the reverse proxy in front of the service)
// and falling back to the direct connection address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
	return host
}
