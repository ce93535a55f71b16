package middleware

import (
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{"direct connection", "192.0.2.10:4321", "", "192.0.2.10"},
		{"single forwarded hop", "10.0.0.1:80", "203.0.113.7", "203.0.113.7"},
		{"first hop of chain wins", "10.0.0.1:80", "203.0.113.7, 10.0.0.2, 10.0.0.3", "203.0.113.7"},
		{"padded forwarded value", "10.0.0.1:80", "  203.0.113.7  ", "203.0.113.7"},
		{"empty forwarded falls back", "192.0.2.10:4321", "   ", "192.0.2.10"},
		{"remote addr without port", "192.0.2.10", "", "192.0.2.10"},
		{"no address at all", "", "", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
