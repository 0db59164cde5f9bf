package middleware

import (
	"net/http"
	"strings"

	"github.com/sentriq/sentriq-backend/internal/auth"
)

// Paths reachable without a token. The WebSocket endpoint authenticates
// during the upgrade handshake instead.
var publicPaths = map[string]bool{
	"/healthz/live":              true,
	"/healthz/ready":             true,
	"/metrics":                   true,
	"/api/v1/auth/login":         true,
	"/api/v1/auth/refresh":       true,
	"/api/v1/auth/oidc/login":    true,
	"/api/v1/auth/oidc/callback": true,
	"/ws/modbus":                 true,
}

// Auth validates the bearer token and sets claims in the request context.
// Authorization decisions happen later, against the current identity row;
// this layer only proves who is calling.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			token := extractBearer(r)
			if token == "" {
				unauthorized(w, "Authentication required")
				return
			}
			claims, err := auth.ValidateToken(jwtSecret, token)
			if err != nil {
				unauthorized(w, "Invalid or expired token")
				return
			}
			if claims.Refresh {
				unauthorized(w, "Use access token for this request")
				return
			}
			ctx := auth.WithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}

func extractBearer(r *http.Request) string {
	s := r.Header.Get("Authorization")
	if s == "" {
		return r.URL.Query().Get("token")
	}
	const prefix = "Bearer "
	if len(s) > len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return strings.TrimSpace(s[len(prefix):])
	}
	return ""
}
