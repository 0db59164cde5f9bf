package auth

import "context"

type contextKey struct{}

var claimsContextKey contextKey

// WithClaims stores verified token claims in the request context.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, c)
}

// ClaimsFromContext returns the verified claims, or nil when the request
// never passed token validation.
func ClaimsFromContext(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsContextKey).(*Claims)
	return c
}
