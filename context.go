package authcore

import "context"

type contextKey int

const (
	claimsKey contextKey = iota
	clientIPKey
)

// WithClaims returns a context carrying verified token claims. The
// middleware attaches these after a successful Authenticate.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext extracts claims attached by [WithClaims]. The second
// return is false when the request never passed authentication.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}

// WithClientIP returns a context carrying the caller's network address,
// used as the default rate-limiting identifier.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIPFromContext extracts the address attached by [WithClientIP].
func ClientIPFromContext(ctx context.Context) (string, bool) {
	ip, ok := ctx.Value(clientIPKey).(string)
	return ip, ok
}
