package middleware

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/feldspar-io/authcore"
)

// BearerToken extracts the token from an Authorization header value. A
// missing or malformed header returns authcore.ErrAuthorizationHeader,
// which is a client formatting error, not an authentication verdict.
func BearerToken(value string) (string, error) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", authcore.ErrAuthorizationHeader
	}

	token := value[len(bearer):]
	if token == "" {
		return "", authcore.ErrAuthorizationHeader
	}
	return token, nil
}

// Guard authenticates every request through the coordinator and attaches
// the verified claims to the request context. Failures map to 400 for a
// bad Authorization header, 503 when the cache cannot answer, and 401
// for everything the token itself got wrong.
func Guard(coordinator *authcore.Coordinator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				http.Error(w, "missing or malformed authorization header", http.StatusBadRequest)
				return
			}

			claims, err := coordinator.Authenticate(r.Context(), token)
			if err != nil {
				status, message := statusFor(err)
				http.Error(w, message, status)
				return
			}

			ctx := authcore.WithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimit counts every request against the coordinator's fixed window,
// keyed by client IP. Over-budget requests get 429; an unreachable
// counter gets 503, never a free pass.
func RateLimit(coordinator *authcore.Coordinator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identifier := clientIP(r)

			if _, err := coordinator.CheckRate(r.Context(), identifier); err != nil {
				status, message := statusFor(err)
				http.Error(w, message, status)
				return
			}

			ctx := authcore.WithClientIP(r.Context(), identifier)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, authcore.ErrCacheUnavailable):
		return http.StatusServiceUnavailable, "service unavailable"
	case errors.Is(err, authcore.ErrRateLimitExceeded):
		return http.StatusTooManyRequests, "too many requests"
	case errors.Is(err, authcore.ErrAuthorizationHeader):
		return http.StatusBadRequest, "missing or malformed authorization header"
	default:
		return http.StatusUnauthorized, "unauthorized"
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first, _, ok := strings.Cut(forwarded, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(forwarded)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
