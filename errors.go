package authcore

import "errors"

var (
	// ErrInvalidCredentials is returned by Login for an unknown identifier
	// or a mismatched secret; the two cases are deliberately identical.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateUser is returned by Register when the identifier is taken.
	ErrDuplicateUser = errors.New("user already exists")
	// ErrTokenMalformed marks a structurally invalid token or bad signature.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenExpired marks a well-signed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenNotYetValid marks a token whose not-before lies in the future.
	ErrTokenNotYetValid = errors.New("token not yet valid")
	// ErrTokenRevoked marks a valid, unexpired token that was explicitly
	// invalidated before its natural expiry.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrTokenMissing is returned when an operation requires a token and
	// none was presented.
	ErrTokenMissing = errors.New("token missing")
	// ErrUserNotFound means the identity behind a token no longer exists.
	ErrUserNotFound = errors.New("user not found")
	// ErrCacheUnavailable surfaces when the cache is the sole source of
	// truth for a check and cannot be reached. Affected operations fail
	// closed, never permissive.
	ErrCacheUnavailable = errors.New("cache unavailable")
	// ErrRateLimitExceeded is returned when a request lands beyond the
	// fixed-window budget for its identifier.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrAuthorizationHeader marks a missing or malformed Authorization
	// header. It is a client error, distinct from authentication failures.
	ErrAuthorizationHeader = errors.New("missing or malformed authorization header")
)
