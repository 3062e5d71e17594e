// Package authcore implements an account and token lifecycle on top of a
// durable identity store and a Redis-backed cache: registration, login,
// logout, bearer-token authentication, revocation and fixed-window rate
// limiting.
//
// # Architecture boundaries
//
// The durable store is the authority for accounts; the cache holds only
// derived, expirable state (sessions, revocation markers, rate counters,
// registration hints). Tokens are self-verifying, so the happy path of
// authentication needs no store round-trip beyond the identity-exists
// check; the cache is consulted only for the negative signals it alone
// can hold.
//
// Checks whose sole source of truth is the cache fail closed: if the
// cache cannot answer "is this token revoked" or "how many requests so
// far", the operation returns [ErrCacheUnavailable] instead of guessing.
//
// # What this package must NOT do
//
//   - Persist anything durable in the cache.
//   - Treat a cache failure as an allow for revocation, session or rate
//     checks.
//   - Reveal through [Coordinator.Login] whether the email or the secret
//     was wrong.
package authcore
