// Package rate provides fixed-window request counting backed by the
// shared cache.
//
// # Window semantics
//
// One atomic INCR per request on "ratelimit:<identifier>"; the first hit
// of a window attaches the window-length TTL. The counter is monotonic
// within a window and resets to zero only when a new window begins. The
// limiter returns the count and the comparison against the limit; it never
// drops a request itself.
//
// # What this package must NOT do
//
//   - Resolve concurrent increments with client-side locking.
//   - Treat a cache failure as an allow.
package rate
