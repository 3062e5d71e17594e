// Package cache owns the shared Redis connection handle and exposes the
// typed operations the rest of the module builds on: TTL'd reads/writes,
// JSON helpers, atomic increment, existence checks, set indexes, and
// namespace-scoped pattern deletion.
//
// # Connection lifecycle
//
// A [Client] moves Disconnected -> Connecting -> Ready, and on transient
// command failures Ready -> Reconnecting -> Ready|Disconnected. Reconnects
// use bounded exponential backoff; once the attempt budget is exhausted the
// client is terminally Disconnected and every operation fails fast with
// [ErrUnavailable]. Operations never silently succeed against a stale
// handle, and every command carries its own bounded timeout so a degraded
// server cannot stall callers indefinitely.
//
// # What this package must NOT do
//
//   - Know about key namespaces or domain record formats (session,
//     revocation, and rate limiting own their own keys).
//   - Retry commands on the caller's behalf; callers decide retry policy.
//   - Treat caller cancellation as a server failure.
package cache
