// Package middleware adapts the authcore lifecycle operations to
// net/http handler chains: a bearer-token guard and a per-IP rate
// limiter.
//
// The middleware translates, it does not decide. Every verdict comes
// from the coordinator; this package only maps errors onto HTTP status
// codes and moves claims into the request context.
package middleware
