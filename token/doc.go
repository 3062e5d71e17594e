// Package token issues and validates the signed bearer tokens that carry
// identity claims between requests.
//
// Tokens are self-contained: signature plus embedded expiry make them
// verifiable without any store round-trip. Signing is symmetric (HS256)
// with a process-wide secret supplied by configuration.
//
// # Failure taxonomy
//
// Verification failures stay distinguishable as [ErrMalformed] (structure
// or signature), [ErrExpired], and [ErrNotYetValid], because the right
// client guidance differs: re-login fixes expiry, nothing fixes a forged
// token, and clock skew fixes itself.
//
// # What this package must NOT do
//
//   - Consult the revocation list or session store (upward concerns).
//   - Default or derive the signing secret.
package token
