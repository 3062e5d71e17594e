// Package session provides cache-backed session records for issued tokens.
//
// A session is the server-visible trace of a login: key "session:<tokenId>"
// with the JSON value {userId, createdAt} and a TTL clamped to the token's
// remaining lifetime. A per-user index set ("session_user:<subjectId>")
// makes listing and bulk revocation of a user's sessions possible without
// scanning the keyspace.
//
// # Architecture boundaries
//
// This package owns session persistence only. It does NOT parse tokens,
// consult the revocation list, or decide whether a missing session fails a
// request; those calls belong to the coordinator.
//
// # What this package must NOT do
//
//   - Store token claims or secrets in the record.
//   - Let a session TTL exceed the remaining token lifetime.
package session
