// Package identity provides durable account stores satisfying the
// authcore.IdentityStore interface: a Postgres-backed store for
// deployments and an in-memory store for tests and examples.
//
// The store is the single authority for accounts. Uniqueness of the
// email column is enforced by the database constraint, not by
// read-then-write checks; callers that pre-check still rely on Create
// to settle races.
package identity
