// Package revocation tracks tokens invalidated before their natural
// expiry (logout, forced invalidation).
//
// Markers live at "blacklist:<tokenId>" with TTL equal to the remaining
// token lifetime, which bounds the set to tokens that would otherwise
// still verify. Once a marker is present, authentication with that token
// fails until the marker and the token itself expire together.
//
// A revocation write lost to a crash leaves the token usable until its
// natural expiry. That is an accepted, bounded-risk degraded mode, not an
// inconsistency to repair.
package revocation
