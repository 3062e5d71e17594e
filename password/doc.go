// Package password provides argon2id credential hashing and verification.
//
// Hashes use the PHC string format, so cost parameters travel with the
// hash and verification never depends on current configuration. The
// comparison is constant time over the derived key.
//
// # What this package must NOT do
//
//   - Log or return plaintext secrets or stored hashes.
//   - Report partial-success states; verification is strictly binary.
package password
