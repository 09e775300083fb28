// Package password provides the password hashing primitives used by tunebox.
//
// New hashes are Argon2id in PHC string form:
//
//	$argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt_b64>$<hash_b64>
//
// Hashes written by the previous (bcrypt based) backend are still accepted by
// Verify so existing database files keep working after migration.
//
// Hash strings read from disk are untrusted input: decoding is strict and
// verification refuses parameters far above the configured cost.
package password
