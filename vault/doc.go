// Package vault manages API credentials at rest.
//
// Secrets are encrypted with a password-derived key (scrypt) into a small
// binary file: MAGIC | VERSION | FLAG | SALT | NONCE | CIPHERTEXT | TAG.
// Two cipher strategies share that layout: AES-GCM (the default) and a
// keyed-stream XOR construction authenticated with HMAC-SHA256, kept so
// files written by builds without an AEAD primitive stay readable.
//
// The vault also holds a process-lifetime session cache for the secret and
// the password, and an obfuscated on-disk password cache. The obfuscation
// is an XOR against a locally stored random key file; it is a convenience
// feature, not a security boundary.
package vault
