// Package crypto exposes the minimal primitives used by safetalk.
//
// Contents
//
//   - X25519 key generation, clamping, peer-key parsing and Diffie-Hellman
//     (GenerateX25519, ParseX25519Public, DH)
//   - Session key derivation: SHA-256 of the shared secret
//     (DeriveSessionKey), plus an HKDF-expanded MAC key (DeriveMACKey)
//   - AES-256-CBC with PKCS#7 padding (EncryptCBC, DecryptCBC)
//   - Frame digests: unkeyed SHA-256 (SumCiphertext) and HMAC-SHA256 (MAC)
//   - Best-effort memory wiping for sensitive byte slices (Wipe)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//
// # Notes
//
// The key exchange is unauthenticated. Any party that completes it,
// including the relay itself, ends up with a valid key; fingerprints are
// the only defence and must be compared out of band.
package crypto
