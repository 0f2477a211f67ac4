// Package handshake implements the two steps a connection goes through
// before it carries data frames.
//
// # Identity
//
// The client writes a fixed 32-byte, zero-padded nickname field as soon as
// it connects. There is no length prefix.
//
// # Key exchange
//
// Each side writes its raw X25519 public key as
//
//	u32 length (big endian) | key bytes
//
// and reads the peer's key in the same format. Through the relay, the
// "peer" key arrives only once both clients have joined; the relay copies
// each client's key to the other. Both sides then compute the X25519 shared
// secret and hash it with SHA-256 into the AES-256 session key. Private keys
// and the secret are wiped before Exchange returns.
//
// # Security notes
//
// Nothing in the exchange authenticates the peer. A relay that substitutes
// its own keys can read and rewrite all traffic; comparing the Result
// fingerprints out of band is the only way to notice.
package handshake
