// Package frame implements the secure frame protocol carried over the relay.
//
// Wire format
//
//	u32 totalLength (big endian)
//	nonce      [16]byte   AES-CBC IV, fresh per frame
//	ciphertext []byte     AES-256-CBC, PKCS#7 padded
//	digest     [32]byte
//
// totalLength counts nonce, ciphertext and digest, so any value below 48 is
// malformed. Ciphertext is bounded by MaxCiphertext (or WithMaxCiphertext);
// larger frames fail with domain.ErrFrameTooLarge on both send and receive.
//
// # Integrity modes
//
// IntegrityHMAC (default) computes HMAC-SHA256 over nonce || ciphertext with
// a MAC key derived from the session key. IntegritySHA256 is the legacy,
// unkeyed SHA-256 over the ciphertext alone: it catches corruption but not
// tampering, and exists for compatibility with older peers. Both modes keep
// the same frame layout. The digest is always checked before decryption and
// a frame that fails it is never decrypted.
//
// A stream that closes cleanly before a new frame starts is reported as
// io.EOF, the end-of-session signal, not as an error class.
package frame
