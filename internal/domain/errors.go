package domain

import "errors"

// Error classes. Every failure returned by the protocol and relay layers
// wraps at least one of these; all of them end the affected connection.
var (
	// ErrTransport covers connect, read and write failures.
	ErrTransport = errors.New("transport error")
	// ErrHandshake covers a malformed nickname or public-key exchange.
	ErrHandshake = errors.New("handshake error")
	// ErrInvalidPeerKey is a peer public key of the wrong size or a
	// low-order point.
	ErrInvalidPeerKey = errors.New("invalid peer public key")
	// ErrFrameFormat is a declared length below the minimum or a stream
	// that ends before the declared frame is complete.
	ErrFrameFormat = errors.New("malformed frame")
	// ErrFrameTooLarge is a frame whose ciphertext exceeds the configured
	// maximum.
	ErrFrameTooLarge = errors.New("frame too large")
	// ErrIntegrity is a digest mismatch. The frame is never decrypted.
	ErrIntegrity = errors.New("frame integrity check failed")
	// ErrCipher is a decryption failure after the digest check passed.
	ErrCipher = errors.New("decryption failed")
	// ErrSessionFull is returned when both relay slots are occupied.
	ErrSessionFull = errors.New("session full")
)
