package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
)

// DigestSize is the length of every frame digest.
const DigestSize = sha256.Size

// SumCiphertext is the unkeyed SHA-256 digest over a ciphertext.
//
// It detects accidental corruption only: anyone on the path can recompute
// it after tampering.
func SumCiphertext(ciphertext []byte) [DigestSize]byte {
	return sha256.Sum256(ciphertext)
}

// MAC is HMAC-SHA256 over nonce || ciphertext.
func MAC(key, nonce, ciphertext []byte) [DigestSize]byte {
	h := hmac.New(sha256.New, key)
	h.Write(nonce)
	h.Write(ciphertext)
	var out [DigestSize]byte
	copy(out[:], h.Sum(nil))
	return out
}

// DigestEqual compares two digests in constant time.
func DigestEqual(a, b []byte) bool {
	return hmac.Equal(a, b)
}
