package crypto

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"

	"safetalk/internal/domain"
)

// macInfo binds the derived MAC key to its single use.
var macInfo = []byte("safetalk frame mac v1")

// DeriveSessionKey hashes a DH shared secret into the AES-256 session key.
func DeriveSessionKey(secret []byte) domain.SessionKey {
	return domain.SessionKey(sha256.Sum256(secret))
}

// DeriveMACKey expands the session key into an independent 32-byte key for
// the keyed frame digest, so the cipher and the MAC never share a key.
func DeriveMACKey(key domain.SessionKey) ([]byte, error) {
	r := hkdf.New(sha256.New, key.Slice(), nil, macInfo)
	out := make([]byte, sha256.Size)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}
