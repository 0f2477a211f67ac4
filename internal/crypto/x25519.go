package crypto

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/curve25519"

	"safetalk/internal/domain"
)

// GenerateX25519 returns a fresh Curve25519 key pair.
// The private key is clamped per RFC 7748.
func GenerateX25519() (priv domain.X25519Private, pub domain.X25519Public, err error) {
	if _, err = rand.Read(priv[:]); err != nil {
		return
	}
	clamp(&priv)
	pb, err := curve25519.X25519(priv.Slice(), curve25519.Basepoint)
	if err != nil {
		return
	}
	copy(pub[:], pb)
	return
}

// ParseX25519Public builds a public key from raw bytes received from a peer.
func ParseX25519Public(b []byte) (domain.X25519Public, error) {
	var pub domain.X25519Public
	if len(b) != domain.X25519KeySize {
		return pub, fmt.Errorf("%w: want %d bytes, got %d", domain.ErrInvalidPeerKey, domain.X25519KeySize, len(b))
	}
	copy(pub[:], b)
	return pub, nil
}

// DH computes X25519 Diffie-Hellman.
//
// Low-order peer keys, which would yield an all-zero secret, are rejected
// with domain.ErrInvalidPeerKey.
func DH(priv domain.X25519Private, pub domain.X25519Public) (out [32]byte, err error) {
	secret, err := curve25519.X25519(priv.Slice(), pub.Slice())
	if err != nil {
		return out, fmt.Errorf("%w: %w", domain.ErrInvalidPeerKey, err)
	}
	copy(out[:], secret)
	Wipe(secret)
	return out, nil
}

func clamp(k *domain.X25519Private) {
	kb := k[:]
	kb[0] &= 248
	kb[31] &= 127
	kb[31] |= 64
}
