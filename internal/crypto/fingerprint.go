package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	"safetalk/internal/domain"
)

// Fingerprint returns a short hex fingerprint of a public key.
//
// It hashes with SHA-256 and truncates to 10 bytes (20 hex chars). Two
// users can compare fingerprints out of band to detect a relay that swapped
// keys.
func Fingerprint(pub domain.X25519Public) domain.Fingerprint {
	sum := sha256.Sum256(pub[:])
	return domain.Fingerprint(hex.EncodeToString(sum[:10]))
}
