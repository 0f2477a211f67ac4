package types

// X25519KeySize is the raw length of Curve25519 public and private keys.
const X25519KeySize = 32

// SessionKeySize is the AES-256 key length.
const SessionKeySize = 32

// X25519Public is a Curve25519 public key.
type X25519Public [X25519KeySize]byte

// Slice returns the key as a []byte.
func (p X25519Public) Slice() []byte { return p[:] }

// X25519Private is a Curve25519 private key.
type X25519Private [X25519KeySize]byte

// Slice returns the key as a []byte.
func (k X25519Private) Slice() []byte { return k[:] }

// SessionKey is the symmetric key shared by both ends of one connection.
// It lives exactly as long as that connection and is never rotated.
type SessionKey [SessionKeySize]byte

// Slice returns the key as a []byte.
func (k SessionKey) Slice() []byte { return k[:] }
