package types

import (
	"bytes"
	"unicode/utf8"
)

// NicknameSize is the fixed width of the nickname field on the wire.
const NicknameSize = 32

// Nickname is the fixed-width, zero-padded display name a client sends to
// the relay immediately after connecting.
type Nickname [NicknameSize]byte

// NewNickname builds a Nickname from s. The name is truncated on a UTF-8
// boundary so at least one trailing zero byte always remains.
func NewNickname(s string) Nickname {
	var n Nickname
	max := NicknameSize - 1
	if len(s) > max {
		cut := max
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	copy(n[:], s)
	return n
}

// String returns the nickname up to the first zero byte.
func (n Nickname) String() string {
	if i := bytes.IndexByte(n[:], 0); i >= 0 {
		return string(n[:i])
	}
	return string(n[:])
}

// IsZero reports whether no name was set.
func (n Nickname) IsZero() bool { return n == Nickname{} }

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }
