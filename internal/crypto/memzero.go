package crypto

import (
	"runtime"

	"safetalk/internal/domain"
)

// Wipe zeroes b in place. Go gives no guarantee that copies made by the
// runtime are cleared, so this only narrows the window a secret is live.
//
//go:noinline
func Wipe(b []byte) {
	clear(b)
	runtime.KeepAlive(b)
}

// WipePrivate zeroes an X25519 private key.
func WipePrivate(k *domain.X25519Private) { Wipe(k[:]) }
