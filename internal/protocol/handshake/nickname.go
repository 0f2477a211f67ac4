package handshake

import (
	"fmt"
	"io"

	"safetalk/internal/domain"
)

// WriteNickname writes the fixed-width nickname field.
func WriteNickname(w io.Writer, nick domain.Nickname) error {
	if _, err := w.Write(nick[:]); err != nil {
		return fmt.Errorf("%w: write nickname: %w", domain.ErrTransport, err)
	}
	return nil
}

// ReadNickname reads the fixed-width nickname field.
func ReadNickname(r io.Reader) (domain.Nickname, error) {
	var nick domain.Nickname
	if _, err := io.ReadFull(r, nick[:]); err != nil {
		return domain.Nickname{}, readErr("nickname", err)
	}
	return nick, nil
}
