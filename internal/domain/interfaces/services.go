package interfaces

import (
	"context"
	"io"

	domaintypes "safetalk/internal/domain/types"
)

// SessionService dials the relay and completes the nickname and key
// exchange steps.
type SessionService interface {
	Connect(ctx context.Context, nickname domaintypes.Nickname) (domaintypes.Session, error)
}

// ChatService runs the duplex encrypted chat over an established session.
type ChatService interface {
	Run(
		ctx context.Context,
		session domaintypes.Session,
		input io.Reader,
		sink ChatSink,
	) (domaintypes.EndReason, error)
}

// ChatSink receives user-facing chat output. Its methods are called from
// both directions of a session and must be safe for concurrent use.
type ChatSink interface {
	// Incoming is called with every decrypted message from the peer.
	Incoming(text string)
	// Outgoing is called after a local message has been sent.
	Outgoing(text string)
	// Notice reports a local, non-fatal condition.
	Notice(text string)
}
