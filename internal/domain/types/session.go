package types

import "net"

// Session is a client connection that has completed the nickname and key
// exchange steps and is ready to carry frames.
type Session struct {
	Conn        net.Conn     `json:"-"`
	Key         SessionKey   `json:"-"`
	Nickname    Nickname     `json:"nickname"`
	LocalPublic X25519Public `json:"local_public"`
	PeerPublic  X25519Public `json:"peer_public"`
}

// EndReason says why a duplex chat session stopped.
type EndReason int

const (
	// EndLocalExit means the local user asked to leave.
	EndLocalExit EndReason = iota
	// EndPeerLeft means the peer sent the departure marker.
	EndPeerLeft
	// EndPeerClosed means the stream was closed cleanly without a marker.
	EndPeerClosed
	// EndError means an I/O, framing, integrity or cipher failure.
	EndError
	// EndCanceled means the caller's context was canceled.
	EndCanceled
)

func (r EndReason) String() string {
	switch r {
	case EndLocalExit:
		return "local exit"
	case EndPeerLeft:
		return "peer left"
	case EndPeerClosed:
		return "peer closed"
	case EndError:
		return "error"
	case EndCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// LeaveMarker is the plaintext a client sends, as an ordinary encrypted
// frame, when its user leaves voluntarily.
const LeaveMarker = "__LEFT__"
