package domain

import (
	interfaces "safetalk/internal/domain/interfaces"
	types "safetalk/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	Nickname      = types.Nickname
	Fingerprint   = types.Fingerprint
	X25519Public  = types.X25519Public
	X25519Private = types.X25519Private
	SessionKey    = types.SessionKey
	Session       = types.Session
	EndReason     = types.EndReason
	SlotState     = types.SlotState
	SlotStatus    = types.SlotStatus
	RoomStatus    = types.RoomStatus
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	SessionService    = interfaces.SessionService
	ChatService       = interfaces.ChatService
	ChatSink          = interfaces.ChatSink
	RelayStatusClient = interfaces.RelayStatusClient
)

const (
	NicknameSize   = types.NicknameSize
	X25519KeySize  = types.X25519KeySize
	SessionKeySize = types.SessionKeySize
	LeaveMarker    = types.LeaveMarker

	EndLocalExit  = types.EndLocalExit
	EndPeerLeft   = types.EndPeerLeft
	EndPeerClosed = types.EndPeerClosed
	EndError      = types.EndError
	EndCanceled   = types.EndCanceled

	SlotEmpty         = types.SlotEmpty
	SlotAwaitingKey   = types.SlotAwaitingKey
	SlotKeysExchanged = types.SlotKeysExchanged
	SlotRelaying      = types.SlotRelaying
)

// NewNickname builds a fixed-width nickname field from s.
func NewNickname(s string) Nickname { return types.NewNickname(s) }
