package types

// SlotState tracks one relay slot through its lifecycle.
type SlotState string

const (
	SlotEmpty         SlotState = "empty"
	SlotAwaitingKey   SlotState = "awaiting_key"
	SlotKeysExchanged SlotState = "keys_exchanged"
	SlotRelaying      SlotState = "relaying"
)

// SlotStatus is a snapshot of one relay slot.
type SlotStatus struct {
	Index       int         `json:"index"`
	State       SlotState   `json:"state"`
	Nickname    string      `json:"nickname,omitempty"`
	Fingerprint Fingerprint `json:"fingerprint,omitempty"`
}

// RoomStatus is a snapshot of the relay's two-slot room.
type RoomStatus struct {
	Slots     [2]SlotStatus `json:"slots"`
	Exchanged bool          `json:"exchanged"`
	Pairings  uint64        `json:"pairings"`
}

// Free returns the number of empty slots.
func (s RoomStatus) Free() int {
	n := 0
	for _, sl := range s.Slots {
		if sl.State == SlotEmpty {
			n++
		}
	}
	return n
}
