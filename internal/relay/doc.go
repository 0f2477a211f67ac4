// Package relay implements the safetalk relay: a single room with two slots
// that pairs two clients, hands each the other's ephemeral public key once,
// and then forwards their frames verbatim.
//
// # Protocol
//
// A connecting client is placed in the first empty slot (a third client is
// refused with domain.ErrSessionFull and disconnected). It sends a 32-byte
// nickname field and its length-prefixed public key. When both slots hold a
// key and the exchange flag is clear, the room queues slot 0's key to slot 1
// and slot 1's key to slot 0 and sets the flag. From then on each frame read
// from one side is queued for the other. The relay checks frame lengths but
// never verifies digests or decrypts.
//
// When a client disconnects its slot is emptied and the flag is cleared, so
// a new client in that slot triggers a fresh exchange with the peer that
// stayed.
//
// # Concurrency
//
// One goroutine reads each connection and one writes it. Room state sits
// behind a single mutex that is never held across socket I/O.
//
// Each peer's outbound queue holds up to the configured depth of forwarded
// frames plus one slot reserved for a public key. A peer whose queue fills
// is not draining its connection; the relay disconnects it instead of
// dropping frames from the middle of the stream, so the other side sees a
// clean end rather than a silent gap.
//
// # Admin API
//
// NewStatusHandler exposes GET /status (JSON RoomStatus) and GET /healthz
// with an access log; HTTP is the matching client.
//
// The relay is an untrusted middleman: because the key exchange is not
// authenticated, a malicious relay could substitute its own keys. Clients
// should compare fingerprints out of band.
package relay
