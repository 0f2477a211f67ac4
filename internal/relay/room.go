package relay

import (
	"bytes"
	"net"
	"sync"

	"github.com/sirupsen/logrus"

	"safetalk/internal/crypto"
	"safetalk/internal/domain"
	"safetalk/internal/protocol/handshake"
)

// DefaultQueueDepth is the number of forwarded frames buffered per peer.
const DefaultQueueDepth = 128

// keySlots is the queue capacity kept free of frames so a key exchange
// always fits.
const keySlots = 1

// Peer is one occupant of a room slot.
type Peer struct {
	slot int
	conn net.Conn
	out  chan []byte
	done chan struct{}

	// Guarded by Room.mu.
	nick   domain.Nickname
	pub    *domain.X25519Public
	state  domain.SlotState
	closed bool
}

// Slot returns the index of the slot the peer occupies.
func (p *Peer) Slot() int { return p.slot }

// Conn returns the peer's connection.
func (p *Peer) Conn() net.Conn { return p.conn }

// writeLoop drains the outbound queue onto the connection. A failed write
// closes the connection, which in turn ends the peer's read loop.
func (p *Peer) writeLoop(log *logrus.Entry) {
	defer close(p.done)
	for b := range p.out {
		if _, err := p.conn.Write(b); err != nil {
			log.WithFields(logrus.Fields{
				"function": "writeLoop",
				"slot":     p.slot,
				"error":    err.Error(),
			}).Debug("Write to peer failed")
			p.conn.Close()
			for range p.out {
			}
			return
		}
	}
}

// RoomOption configures a Room.
type RoomOption func(*Room)

// WithQueueDepth sets how many forwarded frames may wait for a peer before
// it is treated as stuck and disconnected.
func WithQueueDepth(n int) RoomOption {
	return func(r *Room) {
		if n > 0 {
			r.queueDepth = n
		}
	}
}

// WithRoomLogger sets the logger used by the room.
func WithRoomLogger(l *logrus.Entry) RoomOption {
	return func(r *Room) { r.log = l }
}

// Room is the relay's single two-party session.
//
// All slot state and the one-shot exchange flag sit behind mu. Critical
// sections only inspect state and enqueue onto peer queues; socket writes
// happen on each peer's writer goroutine, never under mu. Because every
// enqueue happens under mu, a peer always receives the other's public key
// before any frame forwarded to it.
//
// A peer whose queue is full is not keeping up; it is evicted rather than
// losing frames from the middle of its stream.
type Room struct {
	mu         sync.Mutex
	slots      [2]*Peer
	exchanged  bool
	pairings   uint64
	queueDepth int
	log        *logrus.Entry

	// Evicted peers whose connections are closed once mu is released.
	evicted []*Peer
}

// NewRoom returns an empty room.
func NewRoom(opts ...RoomOption) *Room {
	r := &Room{
		queueDepth: DefaultQueueDepth,
		log:        logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Join puts conn into the first empty slot. With both slots taken it
// returns domain.ErrSessionFull and leaves the room untouched.
func (r *Room) Join(conn net.Conn) (*Peer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.slots {
		if r.slots[i] != nil {
			continue
		}
		p := &Peer{
			slot:  i,
			conn:  conn,
			out:   make(chan []byte, r.queueDepth+keySlots),
			done:  make(chan struct{}),
			state: domain.SlotAwaitingKey,
		}
		r.slots[i] = p
		go p.writeLoop(r.log)
		return p, nil
	}
	return nil, domain.ErrSessionFull
}

// Register records the peer's nickname and public key and fires the key
// exchange if this completes the pair. It reports whether it fired.
func (r *Room) Register(p *Peer, nick domain.Nickname, pub domain.X25519Public) bool {
	r.mu.Lock()
	defer r.unlock()

	if r.slots[p.slot] != p {
		return false
	}
	p.nick = nick
	key := pub
	p.pub = &key
	return r.tryExchangeLocked()
}

// tryExchangeLocked relays each peer's public key to the other, at most once
// per both-present transition. r.mu must be held.
func (r *Room) tryExchangeLocked() bool {
	a, b := r.slots[0], r.slots[1]
	if r.exchanged || a == nil || b == nil || a.pub == nil || b.pub == nil {
		return false
	}

	// Both queues must have room so neither side gets a key alone. Frames
	// never use the key slots, so this only fails for a peer that has left
	// keys unread across earlier pairings; such a peer is evicted and the
	// pairing fires when its slot is taken again. Only enqueuers fill the
	// queues and they all hold r.mu, so the check holds until the sends.
	full := false
	for _, p := range []*Peer{a, b} {
		if len(p.out) >= cap(p.out) {
			r.evictLocked(p)
			full = true
		}
	}
	if full {
		return false
	}
	r.enqueueKeyLocked(b, *a.pub)
	r.enqueueKeyLocked(a, *b.pub)
	r.exchanged = true
	r.pairings++
	a.state = domain.SlotKeysExchanged
	b.state = domain.SlotKeysExchanged

	r.log.WithFields(logrus.Fields{
		"function":      "tryExchange",
		"nickname_0":    a.nick.String(),
		"fingerprint_0": crypto.Fingerprint(*a.pub),
		"nickname_1":    b.nick.String(),
		"fingerprint_1": crypto.Fingerprint(*b.pub),
		"pairings":      r.pairings,
	}).Info("Relayed public keys")
	return true
}

func (r *Room) enqueueKeyLocked(to *Peer, pub domain.X25519Public) bool {
	var buf bytes.Buffer
	if err := handshake.WritePublicKey(&buf, pub); err != nil {
		return false
	}
	return r.enqueueLocked(to, buf.Bytes(), cap(to.out))
}

// enqueueLocked queues b for to if fewer than limit writes are pending,
// and evicts to otherwise. The send cannot block: limit never exceeds the
// queue's capacity and the writer goroutine only removes. r.mu must be held.
func (r *Room) enqueueLocked(to *Peer, b []byte, limit int) bool {
	if to.closed {
		return false
	}
	if len(to.out) >= limit {
		r.evictLocked(to)
		return false
	}
	to.out <- b
	return true
}

// evictLocked removes a peer that stopped draining its queue. Its
// connection is closed by unlock. r.mu must be held.
func (r *Room) evictLocked(p *Peer) {
	if p.closed {
		return
	}
	r.log.WithFields(logrus.Fields{
		"function": "evict",
		"slot":     p.slot,
		"nickname": p.nick.String(),
		"pending":  len(p.out),
	}).Warn("Peer queue full, disconnecting slow peer")
	r.leaveLocked(p)
	r.evicted = append(r.evicted, p)
}

// unlock releases r.mu and then closes the connections of peers evicted
// while it was held.
func (r *Room) unlock() {
	evicted := r.evicted
	r.evicted = nil
	r.mu.Unlock()
	for _, p := range evicted {
		p.conn.Close()
	}
}

// Forward queues a raw frame from one peer for the other. Frames are only
// forwarded once both sides have exchanged keys; anything else is dropped.
// A receiver that already has a full queue depth of frames pending is
// evicted and the frame dropped.
func (r *Room) Forward(from *Peer, raw []byte) bool {
	r.mu.Lock()
	defer r.unlock()

	if r.slots[from.slot] != from || !paired(from) {
		return false
	}
	to := r.slots[1-from.slot]
	if to == nil || !paired(to) {
		return false
	}
	if !r.enqueueLocked(to, raw, r.queueDepth) {
		return false
	}
	from.state = domain.SlotRelaying
	return true
}

func paired(p *Peer) bool {
	return p.state == domain.SlotKeysExchanged || p.state == domain.SlotRelaying
}

// Leave frees the peer's slot, clears the exchange flag and closes the
// connection. The remaining peer drops back to awaiting a key. Calling Leave
// more than once is harmless.
func (r *Room) Leave(p *Peer) {
	r.mu.Lock()
	r.leaveLocked(p)
	r.unlock()

	p.conn.Close()
}

func (r *Room) leaveLocked(p *Peer) {
	if r.slots[p.slot] == p {
		r.slots[p.slot] = nil
		r.exchanged = false
		if other := r.slots[1-p.slot]; other != nil {
			other.state = domain.SlotAwaitingKey
		}
	}
	if !p.closed {
		p.closed = true
		p.state = domain.SlotEmpty
		close(p.out)
	}
}

// Status returns a snapshot of both slots.
func (r *Room) Status() domain.RoomStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := domain.RoomStatus{Exchanged: r.exchanged, Pairings: r.pairings}
	for i, p := range r.slots {
		st.Slots[i] = domain.SlotStatus{Index: i, State: domain.SlotEmpty}
		if p == nil {
			continue
		}
		st.Slots[i].State = p.state
		st.Slots[i].Nickname = p.nick.String()
		if p.pub != nil {
			st.Slots[i].Fingerprint = crypto.Fingerprint(*p.pub)
		}
	}
	return st
}
