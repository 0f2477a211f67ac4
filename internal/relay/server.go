package relay

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"safetalk/internal/crypto"
	"safetalk/internal/domain"
	"safetalk/internal/protocol/frame"
	"safetalk/internal/protocol/handshake"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(l *logrus.Entry) Option {
	return func(s *Server) { s.log = l }
}

// WithMaxCiphertext bounds the frames the relay accepts for forwarding.
func WithMaxCiphertext(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxCiphertext = n
		}
	}
}

// WithHandshakeTimeout limits how long a new connection may take to send its
// nickname and public key. Zero, the default, waits indefinitely.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(s *Server) { s.handshakeTimeout = d }
}

// Server accepts connections into a Room and forwards frames between the
// two occupants. It never decrypts anything.
type Server struct {
	room             *Room
	log              *logrus.Entry
	maxCiphertext    int
	handshakeTimeout time.Duration

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

// NewServer returns a Server for room.
func NewServer(room *Room, opts ...Option) *Server {
	s := &Server{
		room:          room,
		log:           logrus.NewEntry(logrus.StandardLogger()),
		maxCiphertext: frame.MaxCiphertext,
		conns:         make(map[net.Conn]struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Room returns the server's room.
func (s *Server) Room() *Room { return s.room }

// Serve accepts connections on ln until ctx is done or ln fails. On return
// the listener and every live connection are closed and all handlers have
// finished.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	s.log.WithFields(logrus.Fields{
		"function": "Serve",
		"addr":     ln.Addr().String(),
	}).Info("Relay listening")

	var err error
	for {
		conn, aerr := ln.Accept()
		if aerr != nil {
			if ctx.Err() == nil {
				err = aerr
			}
			break
		}
		s.track(conn, true)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.track(conn, false)
			s.handle(conn)
		}()
	}

	s.mu.Lock()
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
	return err
}

func (s *Server) track(c net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[c] = struct{}{}
	} else {
		delete(s.conns, c)
	}
}

// handle runs one connection: join, identity, public key, then forwarding
// until the stream fails or closes.
func (s *Server) handle(conn net.Conn) {
	log := s.log.WithField("remote", conn.RemoteAddr().String())

	p, err := s.room.Join(conn)
	if err != nil {
		entry := log.WithFields(logrus.Fields{
			"function": "handle",
			"error":    err.Error(),
		})
		if errors.Is(err, domain.ErrSessionFull) {
			entry.Warn("Room full, rejecting connection")
		} else {
			entry.Error("Join failed")
		}
		conn.Close()
		return
	}
	defer s.room.Leave(p)
	log = log.WithField("slot", p.Slot())

	if s.handshakeTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(s.handshakeTimeout))
	}
	nick, err := handshake.ReadNickname(conn)
	if err != nil {
		log.WithError(err).Warn("Nickname read failed")
		return
	}
	pub, err := handshake.ReadPublicKey(conn)
	if err != nil {
		log.WithError(err).WithField("nickname", nick.String()).Warn("Public key read failed")
		return
	}
	if s.handshakeTimeout > 0 {
		_ = conn.SetReadDeadline(time.Time{})
	}

	log = log.WithField("nickname", nick.String())
	log.WithField("fingerprint", crypto.Fingerprint(pub)).Info("Peer joined")
	s.room.Register(p, nick, pub)

	for {
		raw, err := frame.ReadRaw(conn, s.maxCiphertext)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				log.Info("Peer disconnected")
			} else {
				log.WithError(err).Warn("Dropping peer")
			}
			return
		}
		if !s.room.Forward(p, raw) {
			log.WithField("bytes", len(raw)).Debug("Frame dropped, no paired peer")
		}
	}
}
