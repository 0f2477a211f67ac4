package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"safetalk/internal/crypto"
	"safetalk/internal/domain"
	"safetalk/internal/protocol/handshake"
)

// DefaultPort is the relay's TCP port.
const DefaultPort = "5555"

// DefaultRelays is the dial order used when none is configured: the relay's
// service host name first, then loopback.
var DefaultRelays = []string{"server:" + DefaultPort, "127.0.0.1:" + DefaultPort}

// Dialer opens a stream to a relay address.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Service dials the relay and performs the identity and key exchange steps.
type Service struct {
	addrs       []string
	dialTimeout time.Duration
	dialer      Dialer
	log         *logrus.Entry
}

// Option configures a Service.
type Option func(*Service)

// WithDialTimeout bounds each individual dial attempt.
func WithDialTimeout(d time.Duration) Option {
	return func(s *Service) { s.dialTimeout = d }
}

// WithDialer replaces the network dialer.
func WithDialer(d Dialer) Option {
	return func(s *Service) { s.dialer = d }
}

// WithLogger sets the service logger.
func WithLogger(l *logrus.Entry) Option {
	return func(s *Service) { s.log = l }
}

// New constructs a Session Service that tries addrs in order. An empty list
// means DefaultRelays.
func New(addrs []string, opts ...Option) *Service {
	if len(addrs) == 0 {
		addrs = DefaultRelays
	}
	s := &Service{
		addrs:  append([]string(nil), addrs...),
		dialer: &net.Dialer{},
		log:    logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Connect establishes a session with whoever else is in the relay's room.
//
// Steps:
//  1. Dial each relay address in turn until one accepts.
//  2. Send the fixed-width nickname field.
//  3. Exchange ephemeral public keys and derive the session key. This blocks
//     until the relay pairs us with a second client.
//
// On any failure after the dial the connection is closed.
func (s *Service) Connect(ctx context.Context, nickname domain.Nickname) (domain.Session, error) {
	conn, err := s.dial(ctx)
	if err != nil {
		return domain.Session{}, err
	}
	log := s.log.WithFields(logrus.Fields{
		"remote":   conn.RemoteAddr().String(),
		"nickname": nickname.String(),
	})

	if err := handshake.WriteNickname(conn, nickname); err != nil {
		conn.Close()
		return domain.Session{}, refused(err)
	}
	log.Debug("Waiting for peer")

	res, err := handshake.Exchange(ctx, conn)
	if err != nil {
		conn.Close()
		return domain.Session{}, refused(err)
	}
	log.WithFields(logrus.Fields{
		"function":    "Connect",
		"fingerprint": crypto.Fingerprint(res.PeerPublic),
	}).Info("Session established")

	return domain.Session{
		Conn:        conn,
		Key:         res.Key,
		Nickname:    nickname,
		LocalPublic: res.LocalPublic,
		PeerPublic:  res.PeerPublic,
	}, nil
}

// refused reports a relay that dropped us before sending any key byte as
// domain.ErrSessionFull, its usual cause. Depending on timing the drop shows
// up as a clean EOF or, if our nickname was still unread, a reset.
func refused(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return fmt.Errorf("%w: relay closed the connection (room full?): %w", domain.ErrSessionFull, err)
	}
	return err
}

func (s *Service) dial(ctx context.Context) (net.Conn, error) {
	var errs []error
	for _, addr := range s.addrs {
		dctx := ctx
		if s.dialTimeout > 0 {
			var cancel context.CancelFunc
			dctx, cancel = context.WithTimeout(ctx, s.dialTimeout)
			defer cancel()
		}
		conn, err := s.dialer.DialContext(dctx, "tcp", addr)
		if err == nil {
			return conn, nil
		}
		s.log.WithFields(logrus.Fields{
			"function": "dial",
			"remote":   addr,
			"error":    err.Error(),
		}).Debug("Relay unreachable")
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("%w: no relay reachable: %w", domain.ErrTransport, errors.Join(errs...))
}

// Compile-time assertion that Service implements domain.SessionService.
var _ domain.SessionService = (*Service)(nil)
