package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"safetalk/internal/relay"
)

// Relay is the relay process: the peer-facing TCP server and the optional
// admin HTTP endpoint.
type Relay struct {
	Room   *relay.Room
	Server *relay.Server

	cfg RelayConfig
	log *logrus.Entry
}

// NewRelay builds a relay from cfg.
func NewRelay(cfg *Config, log *logrus.Entry) (*Relay, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	room := relay.NewRoom(
		relay.WithQueueDepth(cfg.Relay.QueueDepth),
		relay.WithRoomLogger(log.WithField("component", "room")),
	)
	srv := relay.NewServer(room,
		relay.WithLogger(log.WithField("component", "server")),
		relay.WithMaxCiphertext(cfg.Protocol.MaxCiphertext),
		relay.WithHandshakeTimeout(cfg.Relay.HandshakeTimeout),
	)
	return &Relay{Room: room, Server: srv, cfg: cfg.Relay, log: log}, nil
}

// Run listens on the configured addresses and serves until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", r.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", r.cfg.Listen, err)
	}
	var admin net.Listener
	if r.cfg.Admin != "" {
		admin, err = net.Listen("tcp", r.cfg.Admin)
		if err != nil {
			ln.Close()
			return fmt.Errorf("listen admin %s: %w", r.cfg.Admin, err)
		}
	}
	return r.Serve(ctx, ln, admin)
}

// Serve runs the relay on already-open listeners. admin may be nil.
func (r *Relay) Serve(ctx context.Context, ln, admin net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	adminDone := make(chan error, 1)
	if admin == nil {
		adminDone <- nil
	} else {
		hs := &http.Server{
			Handler:           relay.NewStatusHandler(r.Room, r.log.WithField("component", "admin")),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			r.log.WithFields(logrus.Fields{
				"function": "Serve",
				"addr":     admin.Addr().String(),
			}).Info("Admin listening")
			err := hs.Serve(admin)
			if errors.Is(err, http.ErrServerClosed) {
				err = nil
			} else {
				cancel()
			}
			adminDone <- err
		}()
		stop := context.AfterFunc(ctx, func() {
			sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer scancel()
			_ = hs.Shutdown(sctx)
		})
		defer stop()
	}

	err := r.Server.Serve(ctx, ln)
	cancel()
	if aerr := <-adminDone; err == nil {
		err = aerr
	}
	return err
}
