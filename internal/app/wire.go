package app

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"safetalk/internal/domain"
	"safetalk/internal/relay"
	messagesvc "safetalk/internal/services/message"
	sessionsvc "safetalk/internal/services/session"
)

// Wire bundles the client-side services for the CLI.
type Wire struct {
	Sessions domain.SessionService
	Chat     domain.ChatService
	HTTP     *http.Client
	Log      *logrus.Entry
}

// NewWire constructs the client dependency graph from cfg.
func NewWire(cfg *Config, log *logrus.Entry) (*Wire, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	sessions := sessionsvc.New(cfg.Client.Relays,
		sessionsvc.WithDialTimeout(cfg.Client.DialTimeout),
		sessionsvc.WithLogger(log.WithField("component", "session")),
	)
	chat := messagesvc.New(
		messagesvc.WithIntegrity(cfg.Integrity()),
		messagesvc.WithMaxCiphertext(cfg.Protocol.MaxCiphertext),
		messagesvc.WithLogger(log.WithField("component", "chat")),
	)

	return &Wire{
		Sessions: sessions,
		Chat:     chat,
		HTTP:     http.DefaultClient,
		Log:      log,
	}, nil
}

// StatusClient returns a client for the relay admin API at base.
func (w *Wire) StatusClient(base string) domain.RelayStatusClient {
	return relay.NewHTTP(base, w.HTTP)
}
