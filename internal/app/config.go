package app

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"safetalk/internal/protocol/frame"
	"safetalk/internal/relay"
	"safetalk/internal/services/session"
)

// Config is the complete runtime configuration for both binaries.
type Config struct {
	Relay    RelayConfig    `yaml:"relay"`
	Client   ClientConfig   `yaml:"client"`
	Protocol ProtocolConfig `yaml:"protocol"`
	Log      LogConfig      `yaml:"log"`
}

// RelayConfig configures the relay server.
type RelayConfig struct {
	// TCP address peers connect to.
	Listen string `yaml:"listen"`
	// Admin HTTP address; empty disables the admin endpoint.
	Admin string `yaml:"admin"`
	// Pending writes buffered per peer before frames are dropped.
	QueueDepth int `yaml:"queue_depth"`
	// How long a new connection may take to send nickname and key; 0 waits
	// forever.
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
}

// ClientConfig configures the chat client.
type ClientConfig struct {
	// Relay addresses, tried in order.
	Relays []string `yaml:"relays"`
	// Nickname used when none is given on the command line.
	Nickname    string        `yaml:"nickname"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// ProtocolConfig must match on both peers.
type ProtocolConfig struct {
	Integrity     string `yaml:"integrity"`
	MaxCiphertext int    `yaml:"max_ciphertext"`
}

// LogConfig selects log verbosity and output format.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Relay: RelayConfig{
			Listen:     ":" + session.DefaultPort,
			Admin:      "127.0.0.1:8081",
			QueueDepth: relay.DefaultQueueDepth,
		},
		Client: ClientConfig{
			Relays:      append([]string(nil), session.DefaultRelays...),
			DialTimeout: 5 * time.Second,
		},
		Protocol: ProtocolConfig{
			Integrity:     string(frame.IntegrityHMAC),
			MaxCiphertext: frame.MaxCiphertext,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig reads a YAML file over the defaults and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Relay.Listen == "" {
		return fmt.Errorf("relay.listen is required")
	}
	if c.Relay.QueueDepth < 1 {
		return fmt.Errorf("relay.queue_depth must be at least 1, got %d", c.Relay.QueueDepth)
	}
	if c.Relay.HandshakeTimeout < 0 {
		return fmt.Errorf("relay.handshake_timeout must not be negative")
	}
	if len(c.Client.Relays) == 0 {
		return fmt.Errorf("client.relays must list at least one address")
	}
	if c.Client.DialTimeout < 0 {
		return fmt.Errorf("client.dial_timeout must not be negative")
	}
	if _, err := frame.ParseIntegrity(c.Protocol.Integrity); err != nil {
		return fmt.Errorf("protocol.integrity: %w", err)
	}
	// A frame must hold at least one AES block.
	if c.Protocol.MaxCiphertext < 16 || c.Protocol.MaxCiphertext > 1<<20 {
		return fmt.Errorf("protocol.max_ciphertext must be between 16 and %d, got %d",
			1<<20, c.Protocol.MaxCiphertext)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json (got %q)", c.Log.Format)
	}
	return nil
}

// Integrity returns the parsed integrity mode. Call after Validate.
func (c *Config) Integrity() frame.Integrity {
	m, _ := frame.ParseIntegrity(c.Protocol.Integrity)
	return m
}

// WriteYAML encodes the configuration to w.
func (c *Config) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}

// SaveConfig writes cfg to path.
func SaveConfig(path string, cfg *Config) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := cfg.WriteYAML(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
