package app_test

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safetalk/internal/app"
	"safetalk/internal/domain"
	"safetalk/internal/protocol/frame"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := app.DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":5555", cfg.Relay.Listen)
	assert.Equal(t, []string{"server:5555", "127.0.0.1:5555"}, cfg.Client.Relays)
	assert.Equal(t, frame.IntegrityHMAC, cfg.Integrity())
}

func TestLoadConfig_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "safetalk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
relay:
  listen: 127.0.0.1:6000
  handshake_timeout: 2s
client:
  relays: [relay.example:6000]
protocol:
  integrity: sha256
log:
  format: json
`), 0o600))

	cfg, err := app.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6000", cfg.Relay.Listen)
	assert.Equal(t, 2*time.Second, cfg.Relay.HandshakeTimeout)
	assert.Equal(t, []string{"relay.example:6000"}, cfg.Client.Relays)
	assert.Equal(t, frame.IntegritySHA256, cfg.Integrity())
	assert.Equal(t, "json", cfg.Log.Format)
	// Untouched keys keep their defaults.
	assert.Equal(t, 128, cfg.Relay.QueueDepth)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := app.LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("protocol:\n  integrity: md5\n"), 0o600))
	_, err = app.LoadConfig(bad)
	assert.ErrorContains(t, err, "protocol.integrity")
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]func(*app.Config){
		"queue depth":   func(c *app.Config) { c.Relay.QueueDepth = 0 },
		"no relays":     func(c *app.Config) { c.Client.Relays = nil },
		"tiny frames":   func(c *app.Config) { c.Protocol.MaxCiphertext = 8 },
		"log level":     func(c *app.Config) { c.Log.Level = "loud" },
		"log format":    func(c *app.Config) { c.Log.Format = "xml" },
		"empty listen":  func(c *app.Config) { c.Relay.Listen = "" },
		"negative dial": func(c *app.Config) { c.Client.DialTimeout = -time.Second },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := app.DefaultConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveConfig_LoadsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := app.DefaultConfig()
	cfg.Client.Nickname = "alice"
	cfg.Relay.HandshakeTimeout = 3 * time.Second
	require.NoError(t, app.SaveConfig(path, cfg))

	got, err := app.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestConfigureLogging(t *testing.T) {
	logger := logrus.New()
	var buf bytes.Buffer
	logger.SetOutput(&buf)

	require.NoError(t, app.ConfigureLogging(logger, app.LogConfig{Level: "debug", Format: "json"}))
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	logger.WithField("function", "test").Debug("hello")
	assert.Contains(t, buf.String(), `"function":"test"`)

	assert.Error(t, app.ConfigureLogging(logger, app.LogConfig{Level: "nope"}))
}

func TestNewWire(t *testing.T) {
	w, err := app.NewWire(app.DefaultConfig(), nil)
	require.NoError(t, err)
	assert.NotNil(t, w.Sessions)
	assert.NotNil(t, w.Chat)
	assert.NotNil(t, w.StatusClient("http://127.0.0.1:1"))

	cfg := app.DefaultConfig()
	cfg.Protocol.Integrity = "bogus"
	_, err = app.NewWire(cfg, nil)
	assert.Error(t, err)
}

func TestRelay_ServeAndStatus(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	r, err := app.NewRelay(app.DefaultConfig(), logrus.NewEntry(logger))
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	admin, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Serve(ctx, ln, admin) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return r.Room.Status().Free() == 1 }, 5*time.Second, 10*time.Millisecond)

	w, err := app.NewWire(app.DefaultConfig(), nil)
	require.NoError(t, err)
	st, err := w.StatusClient("http://" + admin.Addr().String()).FetchStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SlotAwaitingKey, st.Slots[0].State)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return")
	}
}
