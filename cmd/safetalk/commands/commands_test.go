package commands

import (
	"bufio"
	"bytes"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safetalk/internal/app"
	"safetalk/internal/domain"
	"safetalk/internal/relay"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	root := newRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	require.NoError(t, root.Execute())
	return out.String()
}

func TestStatusCommand(t *testing.T) {
	ts := httptest.NewServer(relay.NewStatusHandler(relay.NewRoom(), nil))
	defer ts.Close()

	out := execute(t, "status", "--admin", ts.URL, "--log-level", "error")
	assert.Contains(t, out, "SLOT")
	assert.Contains(t, out, "empty")
	assert.Contains(t, out, "pairings=0 free=2")
}

func TestConfigCommand(t *testing.T) {
	out := execute(t, "config", "--log-level", "warn")
	assert.Contains(t, out, "queue_depth: 128")
	assert.Contains(t, out, "integrity: hmac-sha256")
	assert.Contains(t, out, "level: warn")
}

func TestConfigCommand_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "safetalk.yaml")
	out := execute(t, "config", "--write", path, "--log-level", "debug")
	assert.Contains(t, out, "wrote "+path)

	saved, err := app.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", saved.Log.Level)

	// The written file feeds back in through --config.
	out = execute(t, "config", "--config", path)
	assert.Contains(t, out, "level: debug")
}

func TestPromptNickname(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, "alice", promptNickname(bufio.NewReader(strings.NewReader("  alice \n")), &out))
	assert.Contains(t, out.String(), "Nickname [User]")
	assert.Equal(t, DefaultNickname, promptNickname(bufio.NewReader(strings.NewReader("\n")), &out))
	assert.Equal(t, DefaultNickname, promptNickname(bufio.NewReader(strings.NewReader("")), &out))
}

func TestEndMessage(t *testing.T) {
	assert.Equal(t, "Your peer left the chat.", endMessage(domain.EndPeerLeft))
	assert.Equal(t, "You left the chat.", endMessage(domain.EndLocalExit))
	assert.Contains(t, endMessage(domain.EndError), "error")
}

func TestConsoleSink(t *testing.T) {
	var out, errOut bytes.Buffer
	s := &consoleSink{out: &out, errOut: &errOut}
	s.Incoming("bob: hi")
	s.Outgoing("alice: hello")
	s.Notice("too long")
	assert.Equal(t, "bob: hi\n", out.String())
	assert.Equal(t, "! too long\n", errOut.String())
}
