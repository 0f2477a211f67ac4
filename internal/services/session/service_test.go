package session_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safetalk/internal/domain"
	"safetalk/internal/protocol/handshake"
	"safetalk/internal/relay"
	"safetalk/internal/services/session"
)

func startRelay(t *testing.T) (*relay.Room, string) {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	entry := logrus.NewEntry(logger)
	room := relay.NewRoom(relay.WithRoomLogger(entry))
	srv := relay.NewServer(room, relay.WithLogger(entry))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx, ln)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return room, ln.Addr().String()
}

// deadAddr returns a loopback address nothing listens on.
func deadAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func quietLogger() *logrus.Entry {
	logger, _ := logtest.NewNullLogger()
	return logrus.NewEntry(logger)
}

func TestConnect_PairsTwoClients(t *testing.T) {
	room, addr := startRelay(t)
	svc := session.New([]string{deadAddr(t), addr},
		session.WithDialTimeout(time.Second),
		session.WithLogger(quietLogger()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	type out struct {
		s   domain.Session
		err error
	}
	first := make(chan out, 1)
	go func() {
		s, err := svc.Connect(ctx, domain.NewNickname("alice"))
		first <- out{s, err}
	}()
	require.Eventually(t, func() bool { return room.Status().Free() == 1 }, 5*time.Second, 10*time.Millisecond)

	bob, err := svc.Connect(ctx, domain.NewNickname("bob"))
	require.NoError(t, err)
	defer bob.Conn.Close()
	a := <-first
	require.NoError(t, a.err)
	defer a.s.Conn.Close()

	assert.Equal(t, a.s.Key, bob.Key)
	assert.Equal(t, a.s.LocalPublic, bob.PeerPublic)
	assert.Equal(t, bob.LocalPublic, a.s.PeerPublic)
	assert.Equal(t, "alice", a.s.Nickname.String())

	st := room.Status()
	assert.Equal(t, "alice", st.Slots[0].Nickname)
	assert.Equal(t, "bob", st.Slots[1].Nickname)
}

func TestConnect_NoRelayReachable(t *testing.T) {
	svc := session.New([]string{deadAddr(t), deadAddr(t)}, session.WithLogger(quietLogger()))
	_, err := svc.Connect(context.Background(), domain.NewNickname("alice"))
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestConnect_CanceledWhileWaitingForPeer(t *testing.T) {
	room, addr := startRelay(t)
	svc := session.New([]string{addr}, session.WithLogger(quietLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := svc.Connect(ctx, domain.NewNickname("alice"))
		errc <- err
	}()
	require.Eventually(t, func() bool { return room.Status().Free() == 1 }, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Connect did not return after cancel")
	}
	// The relay sees the closed conn and frees the slot.
	require.Eventually(t, func() bool { return room.Status().Free() == 2 }, 5*time.Second, 10*time.Millisecond)
}

func TestConnect_RoomFull(t *testing.T) {
	room, addr := startRelay(t)
	for _, name := range []string{"alice", "bob"} {
		conn, err := net.Dial("tcp", addr)
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })
		require.NoError(t, handshake.WriteNickname(conn, domain.NewNickname(name)))
	}
	require.Eventually(t, func() bool { return room.Status().Free() == 0 }, 5*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	svc := session.New([]string{addr}, session.WithLogger(quietLogger()))
	_, err := svc.Connect(ctx, domain.NewNickname("carol"))
	assert.ErrorIs(t, err, domain.ErrSessionFull)
	assert.ErrorContains(t, err, "room full")
}

func TestNew_DefaultRelays(t *testing.T) {
	assert.Equal(t, []string{"server:5555", "127.0.0.1:5555"}, session.DefaultRelays)
}
