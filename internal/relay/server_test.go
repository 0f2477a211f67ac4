package relay_test

import (
	"context"
	"io"
	"net"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safetalk/internal/domain"
	"safetalk/internal/protocol/frame"
	"safetalk/internal/protocol/handshake"
	"safetalk/internal/relay"
)

func startServer(t *testing.T, opts ...relay.Option) (*relay.Server, string) {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	entry := logrus.NewEntry(logger)
	room := relay.NewRoom(relay.WithRoomLogger(entry))
	srv := relay.NewServer(room, append([]relay.Option{relay.WithLogger(entry)}, opts...)...)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("Serve did not return after cancel")
		}
	})
	return srv, ln.Addr().String()
}

type client struct {
	conn net.Conn
	res  handshake.Result
}

// dialAndHandshake connects, sends a nickname and runs the key exchange in
// the background; wait() collects the result once the peer has joined.
func dialAndHandshake(t *testing.T, addr, nick string) func() client {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, handshake.WriteNickname(conn, domain.NewNickname(nick)))

	type out struct {
		res handshake.Result
		err error
	}
	ch := make(chan out, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		res, err := handshake.Exchange(ctx, conn)
		ch <- out{res, err}
	}()
	return func() client {
		o := <-ch
		require.NoError(t, o.err)
		return client{conn: conn, res: o.res}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 5*time.Second, 10*time.Millisecond)
}

// joinPair dials alice then bob, waiting for each to take a slot so alice
// always lands in slot 0.
func joinPair(t *testing.T, srv *relay.Server, addr string) (client, client) {
	t.Helper()
	waitA := dialAndHandshake(t, addr, "alice")
	waitFor(t, func() bool { return srv.Room().Status().Free() == 1 })
	waitB := dialAndHandshake(t, addr, "bob")
	return waitA(), waitB()
}

func TestServer_EndToEndThroughRelay(t *testing.T) {
	srv, addr := startServer(t)
	a, b := joinPair(t, srv, addr)

	assert.Equal(t, a.res.Key, b.res.Key)
	assert.Equal(t, a.res.LocalPublic, b.res.PeerPublic)

	ca, err := frame.NewCodec(a.res.Key)
	require.NoError(t, err)
	cb, err := frame.NewCodec(b.res.Key)
	require.NoError(t, err)

	require.NoError(t, ca.Send(a.conn, []byte("alice: hello")))
	got, err := cb.Recv(b.conn)
	require.NoError(t, err)
	assert.Equal(t, "alice: hello", string(got))

	require.NoError(t, cb.Send(b.conn, []byte("bob: hi")))
	got, err = ca.Recv(a.conn)
	require.NoError(t, err)
	assert.Equal(t, "bob: hi", string(got))

	st := srv.Room().Status()
	assert.Equal(t, uint64(1), st.Pairings)
	assert.Equal(t, "alice", st.Slots[0].Nickname)
	assert.Equal(t, "bob", st.Slots[1].Nickname)
}

func TestServer_ThirdConnectionRefused(t *testing.T) {
	srv, addr := startServer(t)
	joinPair(t, srv, addr)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	_, err = conn.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
}

func TestServer_DisconnectFreesSlotForReconnect(t *testing.T) {
	srv, addr := startServer(t)
	a, b := joinPair(t, srv, addr)

	a.conn.Close()
	waitFor(t, func() bool { return srv.Room().Status().Slots[0].State == domain.SlotEmpty })
	assert.False(t, srv.Room().Status().Exchanged)

	// Bob is still connected and gets carol's key on the new pairing.
	waitC := dialAndHandshake(t, addr, "carol")
	require.NoError(t, b.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	carolKey, err := handshake.ReadPublicKey(b.conn)
	require.NoError(t, err)

	c := waitC()
	assert.Equal(t, c.res.LocalPublic, carolKey)
	assert.Equal(t, b.res.LocalPublic, c.res.PeerPublic)
	assert.Equal(t, uint64(2), srv.Room().Status().Pairings)
}

func TestServer_MalformedFrameDropsPeer(t *testing.T) {
	srv, addr := startServer(t)
	a, _ := joinPair(t, srv, addr)

	// Length 10 is below the 48-byte minimum.
	_, err := a.conn.Write([]byte{0, 0, 0, 10})
	require.NoError(t, err)
	waitFor(t, func() bool { return srv.Room().Status().Slots[0].State == domain.SlotEmpty })
}

func TestServer_HandshakeTimeout(t *testing.T) {
	srv, addr := startServer(t, relay.WithHandshakeTimeout(300*time.Millisecond))
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	waitFor(t, func() bool { return srv.Room().Status().Slots[0].State == domain.SlotAwaitingKey })
	waitFor(t, func() bool { return srv.Room().Status().Slots[0].State == domain.SlotEmpty })

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, err = conn.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
}

func TestStatusHandler(t *testing.T) {
	room := relay.NewRoom()
	logger, hook := logtest.NewNullLogger()
	ts := httptest.NewServer(relay.NewStatusHandler(room, logrus.NewEntry(logger)))
	defer ts.Close()

	server, clientEnd := net.Pipe()
	defer clientEnd.Close()
	p, err := room.Join(server)
	require.NoError(t, err)
	defer room.Leave(p)

	st, err := relay.NewHTTP(ts.URL+"/", ts.Client()).FetchStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.SlotAwaitingKey, st.Slots[0].State)
	assert.Equal(t, domain.SlotEmpty, st.Slots[1].State)
	assert.Equal(t, 1, st.Free())

	require.NotEmpty(t, hook.AllEntries())
	last := hook.LastEntry()
	assert.Equal(t, "/status", last.Data["path"])
	assert.Equal(t, 200, last.Data["status"])
}

func TestStatusClient_ErrorStatus(t *testing.T) {
	ts := httptest.NewServer(relay.NewStatusHandler(relay.NewRoom(), nil))
	defer ts.Close()

	c := relay.NewHTTP(ts.URL, nil)
	c.Base += "/missing"
	_, err := c.FetchStatus(context.Background())
	assert.Error(t, err)
}
