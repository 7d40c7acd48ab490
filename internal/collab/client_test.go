package collab

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nwesha/Zcoder/internal/domain"
)

// newSocketPair dials a throwaway httptest server and returns both ends of
// one websocket connection.
func newSocketPair(t *testing.T) (server, peer *websocket.Conn) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	conns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	peer, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { peer.Close() })

	select {
	case server = <-conns:
		t.Cleanup(func() { server.Close() })
		return server, peer
	case <-time.After(time.Second):
		t.Fatal("server side of the socket never arrived")
		return nil, nil
	}
}

func newClientFixture(t *testing.T, conn *websocket.Conn) (*Client, *fakeMembership) {
	t.Helper()
	gw := newFakeGateway(testRoom())
	registry := NewRegistry(gw, DefaultConfig(), testLogger())
	membership := newFakeMembership()
	binder := NewBinder(registry, membership, testLogger())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = registry.Shutdown(ctx)
	})
	return NewClient(conn, domain.UserRef{ID: 1, Username: "alice"}, binder, testLogger()), membership
}

func TestSlowConsumerCloseKeepsLaterSendsSafe(t *testing.T) {
	conn, peer := newSocketPair(t)
	c, _ := newClientFixture(t, conn)

	// No write pump is running, so the queue never drains. Filling it and
	// sending one more trips the slow-consumer teardown.
	for i := 0; i <= sendQueueSize; i++ {
		c.SendRaw([]byte(`{"event":"noise"}`))
	}

	// The session actor may still broadcast to this connection until the
	// read pump unbinds it; those sends must be dropped, never panic.
	require.NotPanics(t, func() {
		c.SendRaw([]byte(`{"event":"late"}`))
		c.SendEvent(EventError, ErrorData{Message: "late"})
	})

	// The transport itself was torn down.
	peer.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err := peer.ReadMessage()
	assert.Error(t, err)
}

func TestRunUnbindsWhenPeerDisconnects(t *testing.T) {
	conn, peer := newSocketPair(t)
	c, membership := newClientFixture(t, conn)
	membership.allow(1, 1)

	done := make(chan struct{})
	go func() {
		c.Run(context.Background())
		close(done)
	}()

	join, err := json.Marshal(JoinRoomData{RoomID: 1, UserID: 1})
	require.NoError(t, err)
	require.NoError(t, peer.WriteJSON(Envelope{Event: EventJoinRoom, Data: join}))

	peer.SetReadDeadline(time.Now().Add(time.Second))
	var env Envelope
	require.NoError(t, peer.ReadJSON(&env))
	require.Equal(t, EventRoomJoined, env.Event)

	require.NoError(t, peer.Close())
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("run did not return after the peer disconnected")
	}
	assert.Nil(t, c.Session())
}
