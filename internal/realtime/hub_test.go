package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, hub *Hub, userID string, streams ...string) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(userID, streams, KnownStreams(), w, r)
	}))
	t.Cleanup(srv.Close)

	socket, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = socket.Close() })
	return socket
}

func readMessage(t *testing.T, socket *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, socket.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, socket.ReadJSON(&msg))
	return msg
}

func TestHubBroadcastStream(t *testing.T) {
	hub := NewHub()
	socket := dialHub(t, hub, "volunteer-1", StreamEmergencyPosts)

	// The subscription registers before the read loop starts, but give the
	// server handler a moment on slow machines.
	go func() {
		for i := 0; i < 50; i++ {
			hub.BroadcastStream(StreamEmergencyPosts,
				Change(StreamEmergencyPosts, EventInsert, map[string]string{"id": "post-1"}))
			time.Sleep(10 * time.Millisecond)
		}
	}()

	msg := readMessage(t, socket)
	require.Equal(t, StreamEmergencyPosts, msg.Stream)
	require.Equal(t, EventInsert, msg.Event)
}

func TestHubBroadcastToUserTargetsOnlyThatUser(t *testing.T) {
	hub := NewHub()
	target := dialHub(t, hub, "hospital-1", StreamParticipations)
	other := dialHub(t, hub, "hospital-2", StreamParticipations)

	go func() {
		for i := 0; i < 50; i++ {
			hub.BroadcastToUser(StreamParticipations, "hospital-1",
				Change(StreamParticipations, EventUpdate, map[string]string{"id": "p-1"}))
			time.Sleep(10 * time.Millisecond)
		}
	}()

	msg := readMessage(t, target)
	require.Equal(t, StreamParticipations, msg.Stream)

	require.NoError(t, other.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	var stray Message
	require.Error(t, other.ReadJSON(&stray))
}

func TestHubPingControl(t *testing.T) {
	hub := NewHub()
	socket := dialHub(t, hub, "volunteer-1")

	require.NoError(t, socket.WriteJSON(map[string]string{"action": "ping"}))
	msg := readMessage(t, socket)
	require.Equal(t, "pong", msg.Event)
}

func TestHubSubscribeControl(t *testing.T) {
	hub := NewHub()
	socket := dialHub(t, hub, "bank-1")

	require.NoError(t, socket.WriteJSON(controlFrame{Action: "subscribe", Streams: []string{StreamInventory}}))

	go func() {
		for i := 0; i < 50; i++ {
			hub.BroadcastStream(StreamInventory,
				Change(StreamInventory, EventDelete, map[string]string{"id": "item-1"}))
			time.Sleep(10 * time.Millisecond)
		}
	}()

	msg := readMessage(t, socket)
	require.Equal(t, StreamInventory, msg.Stream)
	require.Equal(t, EventDelete, msg.Event)
}

func TestBareHost(t *testing.T) {
	require.Equal(t, "example.com", bareHost("https://example.com:8443"))
	require.Equal(t, "example.com", bareHost("example.com:80"))
	require.Equal(t, "localhost", bareHost("http://localhost:3000"))
	require.Equal(t, "", bareHost("  "))
	require.True(t, isLoopback("127.0.0.1"))
	require.True(t, isLoopback("localhost"))
	require.False(t, isLoopback("example.com"))
}
