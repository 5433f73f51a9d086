package services

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"cart-ratings-backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialHubConn spins up a websocket endpoint that registers the server
// side of the connection in the hub and returns the client side.
func dialHubConn(t *testing.T, hub *WSHub, userID string) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(userID, conn)
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		_, ok := hub.connections[userID]
		return ok
	}, time.Second, 10*time.Millisecond, "connection never registered")

	return client
}

func TestWSHubSendToUnknownUser(t *testing.T) {
	t.Parallel()

	hub := NewWSHub()
	err := hub.SendToUser("nobody", WSMessage{Type: "groups_snapshot"})
	require.Error(t, err)
}

// Snapshot sends from the connection's handler and broadcasts from the
// engine's notification drain target the same connection; writes must
// be serialized so neither goroutine corrupts a frame.
func TestWSHubConcurrentSnapshotAndBroadcast(t *testing.T) {
	hub := NewWSHub()
	client := dialHubConn(t, hub, "author-1")

	const sends = 50
	received := make(chan string, 2*sends)
	go func() {
		for {
			var msg WSMessage
			if err := client.ReadJSON(&msg); err != nil {
				return
			}
			received <- msg.Type
		}
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < sends; i++ {
			assert.NoError(t, hub.SendToUser("author-1", WSMessage{Type: "groups_snapshot"}))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < sends; i++ {
			hub.PublishRating(models.Rating{ID: "rating-1"}, models.Location{ID: "loc-1"})
		}
	}()
	wg.Wait()

	var snapshots, events int
	for i := 0; i < 2*sends; i++ {
		select {
		case typ := <-received:
			switch typ {
			case "groups_snapshot":
				snapshots++
			case "rating_created":
				events++
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for message %d", i)
		}
	}
	require.Equal(t, sends, snapshots)
	require.Equal(t, sends, events)
}

func TestWSHubUnregisterDropsConnection(t *testing.T) {
	hub := NewWSHub()
	dialHubConn(t, hub, "author-1")

	hub.Unregister("author-1")
	require.Error(t, hub.SendToUser("author-1", WSMessage{Type: "groups_snapshot"}))
}
