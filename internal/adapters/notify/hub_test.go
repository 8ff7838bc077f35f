package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
)

func serveHub(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.URL.Query().Get("user"))
		if err != nil {
			http.Error(w, "bad user", http.StatusBadRequest)
			return
		}
		_ = hub.Serve(w, r, userID)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, userID uuid.UUID) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=" + userID.String()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHub_DeliversToEveryConnectionOfUser(t *testing.T) {
	hub := NewHub(logger.NewNop())
	srv := serveHub(t, hub)
	alice, bob := uuid.New(), uuid.New()

	a1 := dial(t, srv, alice)
	a2 := dial(t, srv, alice)
	b := dial(t, srv, bob)
	require.Eventually(t, func() bool {
		return hub.Connections(alice) == 2 && hub.Connections(bob) == 1
	}, time.Second, 10*time.Millisecond)

	n := &entities.Notification{ID: uuid.New(), UserID: alice, Message: "⏰ Timer finished: tea", CreatedAt: time.Now().UTC()}
	require.NoError(t, hub.Notify(context.Background(), n))

	for _, conn := range []*websocket.Conn{a1, a2} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, "notification", msg.Type)
		assert.Equal(t, n.ID, msg.ID)
		assert.Equal(t, "⏰ Timer finished: tea", msg.Message)
	}

	_ = b.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := b.ReadMessage()
	assert.Error(t, err, "bob must not receive alice's notification")
}

func TestHub_NotifyWithoutConnections(t *testing.T) {
	hub := NewHub(logger.NewNop())
	err := hub.Notify(context.Background(), &entities.Notification{ID: uuid.New(), UserID: uuid.New(), Message: "x"})
	assert.NoError(t, err)
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub := NewHub(logger.NewNop())
	srv := serveHub(t, hub)
	user := uuid.New()

	conn := dial(t, srv, user)
	require.Eventually(t, func() bool { return hub.Connections(user) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Connections(user) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_Close(t *testing.T) {
	hub := NewHub(logger.NewNop())
	srv := serveHub(t, hub)
	user := uuid.New()

	conn := dial(t, srv, user)
	require.Eventually(t, func() bool { return hub.Connections(user) == 1 }, time.Second, 10*time.Millisecond)

	hub.Close()
	assert.Zero(t, hub.Connections(user))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}
