package api

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbiterhq/arbiter/internal/events"
)

func dialWS(t *testing.T, h *WSHandler) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg map[string]any
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestWSReceivesGlobalEvents(t *testing.T) {
	pub := events.NewMemoryPublisher()
	defer pub.Close()
	h := NewWSHandler(pub, nil)
	defer h.Close()

	conn := dialWS(t, h)

	// Connections start globally subscribed; give the forward loop a
	// moment to attach.
	require.Eventually(t, func() bool {
		return pub.SubscriberCount(events.GlobalProcessID) == 1
	}, time.Second, 10*time.Millisecond)

	pub.Publish(events.NewEvent(events.EventDecisionRequired, "proc-1", nil))

	msg := readJSON(t, conn)
	assert.Equal(t, "event", msg["type"])
	assert.Equal(t, "decision_required", msg["event"])
	assert.Equal(t, "proc-1", msg["process_id"])
}

func TestWSSubscribeToProcess(t *testing.T) {
	pub := events.NewMemoryPublisher()
	defer pub.Close()
	h := NewWSHandler(pub, nil)
	defer h.Close()

	conn := dialWS(t, h)
	require.NoError(t, conn.WriteJSON(WSMessage{Type: "subscribe", ProcessID: "proc-1"}))

	msg := readJSON(t, conn)
	assert.Equal(t, "subscribed", msg["type"])
	assert.Equal(t, "proc-1", msg["process_id"])

	require.Eventually(t, func() bool {
		return pub.SubscriberCount("proc-1") == 1
	}, time.Second, 10*time.Millisecond)

	pub.Publish(events.NewEvent(events.EventDecisionResolved, "proc-1", nil))
	msg = readJSON(t, conn)
	assert.Equal(t, "decision_resolved", msg["event"])
}

func TestWSPing(t *testing.T) {
	pub := events.NewMemoryPublisher()
	defer pub.Close()
	h := NewWSHandler(pub, nil)
	defer h.Close()

	conn := dialWS(t, h)
	require.NoError(t, conn.WriteJSON(WSMessage{Type: "ping"}))

	msg := readJSON(t, conn)
	assert.Equal(t, "pong", msg["type"])
}

func TestWSUnknownMessageType(t *testing.T) {
	pub := events.NewMemoryPublisher()
	defer pub.Close()
	h := NewWSHandler(pub, nil)
	defer h.Close()

	conn := dialWS(t, h)
	require.NoError(t, conn.WriteJSON(WSMessage{Type: "bogus"}))

	msg := readJSON(t, conn)
	assert.Equal(t, "error", msg["type"])
}
