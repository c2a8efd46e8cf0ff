package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/greattrades/internal/common"
	"github.com/ternarybob/greattrades/internal/interfaces"
	"github.com/ternarybob/greattrades/internal/services/events"
)

func dialWebSocket(t *testing.T, server *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?user=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	var hello WSMessage
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&hello))
	require.Equal(t, "hello", hello.Type)
	return conn
}

func waitForClients(t *testing.T, handler *WebSocketHandler, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return handler.ClientCount() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocket_EventsReachOnlyTheirUser(t *testing.T) {
	logger := arbor.NewLogger()
	eventService := events.NewService(logger)
	handler := NewWebSocketHandler(eventService, logger, &common.WebSocketConfig{})

	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	defer server.Close()

	alice := dialWebSocket(t, server, "alice")
	bob := dialWebSocket(t, server, "bob")
	waitForClients(t, handler, 2)

	require.NoError(t, eventService.PublishSync(context.Background(), interfaces.Event{
		Type:    interfaces.EventBatchCompleted,
		UserID:  "alice",
		Payload: map[string]interface{}{"user_id": "alice", "summary": "1 succeeded, 0 failed"},
	}))

	var msg WSMessage
	alice.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, alice.ReadJSON(&msg))
	assert.Equal(t, "batch_completed", msg.Type)
	assert.Equal(t, "1 succeeded, 0 failed", msg.Payload.(map[string]interface{})["summary"])

	bob.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	assert.Error(t, bob.ReadJSON(&msg))
}

func TestWebSocket_ThrottleDropsBurst(t *testing.T) {
	logger := arbor.NewLogger()
	handler := NewWebSocketHandler(nil, logger, &common.WebSocketConfig{
		ThrottleIntervals: map[string]string{"analysis_completed": "1h"},
	})

	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	defer server.Close()

	conn := dialWebSocket(t, server, "alice")
	waitForClients(t, handler, 1)

	for i := 0; i < 3; i++ {
		handler.Broadcast(interfaces.Event{
			Type:    interfaces.EventAnalysisCompleted,
			UserID:  "alice",
			Payload: map[string]interface{}{"user_id": "alice", "index": i},
		})
	}

	var msg WSMessage
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, float64(0), msg.Payload.(map[string]interface{})["index"])

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	assert.Error(t, conn.ReadJSON(&msg))
}

func TestWebSocket_AllowedEventsFilter(t *testing.T) {
	handler := NewWebSocketHandler(nil, arbor.NewLogger(), &common.WebSocketConfig{
		AllowedEvents: []string{"batch_completed"},
	})

	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	defer server.Close()

	conn := dialWebSocket(t, server, "")
	waitForClients(t, handler, 1)

	handler.Broadcast(interfaces.Event{Type: interfaces.EventBatchStarted, Payload: map[string]interface{}{}})
	handler.Broadcast(interfaces.Event{Type: interfaces.EventBatchCompleted, Payload: map[string]interface{}{}})

	var msg WSMessage
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "batch_completed", msg.Type)
}
