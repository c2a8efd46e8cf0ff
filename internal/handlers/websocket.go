package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/greattrades/internal/common"
	"github.com/ternarybob/greattrades/internal/interfaces"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

const writeTimeout = 5 * time.Second

// WSMessage is the envelope of every message pushed to clients
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type wsClient struct {
	userID string
	mu     sync.Mutex // gorilla connections allow one concurrent writer
}

// WebSocketHandler pushes batch progress to connected browsers. Events carrying
// a UserID only reach that user's connections.
type WebSocketHandler struct {
	logger           arbor.ILogger
	clients          map[*websocket.Conn]*wsClient
	mu               sync.RWMutex
	allowedEvents    map[string]bool          // Whitelist of events to broadcast (empty = allow all)
	throttlers       map[string]*rate.Limiter // Per event type; events over the limit are dropped
	serverInstanceID string                   // Clients use this to detect a server restart
}

func NewWebSocketHandler(eventService interfaces.EventService, logger arbor.ILogger, config *common.WebSocketConfig) *WebSocketHandler {
	h := &WebSocketHandler{
		logger:           logger,
		clients:          make(map[*websocket.Conn]*wsClient),
		allowedEvents:    make(map[string]bool),
		throttlers:       make(map[string]*rate.Limiter),
		serverInstanceID: uuid.New().String(),
	}

	if config != nil {
		for _, eventType := range config.AllowedEvents {
			h.allowedEvents[eventType] = true
		}

		for eventType, intervalStr := range config.ThrottleIntervals {
			duration, err := time.ParseDuration(intervalStr)
			if err != nil || duration <= 0 {
				logger.Warn().
					Str("event_type", eventType).
					Str("interval", intervalStr).
					Msg("Invalid throttle interval - throttler disabled")
				continue
			}
			h.throttlers[eventType] = rate.NewLimiter(rate.Every(duration), 1)
			logger.Debug().
				Str("event_type", eventType).
				Str("interval", intervalStr).
				Msg("Throttler initialized")
		}
	}

	if eventService != nil {
		h.subscribe(eventService)
	}

	logger.Info().
		Str("server_instance_id", h.serverInstanceID).
		Int("allowed_events", len(h.allowedEvents)).
		Int("throttled_events", len(h.throttlers)).
		Msg("WebSocket handler initialized")

	return h
}

func (h *WebSocketHandler) subscribe(eventService interfaces.EventService) {
	for _, eventType := range interfaces.EventTypes() {
		if len(h.allowedEvents) > 0 && !h.allowedEvents[string(eventType)] {
			continue
		}
		err := eventService.Subscribe(eventType, func(ctx context.Context, event interfaces.Event) error {
			h.Broadcast(event)
			return nil
		})
		if err != nil {
			h.logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("Failed to subscribe WebSocket handler")
		}
	}
}

// HandleWebSocket handles WebSocket connections on /ws
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	client := &wsClient{userID: userID}
	h.mu.Lock()
	h.clients[conn] = client
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Str("user_id", userID).Int("clients", count).Msg("WebSocket client connected")

	h.send(conn, client, WSMessage{
		Type: "hello",
		Payload: map[string]string{
			"server_instance_id": h.serverInstanceID,
			"version":            common.GetVersion(),
		},
	})

	defer h.remove(conn)

	// Read messages from client (keep connection alive)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			return
		}
	}
}

func (h *WebSocketHandler) remove(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	count := len(h.clients)
	h.mu.Unlock()

	if ok {
		conn.Close()
		h.logger.Debug().Int("clients", count).Msg("WebSocket client disconnected")
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends an event to the clients it belongs to. Events over their
// throttle rate are dropped.
func (h *WebSocketHandler) Broadcast(event interfaces.Event) {
	eventType := string(event.Type)
	if len(h.allowedEvents) > 0 && !h.allowedEvents[eventType] {
		return
	}
	if limiter, ok := h.throttlers[eventType]; ok && !limiter.Allow() {
		return
	}

	userID := event.UserID

	data, err := json.Marshal(WSMessage{Type: eventType, Payload: event.Payload})
	if err != nil {
		h.logger.Error().Err(err).Str("event_type", eventType).Msg("Failed to marshal WebSocket message")
		return
	}

	h.mu.RLock()
	targets := make(map[*websocket.Conn]*wsClient)
	for conn, client := range h.clients {
		if client.userID == userID {
			targets[conn] = client
		}
	}
	h.mu.RUnlock()

	for conn, client := range targets {
		if err := h.write(conn, client, data); err != nil {
			h.logger.Warn().Err(err).Str("event_type", eventType).Msg("Failed to send event to client")
			h.remove(conn)
		}
	}
}

func (h *WebSocketHandler) send(conn *websocket.Conn, client *wsClient, msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("type", msg.Type).Msg("Failed to marshal WebSocket message")
		return
	}
	if err := h.write(conn, client, data); err != nil {
		h.logger.Warn().Err(err).Str("type", msg.Type).Msg("Failed to send message to client")
	}
}

func (h *WebSocketHandler) write(conn *websocket.Conn, client *wsClient, data []byte) error {
	client.mu.Lock()
	defer client.mu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}
