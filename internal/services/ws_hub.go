package services

import (
	"encoding/json"
	"fmt"
	"sync"

	"cart-ratings-backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// wsClient wraps a connection with a write lock. gorilla/websocket
// allows at most one concurrent writer per connection, and sends come
// from both the connection's handler goroutine and the engine's
// notification drain.
type wsClient struct {
	writeMu sync.Mutex
	conn    *websocket.Conn
}

func (c *wsClient) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub manages WebSocket connections and fans rating events out to
// every connected client.
type WSHub struct {
	mu          sync.RWMutex
	connections map[string]*wsClient
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		connections: make(map[string]*wsClient),
	}
}

// Register registers a new WebSocket connection for a user
func (h *WSHub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Close existing connection if any
	if existing, exists := h.connections[userID]; exists {
		existing.conn.Close()
	}

	h.connections[userID] = &wsClient{conn: conn}

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
}

// Unregister removes a WebSocket connection for a user
func (h *WSHub) Unregister(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, exists := h.connections[userID]; exists {
		client.conn.Close()
		delete(h.connections, userID)
		log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
	}
}

// SendToUser sends a message to a specific user
func (h *WSHub) SendToUser(userID string, message WSMessage) error {
	h.mu.RLock()
	client, exists := h.connections[userID]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := client.write(data); err != nil {
		h.Unregister(userID)
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// PublishRating broadcasts a rating_created event to every connected
// client. Implements ChangePublisher for the sync engine.
func (h *WSHub) PublishRating(rating models.Rating, location models.Location) {
	message := WSMessage{
		Type: "rating_created",
		Data: RatingEvent{Rating: rating, Location: location},
	}

	h.mu.RLock()
	userIDs := make([]string, 0, len(h.connections))
	for userID := range h.connections {
		userIDs = append(userIDs, userID)
	}
	h.mu.RUnlock()

	for _, userID := range userIDs {
		if err := h.SendToUser(userID, message); err != nil {
			log.Error().
				Err(err).
				Str("user_id", userID).
				Str("rating_id", rating.ID).
				Msg("Failed to push rating event")
		}
	}
}
