package handlers

import (
	"net/http"

	"cart-ratings-backend/internal/middleware"
	"cart-ratings-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for MVP
	},
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub         *services.WSHub
	userService *services.UserService
	engine      *services.SyncEngine
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *services.WSHub,
	userService *services.UserService,
	engine *services.SyncEngine,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		userService: userService,
		engine:      engine,
	}
}

// HandleWebSocket handles WebSocket connections. Authenticated clients
// receive a snapshot of the current groups on connect and every
// rating_created event afterwards.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Get token from query parameter
	token := r.URL.Query().Get("token")
	userID, err := middleware.ValidateWebSocketToken(token, h.userService)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	// Upgrade connection
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID)

	// Snapshot first, so clients start from merged state rather than
	// replaying history.
	snapshot := services.WSMessage{
		Type: "groups_snapshot",
		Data: h.engine.Groups(),
	}
	if err := h.hub.SendToUser(userID, snapshot); err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Msg("Failed to send groups snapshot")
		return
	}

	log.Info().Str("user_id", userID).Msg("WebSocket connection established")

	// The stream is push-only; reading just detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			break
		}
	}
}
