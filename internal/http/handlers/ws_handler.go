package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	wshub "greenhat/internal/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboards are served from other origins; auth happens via the JWT
	// middleware, not the Origin header.
	CheckOrigin: func(*http.Request) bool { return true },
}

// WSHandlers upgrades dashboard connections onto the snapshot hub.
type WSHandlers struct {
	hub    *wshub.Hub
	logger *zap.Logger
}

// NewWSHandlers returns handler.
func NewWSHandlers(hub *wshub.Hub, logger *zap.Logger) *WSHandlers {
	return &WSHandlers{hub: hub, logger: logger}
}

// Connect handles GET /api/ws.
func (h *WSHandlers) Connect(w http.ResponseWriter, r *http.Request) {
	sock, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	h.hub.Add(sock)
}
