package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"pet-service/internal/websocket"
)

type WebSocketHandler struct {
	hub *websocket.Hub
}

func NewWebSocketHandler(hub *websocket.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// Serve godoc
// @Summary Upgrade to a realtime WebSocket session
// @Description Authenticated via the token query parameter. An optional
// @Description pet_id query parameter joins that pet's room immediately.
// @Tags websocket
// @Param token query string true "JWT token"
// @Param pet_id query string false "Pet room to join on connect"
// @Success 101 "Switching protocols"
// @Failure 401 {object} models.ErrorResponse "Invalid token"
// @Router /ws [get]
func (h *WebSocketHandler) Serve(c *gin.Context) {
	userID := strconv.FormatUint(uint64(currentUserID(c)), 10)
	petID := c.Query("pet_id")
	websocket.ServeWS(h.hub, c.Writer, c.Request, userID, petID)
}
