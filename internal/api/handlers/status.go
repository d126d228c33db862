package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pet-service/internal/services"
	"pet-service/internal/websocket"
)

// StatusHandler exposes service health and hub introspection.
type StatusHandler struct {
	hub      *websocket.Hub
	presence *services.PresenceService
}

func NewStatusHandler(hub *websocket.Hub, presence *services.PresenceService) *StatusHandler {
	return &StatusHandler{hub: hub, presence: presence}
}

// Health godoc
// @Summary Liveness probe
// @Tags status
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *StatusHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ConnectionStatus godoc
// @Summary Realtime hub statistics
// @Tags status
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /status/connections [get]
func (h *StatusHandler) ConnectionStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"active_connections": h.hub.ConnectionCount(),
		"online_clients":     h.hub.OnlineClients(),
	})
}

// RoomStatus godoc
// @Summary Members of one pet room
// @Tags status
// @Produce json
// @Security BearerAuth
// @Param id path string true "Pet room ID"
// @Success 200 {object} map[string]interface{}
// @Router /status/rooms/{id} [get]
func (h *StatusHandler) RoomStatus(c *gin.Context) {
	roomID := c.Param("id")
	members := h.hub.RoomMembers(roomID)
	c.JSON(http.StatusOK, gin.H{
		"room_id":      roomID,
		"members":      members,
		"member_count": len(members),
	})
}

// OnlineUsers godoc
// @Summary Users currently online across all instances
// @Tags status
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /status/online [get]
func (h *StatusHandler) OnlineUsers(c *gin.Context) {
	users, err := h.presence.GetOnlineUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read presence"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"online_users": users, "count": len(users)})
}
