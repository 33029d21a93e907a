package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chatapp/internal/repositories"
	"chatapp/internal/ws"
)

// ChatHandler serves message history and presence queries.
type ChatHandler struct {
	messageRepo  repositories.MessageRepository
	presence     *ws.PresenceTracker
	historyLimit int
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(messageRepo repositories.MessageRepository, presence *ws.PresenceTracker, historyLimit int) *ChatHandler {
	return &ChatHandler{
		messageRepo:  messageRepo,
		presence:     presence,
		historyLimit: historyLimit,
	}
}

// GetMessages returns the public feed, or the private conversation with
// recipient_id. Rows are oldest first and carry a per-viewer is_read flag.
func (h *ChatHandler) GetMessages(c *gin.Context) {
	userID := c.GetInt("userID")

	limit := h.historyLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	var peerID *int
	if raw := c.Query("recipient_id"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipient id"})
			return
		}
		peerID = &parsed
	}

	msgs, err := h.messageRepo.ListVisibleMessages(c.Request.Context(), userID, peerID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// GetOnlineUsers returns the ids of users with at least one open connection.
func (h *ChatHandler) GetOnlineUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"online": h.presence.Online()})
}
