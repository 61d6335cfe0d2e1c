package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

const maxPageSize = 100

// MessageHandler serves message history and the read-flag update.
type MessageHandler struct {
	messages    repositories.MessageRepository
	defaultPage int
}

// NewMessageHandler builds a MessageHandler. pageSize is the default history
// page size when the request does not specify one.
func NewMessageHandler(messages repositories.MessageRepository, pageSize int) *MessageHandler {
	return &MessageHandler{messages: messages, defaultPage: pageSize}
}

// GetMessages returns one page of the conversation between userId and chatId
// (the peer's user id), in chronological ascending wire order. Pages are
// 1-based; a page past the end yields an empty list, not an error.
func (h *MessageHandler) GetMessages(c *gin.Context) {
	userID, err := strconv.Atoi(c.Query("userId"))
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	chatID, err := strconv.Atoi(c.Query("chatId"))
	if err != nil || chatID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	page := 1
	if raw := c.Query("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
			return
		}
	}

	limit := h.defaultPage
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxPageSize {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
	}

	offset := (page - 1) * limit
	msgs, err := h.messages.GetConversationPage(c.Request.Context(), userID, chatID, offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error fetching messages"})
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// MarkRead flags the given messages as read. Unknown ids are ignored, so
// repeating the call is harmless.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	var req struct {
		MessageIDs []int `json:"messageIds" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.messages.MarkRead(c.Request.Context(), req.MessageIDs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error marking messages as read"})
		return
	}

	c.Status(http.StatusOK)
}
