package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/chatserver/internal/chat"
	"github.com/thereayou/chatserver/internal/handlers/dto"
	"github.com/thereayou/chatserver/internal/middleware"
)

type HTTPMessageHandler struct {
	service *chat.Service
}

func NewHTTPMessageHandler(service *chat.Service) *HTTPMessageHandler {
	return &HTTPMessageHandler{service: service}
}

// GetHistory получает историю сообщений комнаты в порядке создания
func (h *HTTPMessageHandler) GetHistory(c *gin.Context) {
	email := c.MustGet(middleware.EmailKey).(string)

	roomID, err := parseRoomID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	messages, err := h.service.History(email, roomID)
	if err != nil {
		respondChatError(c, err, "failed to get history")
		return
	}

	result := make([]dto.MessageResponse, len(messages))
	for i, msg := range messages {
		result[i] = dto.MessageResponse{
			ID:          msg.ID,
			RoomID:      msg.RoomID,
			SenderEmail: msg.Member.Email,
			Content:     msg.Content,
			CreatedAt:   msg.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, result)
}

// MarkRead помечает все сообщения комнаты прочитанными для пользователя
func (h *HTTPMessageHandler) MarkRead(c *gin.Context) {
	email := c.MustGet(middleware.EmailKey).(string)

	roomID, err := parseRoomID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	if err := h.service.MarkRead(email, roomID); err != nil {
		respondChatError(c, err, "failed to mark room read")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "room marked read"})
}
