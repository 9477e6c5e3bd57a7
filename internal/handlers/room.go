package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/chatserver/internal/chat"
	"github.com/thereayou/chatserver/internal/middleware"
)

type RoomHandler struct {
	service *chat.Service
}

func NewRoomHandler(service *chat.Service) *RoomHandler {
	return &RoomHandler{service: service}
}

// CreateGroupRoom создает новую групповую комнату
func (h *RoomHandler) CreateGroupRoom(c *gin.Context) {
	email := c.MustGet(middleware.EmailKey).(string)

	var req struct {
		Name string `json:"name" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := h.service.CreateGroupRoom(email, req.Name)
	if err != nil {
		respondChatError(c, err, "failed to create room")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"roomId":   room.ID,
		"roomName": room.Name,
	})
}

// ListGroupRooms отдаёт список групповых комнат
func (h *RoomHandler) ListGroupRooms(c *gin.Context) {
	rooms, err := h.service.ListGroupRooms()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list rooms"})
		return
	}

	result := make([]gin.H, len(rooms))
	for i, room := range rooms {
		result[i] = gin.H{"roomId": room.ID, "roomName": room.Name}
	}

	c.JSON(http.StatusOK, result)
}

// JoinGroupRoom добавляет пользователя в групповую комнату
func (h *RoomHandler) JoinGroupRoom(c *gin.Context) {
	email := c.MustGet(middleware.EmailKey).(string)

	roomID, err := parseRoomID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	if err := h.service.JoinGroupRoom(email, roomID); err != nil {
		respondChatError(c, err, "failed to join room")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "joined room"})
}

// LeaveGroupRoom убирает пользователя из комнаты; пустая комната удаляется
func (h *RoomHandler) LeaveGroupRoom(c *gin.Context) {
	email := c.MustGet(middleware.EmailKey).(string)

	roomID, err := parseRoomID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	if err := h.service.LeaveGroupRoom(email, roomID); err != nil {
		respondChatError(c, err, "failed to leave room")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "left room"})
}

// MyRooms отдаёт комнаты пользователя с количеством непрочитанных
func (h *RoomHandler) MyRooms(c *gin.Context) {
	email := c.MustGet(middleware.EmailKey).(string)

	summaries, err := h.service.MyRooms(email)
	if err != nil {
		respondChatError(c, err, "failed to list rooms")
		return
	}

	c.JSON(http.StatusOK, summaries)
}

// CreatePrivateRoom находит или создаёт 1:1 комнату с другим пользователем
func (h *RoomHandler) CreatePrivateRoom(c *gin.Context) {
	email := c.MustGet(middleware.EmailKey).(string)

	var req struct {
		OtherMemberID int64 `json:"otherMemberId" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	roomID, err := h.service.GetOrCreatePrivateRoom(email, req.OtherMemberID)
	if err != nil {
		respondChatError(c, err, "failed to create private room")
		return
	}

	c.JSON(http.StatusOK, gin.H{"roomId": roomID})
}

func parseRoomID(c *gin.Context) (int64, error) {
	roomID, err := strconv.ParseInt(c.Param("roomId"), 10, 64)
	if err != nil || roomID <= 0 {
		return 0, errors.New("invalid room id")
	}
	return roomID, nil
}

// respondChatError транслирует ошибки сервиса в HTTP статусы
func respondChatError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, chat.ErrRoomNotFound), errors.Is(err, chat.ErrMemberNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, chat.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, chat.ErrNotGroupRoom), errors.Is(err, chat.ErrSelfChat):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
