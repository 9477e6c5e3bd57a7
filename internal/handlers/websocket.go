package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/thereayou/chatserver/internal/chat"
	"github.com/thereayou/chatserver/internal/middleware"
	ws "github.com/thereayou/chatserver/internal/websocket"
	"github.com/thereayou/chatserver/pkg/auth"
)

// SubscribeAuthorizer проверяет кадры подписки: токен кадра
// и актуальное членство в комнате
type SubscribeAuthorizer struct {
	jwtManager *auth.JWTManager
	service    *chat.Service
}

func NewSubscribeAuthorizer(jwtMgr *auth.JWTManager, service *chat.Service) *SubscribeAuthorizer {
	return &SubscribeAuthorizer{jwtManager: jwtMgr, service: service}
}

func (a *SubscribeAuthorizer) Authorize(token, email string, roomID int64) error {
	if _, err := a.jwtManager.Verify(token); err != nil {
		return chat.ErrInvalidToken
	}

	ok, err := a.service.IsParticipant(email, roomID)
	if err != nil {
		return err
	}
	if !ok {
		return chat.ErrForbidden
	}

	return nil
}

// WebSocketHandler управляет WebSocket соединениями
type WebSocketHandler struct {
	hub            *ws.Hub
	messageHandler *MessageHandler
	upgrader       websocket.Upgrader
}

// NewWebSocketHandler создает новый WebSocket handler
func NewWebSocketHandler(hub *ws.Hub, messageHandler *MessageHandler) *WebSocketHandler {
	return &WebSocketHandler{
		hub:            hub,
		messageHandler: messageHandler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// TODO: Проверить origin в prod
				return true
			},
		},
	}
}

// HandleWebSocket обрабатывает WebSocket соединения.
// Токен уже проверен в WSAuthMiddleware, identity привязана к контексту.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	email, exists := c.Get(middleware.EmailKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := ws.NewClient(h.hub, conn, email.(string))

	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.messageHandler)
}
