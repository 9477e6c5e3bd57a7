package handlers

import (
	"context"
	"encoding/json"
	"log"

	"github.com/thereayou/chatserver/internal/chat"
	"github.com/thereayou/chatserver/internal/handlers/dto"
	"github.com/thereayou/chatserver/internal/websocket"
)

// MessageHandler обрабатывает send кадры: проверка членства,
// сохранение и публикация в broadcast канал
type MessageHandler struct {
	service *chat.Service
}

func NewMessageHandler(service *chat.Service) *MessageHandler {
	return &MessageHandler{service: service}
}

func (h *MessageHandler) HandleFrame(client *websocket.Client, frame *websocket.Frame) error {
	switch frame.Type {
	case websocket.TypeSend:
		return h.handleSend(client, frame)

	default:
		log.Printf("Unknown frame type: %s", frame.Type)
		return nil
	}
}

func (h *MessageHandler) handleSend(client *websocket.Client, frame *websocket.Frame) error {
	roomID, err := websocket.ParseDestination(websocket.PublishPrefix, frame.Destination)
	if err != nil {
		return err
	}

	// Членство перепроверяется на каждой отправке, не только на подписке
	ok, err := h.service.IsParticipant(client.Email, roomID)
	if err != nil {
		return err
	}
	if !ok {
		return chat.ErrForbidden
	}

	var payload dto.MessagePayload
	if err := json.Unmarshal(frame.Data, &payload); err != nil {
		return err
	}

	if payload.Content == "" {
		return websocket.ErrInvalidFrame
	}

	// Сообщение сначала долетает до базы, потом до broadcast канала.
	// Ошибка публикации возвращается отправителю, сообщение уже сохранено.
	if _, err := h.service.Ingest(context.Background(), roomID, client.Email, payload.Content); err != nil {
		return err
	}

	return nil
}
