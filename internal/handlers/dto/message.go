package dto

import (
	"time"
)

// MessagePayload структура для входящих send кадров
type MessagePayload struct {
	Content string `json:"content"`
}

// MessageResponse структура для истории сообщений
type MessageResponse struct {
	ID          int64     `json:"id"`
	RoomID      int64     `json:"roomId"`
	SenderEmail string    `json:"senderEmail"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
}
