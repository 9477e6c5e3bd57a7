package websocket

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// FrameType определяет типы кадров
type FrameType string

const (
	// Системные типы
	TypePing FrameType = "ping"
	TypePong FrameType = "pong"

	// Жизненный цикл подписок
	TypeSubscribe   FrameType = "subscribe"
	TypeUnsubscribe FrameType = "unsubscribe"

	// Сообщения
	TypeSend    FrameType = "send"
	TypeMessage FrameType = "message"
	TypeError   FrameType = "error"
)

// Префиксы destination: подписки идут на /topic/{roomId},
// отправка сообщений на /publish/{roomId}
const (
	TopicPrefix   = "/topic"
	PublishPrefix = "/publish"
)

type Frame struct {
	Type        FrameType       `json:"type"`
	Destination string          `json:"destination,omitempty"`
	Token       string          `json:"token,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}

// ParseDestination извлекает roomId из destination вида "<prefix>/{roomId}".
// roomId обязан быть положительным целым.
func ParseDestination(prefix, destination string) (int64, error) {
	rest, ok := strings.CutPrefix(destination, prefix+"/")
	if !ok {
		return 0, ErrBadDestination
	}

	roomID, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || roomID <= 0 {
		return 0, ErrBadDestination
	}

	return roomID, nil
}

// TopicDestination строит destination комнаты для исходящих кадров
func TopicDestination(roomID int64) string {
	return TopicPrefix + "/" + strconv.FormatInt(roomID, 10)
}
