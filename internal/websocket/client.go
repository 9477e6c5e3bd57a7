package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Время ожидания записи
	writeWait = 10 * time.Second

	// Время ожидания pong от клиента
	pongWait = 60 * time.Second

	// Интервал отправки ping
	pingPeriod = (pongWait * 9) / 10

	// Максимальный размер кадра
	maxMessageSize = 512 * 1024 // 512KB
)

// FrameHandler обрабатывает send кадры от клиента
type FrameHandler interface {
	HandleFrame(client *Client, frame *Frame) error
}

// Client — одно WebSocket соединение. Email привязывается при
// апгрейде после проверки токена и не меняется до закрытия.
type Client struct {
	ID    uuid.UUID
	Email string
	Conn  *websocket.Conn
	Send  chan []byte
	Rooms map[int64]bool
	Hub   *Hub
	mu    sync.RWMutex
}

func NewClient(hub *Hub, conn *websocket.Conn, email string) *Client {
	return &Client{
		ID:    uuid.New(),
		Email: email,
		Conn:  conn,
		Send:  make(chan []byte, 256),
		Rooms: make(map[int64]bool),
		Hub:   hub,
	}
}

// ReadPump читает кадры от клиента
func (c *Client) ReadPump(handler FrameHandler) {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var frame Frame
		err := c.Conn.ReadJSON(&frame)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		switch frame.Type {
		case TypePong:
			continue

		case TypeSubscribe:
			if err := c.Hub.Subscribe(c, frame.Token, frame.Destination); err != nil {
				c.SendError(err.Error())
			}
			continue

		case TypeUnsubscribe:
			if err := c.Hub.Unsubscribe(c, frame.Destination); err != nil {
				c.SendError(err.Error())
			}
			continue
		}

		if handler != nil {
			if err := handler.HandleFrame(c, &frame); err != nil {
				log.Printf("Error handling frame: %v", err)
				c.SendError(err.Error())
			}
		}
	}
}

// WritePump отправляет кадры клиенту
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub закрыл канал
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			c.Conn.WriteMessage(websocket.TextMessage, message)

			// Отправляем все накопившиеся кадры
			n := len(c.Send)
			for i := 0; i < n; i++ {
				c.Conn.WriteMessage(websocket.TextMessage, <-c.Send)
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) SendFrame(frameType FrameType, data interface{}) error {
	frame := Frame{
		Type:      frameType,
		Timestamp: time.Now(),
	}

	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return err
		}
		frame.Data = jsonData
	}

	frameData, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	select {
	case c.Send <- frameData:
		return nil
	default:
		return ErrClientQueueFull
	}
}

func (c *Client) SendError(errorMsg string) {
	c.SendFrame(TypeError, map[string]string{
		"error": errorMsg,
	})
}

func (c *Client) IsSubscribed(roomID int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Rooms[roomID]
}

func (c *Client) Subscriptions() []int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rooms := make([]int64, 0, len(c.Rooms))
	for roomID := range c.Rooms {
		rooms = append(rooms, roomID)
	}
	return rooms
}
