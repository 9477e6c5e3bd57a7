package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Authorizer решает, можно ли соединению подписаться на комнату.
// Токен кадра перепроверяется на каждой подписке, членство — тоже:
// оно могло измениться за время жизни соединения.
type Authorizer interface {
	Authorize(token, email string, roomID int64) error
}

// Hub — реестр живых соединений и их подписок.
// Отдельный индекс по комнатам даёт фан-аут без обхода всех клиентов.
type Hub struct {
	clients map[uuid.UUID]*Client

	// Подписчики по комнатам
	rooms map[int64]map[uuid.UUID]*Client

	// Каналы для регистрации/отмены регистрации
	register   chan *Client
	unregister chan *Client

	auth Authorizer

	mu sync.RWMutex

	// Контекст для graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub создает новый Hub
func NewHub(auth Authorizer) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[uuid.UUID]*Client),
		rooms:      make(map[int64]map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		auth:       auth,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run запускает hub
func (h *Hub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ticker.C:
			h.ping()
		}
	}
}

// Stop останавливает hub
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		close(client.Send)
		client.Conn.Close()
	}
}

// Register регистрирует нового клиента
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister отменяет регистрацию клиента
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client

	log.Printf("Client registered: %s (%s)", client.ID, client.Email)
}

// unregisterClient снимает все подписки клиента. Повторный вызов — no-op.
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; ok {
		for roomID := range client.Rooms {
			h.removeFromRoomUnsafe(client, roomID)
		}

		delete(h.clients, client.ID)
		close(client.Send)

		log.Printf("Client unregistered: %s (%s)", client.ID, client.Email)
	}
}

// Subscribe проверяет кадр подписки и регистрирует её.
// Отказ не трогает соединение и его остальные подписки.
func (h *Hub) Subscribe(client *Client, token, destination string) error {
	roomID, err := ParseDestination(TopicPrefix, destination)
	if err != nil {
		return err
	}

	if err := h.auth.Authorize(token, client.Email, roomID); err != nil {
		log.Printf("Subscribe rejected for %s to room %d: %v", client.Email, roomID, err)
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[uuid.UUID]*Client)
	}

	h.rooms[roomID][client.ID] = client
	client.mu.Lock()
	client.Rooms[roomID] = true
	client.mu.Unlock()

	return nil
}

// Unsubscribe снимает одну подписку клиента
func (h *Hub) Unsubscribe(client *Client, destination string) error {
	roomID, err := ParseDestination(TopicPrefix, destination)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoomUnsafe(client, roomID)
	return nil
}

func (h *Hub) removeFromRoomUnsafe(client *Client, roomID int64) {
	if room, ok := h.rooms[roomID]; ok {
		if _, ok := room[client.ID]; ok {
			delete(room, client.ID)
			client.mu.Lock()
			delete(client.Rooms, roomID)
			client.mu.Unlock()

			if len(room) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
}

// DeliverToRoom раздаёт payload всем локальным подписчикам комнаты.
// Клиенты с переполненной очередью пропускаются, а не валят доставку.
func (h *Hub) DeliverToRoom(roomID int64, payload []byte) {
	frame := Frame{
		Type:        TypeMessage,
		Destination: TopicDestination(roomID),
		Data:        payload,
		Timestamp:   time.Now(),
	}

	frameData, err := json.Marshal(frame)
	if err != nil {
		log.Printf("Failed to marshal delivery frame: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if room, ok := h.rooms[roomID]; ok {
		for _, client := range room {
			select {
			case client.Send <- frameData:
			default:
				log.Printf("Client %s send channel full", client.ID)
			}
		}
	}
}

// RoomSubscribers возвращает email подписчиков комнаты на этом инстансе
func (h *Hub) RoomSubscribers(roomID int64) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	emailMap := make(map[string]bool)
	if room, ok := h.rooms[roomID]; ok {
		for _, client := range room {
			emailMap[client.Email] = true
		}
	}

	emails := make([]string, 0, len(emailMap))
	for email := range emailMap {
		emails = append(emails, email)
	}
	return emails
}

func (h *Hub) ping() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	frame := Frame{
		Type:      TypePing,
		Timestamp: time.Now(),
	}

	if data, err := json.Marshal(frame); err == nil {
		for _, client := range h.clients {
			select {
			case client.Send <- data:
			default:
			}
		}
	}
}
