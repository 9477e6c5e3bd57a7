package websocket

import (
	"encoding/json"
	"errors"
	"testing"
)

var errSubscribeDenied = errors.New("not a participant of this room")

// fakeAuthorizer пускает только перечисленные пары (email, roomID)
type fakeAuthorizer struct {
	allowed map[string][]int64
	calls   int
}

func (a *fakeAuthorizer) Authorize(token, email string, roomID int64) error {
	a.calls++
	if token == "" {
		return errors.New("invalid token")
	}
	for _, id := range a.allowed[email] {
		if id == roomID {
			return nil
		}
	}
	return errSubscribeDenied
}

func newTestHub(auth Authorizer) *Hub {
	// Hub.Run не запускаем: тесты дергают внутренние методы напрямую
	return NewHub(auth)
}

func newTestClient(h *Hub, email string) *Client {
	c := NewClient(h, nil, email)
	h.registerClient(c)
	return c
}

func readFrame(t *testing.T, c *Client) *Frame {
	t.Helper()
	select {
	case data := <-c.Send:
		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			t.Fatalf("unmarshal frame: %v", err)
		}
		return &frame
	default:
		t.Fatal("no frame queued")
		return nil
	}
}

func TestSubscribeRegistersAuthorizedClient(t *testing.T) {
	auth := &fakeAuthorizer{allowed: map[string][]int64{"alice@example.com": {1}}}
	h := newTestHub(auth)
	c := newTestClient(h, "alice@example.com")

	if err := h.Subscribe(c, "token", "/topic/1"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if !c.IsSubscribed(1) {
		t.Error("client not marked as subscribed")
	}
	if got := h.RoomSubscribers(1); len(got) != 1 || got[0] != "alice@example.com" {
		t.Errorf("room subscribers = %v", got)
	}
}

func TestSubscribeForbiddenNotRegistered(t *testing.T) {
	auth := &fakeAuthorizer{allowed: map[string][]int64{"alice@example.com": {1}}}
	h := newTestHub(auth)
	c := newTestClient(h, "carol@example.com")

	if err := h.Subscribe(c, "token", "/topic/1"); !errors.Is(err, errSubscribeDenied) {
		t.Fatalf("subscribe err = %v, want denial", err)
	}

	if c.IsSubscribed(1) {
		t.Error("forbidden client registered as subscriber")
	}
	if got := h.RoomSubscribers(1); len(got) != 0 {
		t.Errorf("room subscribers = %v, want none", got)
	}

	// Сообщения комнаты не доходят до отклонённого клиента
	h.DeliverToRoom(1, []byte(`{"roomId":1}`))
	select {
	case data := <-c.Send:
		t.Errorf("forbidden client received %s", data)
	default:
	}
}

func TestSubscribeBadDestination(t *testing.T) {
	auth := &fakeAuthorizer{allowed: map[string][]int64{"alice@example.com": {1}}}
	h := newTestHub(auth)
	c := newTestClient(h, "alice@example.com")

	for _, dest := range []string{"/topic/abc", "/publish/1", "/topic/0", ""} {
		if err := h.Subscribe(c, "token", dest); !errors.Is(err, ErrBadDestination) {
			t.Errorf("Subscribe(%q) err = %v, want ErrBadDestination", dest, err)
		}
	}

	// До авторизации дело не дошло
	if auth.calls != 0 {
		t.Errorf("authorizer called %d times for bad destinations", auth.calls)
	}
}

func TestAuthorizationRecheckedPerSubscribe(t *testing.T) {
	auth := &fakeAuthorizer{allowed: map[string][]int64{"alice@example.com": {1, 2}}}
	h := newTestHub(auth)
	c := newTestClient(h, "alice@example.com")

	if err := h.Subscribe(c, "token", "/topic/1"); err != nil {
		t.Fatalf("subscribe 1: %v", err)
	}
	if err := h.Subscribe(c, "token", "/topic/2"); err != nil {
		t.Fatalf("subscribe 2: %v", err)
	}

	if auth.calls != 2 {
		t.Errorf("authorizer called %d times, want 2", auth.calls)
	}

	// Членство отозвали - следующая подписка отклоняется,
	// существующие подписки соединения при этом живы
	auth.allowed["alice@example.com"] = nil
	if err := h.Subscribe(c, "token", "/topic/3"); err == nil {
		t.Error("subscribe after revocation should fail")
	}
	if !c.IsSubscribed(1) || !c.IsSubscribed(2) {
		t.Error("existing subscriptions lost after one rejected subscribe")
	}
}

func TestDeliverToRoomFansOutLocally(t *testing.T) {
	auth := &fakeAuthorizer{allowed: map[string][]int64{
		"alice@example.com": {1},
		"bob@example.com":   {1, 2},
	}}
	h := newTestHub(auth)

	alice := newTestClient(h, "alice@example.com")
	bob := newTestClient(h, "bob@example.com")

	if err := h.Subscribe(alice, "token", "/topic/1"); err != nil {
		t.Fatalf("alice subscribe: %v", err)
	}
	if err := h.Subscribe(bob, "token", "/topic/2"); err != nil {
		t.Fatalf("bob subscribe: %v", err)
	}

	payload := []byte(`{"roomId":1,"senderEmail":"alice@example.com","content":"hi"}`)
	h.DeliverToRoom(1, payload)

	frame := readFrame(t, alice)
	if frame.Type != TypeMessage {
		t.Errorf("frame type = %s, want message", frame.Type)
	}
	if frame.Destination != "/topic/1" {
		t.Errorf("frame destination = %s", frame.Destination)
	}
	if string(frame.Data) != string(payload) {
		t.Errorf("frame data = %s, want %s", frame.Data, payload)
	}

	// Подписчик другой комнаты ничего не получает
	select {
	case data := <-bob.Send:
		t.Errorf("bob received %s", data)
	default:
	}
}

func TestUnsubscribeAndDisconnect(t *testing.T) {
	auth := &fakeAuthorizer{allowed: map[string][]int64{"alice@example.com": {1, 2}}}
	h := newTestHub(auth)
	c := newTestClient(h, "alice@example.com")

	if err := h.Subscribe(c, "token", "/topic/1"); err != nil {
		t.Fatalf("subscribe 1: %v", err)
	}
	if err := h.Subscribe(c, "token", "/topic/2"); err != nil {
		t.Fatalf("subscribe 2: %v", err)
	}

	if err := h.Unsubscribe(c, "/topic/1"); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if c.IsSubscribed(1) {
		t.Error("still subscribed to room 1")
	}
	if !c.IsSubscribed(2) {
		t.Error("unsubscribe from room 1 dropped room 2")
	}

	h.unregisterClient(c)
	if got := h.RoomSubscribers(2); len(got) != 0 {
		t.Errorf("room 2 subscribers after disconnect = %v", got)
	}

	// Повторное закрытие - no-op
	h.unregisterClient(c)
}
