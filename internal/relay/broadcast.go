package relay

import (
	"context"
	"sync"

	"github.com/go-redis/redis/v8"
)

// ChatChannel — единый логический канал для трафика всех комнат
const ChatChannel = "chat"

// Broadcaster — общий broadcast медиум между инстансами сервера
type Broadcaster interface {
	Publish(ctx context.Context, payload []byte) error
	Subscribe(ctx context.Context) (<-chan []byte, error)
}

// RedisBroadcaster гоняет сообщения через Redis pub/sub
type RedisBroadcaster struct {
	rdb     *redis.Client
	channel string
}

func NewRedisBroadcaster(rdb *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{rdb: rdb, channel: ChatChannel}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, payload []byte) error {
	return b.rdb.Publish(ctx, b.channel, payload).Err()
}

func (b *RedisBroadcaster) Subscribe(ctx context.Context) (<-chan []byte, error) {
	pubsub := b.rdb.Subscribe(ctx, b.channel)

	// Дожидаемся подтверждения подписки, чтобы не терять сообщения на старте
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}

	out := make(chan []byte, 64)

	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// MemoryBroadcaster — внутрипроцессная замена Redis для тестов.
// Несколько Relay, разделяющих один MemoryBroadcaster, ведут себя
// как инстансы сервера с общим каналом.
type MemoryBroadcaster struct {
	mu   sync.RWMutex
	subs []chan []byte
}

func NewMemoryBroadcaster() *MemoryBroadcaster {
	return &MemoryBroadcaster{}
}

func (b *MemoryBroadcaster) Publish(_ context.Context, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		select {
		case sub <- payload:
		default:
		}
	}

	return nil
}

func (b *MemoryBroadcaster) Subscribe(ctx context.Context) (<-chan []byte, error) {
	sub := make(chan []byte, 64)

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		for i, s := range b.subs {
			if s == sub {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				close(s)
				break
			}
		}
		b.mu.Unlock()
	}()

	return sub, nil
}
