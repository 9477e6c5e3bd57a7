package relay

import (
	"context"
	"encoding/json"
	"log"
)

// Gateway — локальная доставка подписчикам этого инстанса
type Gateway interface {
	DeliverToRoom(roomID int64, payload []byte)
}

// Relay связывает общий broadcast канал с локальным gateway.
// Publish уходит в канал, Run слушает тот же канал и раздаёт
// полученные конверты локальным подписчикам. Каждый инстанс сервера
// держит свой listener, поэтому сообщение, опубликованное на любом
// инстансе, доходит до подписчиков на всех.
type Relay struct {
	broadcaster Broadcaster
	gateway     Gateway
}

func NewRelay(broadcaster Broadcaster, gateway Gateway) *Relay {
	return &Relay{broadcaster: broadcaster, gateway: gateway}
}

// Publish сериализует конверт и отправляет в broadcast канал.
// Подтверждения доставки нет: ошибка означает недоступность медиума.
func (r *Relay) Publish(ctx context.Context, env *Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return r.broadcaster.Publish(ctx, payload)
}

// Run — долгоживущий listener. Битые конверты логируются и
// отбрасываются, listener продолжает работать. Блокируется до отмены
// контекста или закрытия подписки.
func (r *Relay) Run(ctx context.Context) error {
	ch, err := r.broadcaster.Subscribe(ctx)
	if err != nil {
		return err
	}

	for payload := range ch {
		r.dispatch(payload)
	}

	return ctx.Err()
}

func (r *Relay) dispatch(payload []byte) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		log.Printf("Dropping malformed envelope: %v", err)
		return
	}

	if err := env.Validate(); err != nil {
		log.Printf("Dropping envelope without required fields: %s", payload)
		return
	}

	r.gateway.DeliverToRoom(env.RoomID, payload)
}
