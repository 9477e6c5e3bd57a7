package relay

import (
	"errors"
	"time"
)

// Envelope — единица, которая летит через общий broadcast канал.
// Все комнаты мультиплексируются в один канал, получатели
// демультиплексируют по roomId.
type Envelope struct {
	RoomID      int64     `json:"roomId"`
	SenderEmail string    `json:"senderEmail"`
	Content     string    `json:"content"`
	SentAt      time.Time `json:"sentAt,omitempty"`
}

var ErrMalformedEnvelope = errors.New("malformed envelope")

// Validate отбрасывает конверты без обязательных полей.
// Неизвестные дополнительные поля допустимы и игнорируются при декодировании.
func (e *Envelope) Validate() error {
	if e.RoomID <= 0 {
		return ErrMalformedEnvelope
	}
	if e.SenderEmail == "" {
		return ErrMalformedEnvelope
	}
	return nil
}
