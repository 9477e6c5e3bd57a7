package models

import (
	"time"
)

type Message struct {
	ID        int64  `gorm:"primaryKey"`
	RoomID    int64  `gorm:"not null;index"`
	MemberID  int64  `gorm:"not null"`
	Content   string `gorm:"not null"`
	CreatedAt time.Time

	// Связи
	Member Member `gorm:"foreignKey:MemberID"`
	Room   Room   `gorm:"foreignKey:RoomID"`
}

// ReadStatus — флаг прочтения сообщения конкретным участником.
// Строки создаются вместе с сообщением для всех участников комнаты на тот момент.
type ReadStatus struct {
	ID        int64 `gorm:"primaryKey"`
	RoomID    int64 `gorm:"not null;index"`
	MessageID int64 `gorm:"not null;index"`
	MemberID  int64 `gorm:"not null;index"`
	IsRead    bool  `gorm:"not null;default:false"`
}
