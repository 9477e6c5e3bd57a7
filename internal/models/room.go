package models

import (
	"time"
)

// RoomKind различает групповые и 1:1 комнаты
type RoomKind string

const (
	RoomGroup  RoomKind = "group"
	RoomDirect RoomKind = "direct"
)

type Room struct {
	ID        int64    `gorm:"primaryKey"`
	Name      string   `gorm:"not null"`
	Kind      RoomKind `gorm:"not null;check:kind IN ('group','direct')"`
	CreatedAt time.Time

	// Связи
	Participants []Participant `gorm:"foreignKey:RoomID"`
	Messages     []Message     `gorm:"foreignKey:RoomID"`
}

// Participant — членство member в комнате, уникально на пару (room, member)
type Participant struct {
	ID        int64 `gorm:"primaryKey"`
	RoomID    int64 `gorm:"not null;uniqueIndex:idx_room_member"`
	MemberID  int64 `gorm:"not null;uniqueIndex:idx_room_member"`
	CreatedAt time.Time

	Member Member `gorm:"foreignKey:MemberID"`
	Room   Room   `gorm:"foreignKey:RoomID"`
}
