package models

import (
	"time"
)

type Member struct {
	ID           int64  `gorm:"primaryKey"`
	Name         string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"not null;default:'USER'"`
	CreatedAt    time.Time
}
