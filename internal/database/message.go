package database

import (
	"time"

	"github.com/thereayou/chatserver/internal/models"
	"gorm.io/gorm"
)

// AppendMessage сохраняет сообщение и строки ReadStatus для всех текущих
// участников комнаты одной транзакцией. У отправителя isRead сразу true.
func (d *Database) AppendMessage(roomID, senderID int64, content string) (*models.Message, error) {
	message := &models.Message{
		RoomID:    roomID,
		MemberID:  senderID,
		Content:   content,
		CreatedAt: time.Now(),
	}

	err := d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}

		var participants []models.Participant
		if err := tx.Where("room_id = ?", roomID).Find(&participants).Error; err != nil {
			return err
		}

		statuses := make([]models.ReadStatus, 0, len(participants))
		for _, p := range participants {
			statuses = append(statuses, models.ReadStatus{
				RoomID:    roomID,
				MessageID: message.ID,
				MemberID:  p.MemberID,
				IsRead:    p.MemberID == senderID,
			})
		}

		if len(statuses) > 0 {
			if err := tx.Create(&statuses).Error; err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return message, nil
}

// ListMessages возвращает все сообщения комнаты в порядке создания
func (d *Database) ListMessages(roomID int64) ([]models.Message, error) {
	var messages []models.Message

	err := d.db.
		Where("room_id = ?", roomID).
		Order("created_at ASC, id ASC").
		Preload("Member").
		Find(&messages).Error

	if err != nil {
		return nil, err
	}

	return messages, nil
}

// MarkRoomRead помечает прочитанными все сообщения комнаты для пользователя
func (d *Database) MarkRoomRead(roomID, memberID int64) error {
	return d.db.
		Model(&models.ReadStatus{}).
		Where("room_id = ? AND member_id = ?", roomID, memberID).
		Update("is_read", true).Error
}

// UnreadCount считает непрочитанные сообщения пользователя в комнате
func (d *Database) UnreadCount(roomID, memberID int64) (int64, error) {
	var count int64

	err := d.db.
		Model(&models.ReadStatus{}).
		Where("room_id = ? AND member_id = ? AND is_read = ?", roomID, memberID, false).
		Count(&count).Error

	return count, err
}
