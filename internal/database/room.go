package database

import (
	"github.com/thereayou/chatserver/internal/models"
	"gorm.io/gorm"
)

func (d *Database) CreateRoom(room *models.Room) error {
	return d.db.Create(room).Error
}

func (d *Database) GetRoom(id int64) (*models.Room, error) {
	var room models.Room
	if err := d.db.First(&room, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (d *Database) ListGroupRooms() ([]models.Room, error) {
	var rooms []models.Room
	err := d.db.Where("kind = ?", models.RoomGroup).Order("id ASC").Find(&rooms).Error
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

func (d *Database) AddParticipant(roomID, memberID int64) error {
	participant := models.Participant{RoomID: roomID, MemberID: memberID}
	return d.db.Create(&participant).Error
}

func (d *Database) FindParticipant(roomID, memberID int64) (*models.Participant, error) {
	var participant models.Participant
	err := d.db.Where("room_id = ? AND member_id = ?", roomID, memberID).First(&participant).Error
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

func (d *Database) GetParticipants(roomID int64) ([]models.Participant, error) {
	var participants []models.Participant
	err := d.db.Where("room_id = ?", roomID).Preload("Member").Find(&participants).Error
	if err != nil {
		return nil, err
	}
	return participants, nil
}

// GetMemberParticipants возвращает все участия пользователя вместе с комнатами
func (d *Database) GetMemberParticipants(memberID int64) ([]models.Participant, error) {
	var participants []models.Participant
	err := d.db.Where("member_id = ?", memberID).Preload("Room").Find(&participants).Error
	if err != nil {
		return nil, err
	}
	return participants, nil
}

func (d *Database) RemoveParticipant(roomID, memberID int64) error {
	return d.db.
		Where("room_id = ? AND member_id = ?", roomID, memberID).
		Delete(&models.Participant{}).Error
}

// FindPrivateRoom ищет существующую direct комнату двух пользователей
func (d *Database) FindPrivateRoom(memberID, otherMemberID int64) (*models.Room, error) {
	var room models.Room

	err := d.db.
		Joins("JOIN participants p1 ON p1.room_id = rooms.id").
		Joins("JOIN participants p2 ON p2.room_id = rooms.id").
		Where("rooms.kind = ? AND p1.member_id = ? AND p2.member_id = ?",
			models.RoomDirect, memberID, otherMemberID).
		First(&room).Error

	if err != nil {
		return nil, err
	}

	return &room, nil
}

// DeleteRoomIfEmpty удаляет комнату со всей историей, если участников не осталось.
// Возвращает true, если комната была удалена.
func (d *Database) DeleteRoomIfEmpty(roomID int64) (bool, error) {
	deleted := false

	err := d.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Participant{}).Where("room_id = ?", roomID).Count(&count).Error; err != nil {
			return err
		}

		if count > 0 {
			return nil
		}

		if err := tx.Delete(&models.ReadStatus{}, "room_id = ?", roomID).Error; err != nil {
			return err
		}

		if err := tx.Delete(&models.Message{}, "room_id = ?", roomID).Error; err != nil {
			return err
		}

		if err := tx.Delete(&models.Room{}, "id = ?", roomID).Error; err != nil {
			return err
		}

		deleted = true
		return nil
	})

	return deleted, err
}
