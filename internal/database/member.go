package database

import (
	"github.com/thereayou/chatserver/internal/models"
)

func (d *Database) SaveMember(member *models.Member) error {
	if err := d.db.Create(member).Error; err != nil {
		return err
	}
	return nil
}

func (d *Database) GetMember(id int64) (*models.Member, error) {
	member := models.Member{}
	if err := d.db.First(&member, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (d *Database) FindMemberByEmail(email string) (*models.Member, error) {
	member := models.Member{}
	if err := d.db.Where("email = ?", email).First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (d *Database) ListMembers() ([]models.Member, error) {
	var members []models.Member
	if err := d.db.Order("id ASC").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}
