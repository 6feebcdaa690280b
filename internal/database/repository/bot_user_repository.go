package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/taitanx/media-delivery-backend/internal/models"
)

// BotUserRepository handles the Telegram user registry.
type BotUserRepository struct {
	db *gorm.DB
}

// NewBotUserRepository creates a new BotUserRepository instance
func NewBotUserRepository(db *gorm.DB) *BotUserRepository {
	return &BotUserRepository{db: db}
}

// Upsert records a user, refreshing their profile fields on repeat contact.
func (r *BotUserRepository) Upsert(user *models.BotUser) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"username", "first_name", "last_name", "updated_at",
		}),
	}).Create(user).Error
}

// List returns every registered user.
func (r *BotUserRepository) List() ([]models.BotUser, error) {
	var users []models.BotUser
	if err := r.db.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Count returns the registry size.
func (r *BotUserRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&models.BotUser{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
