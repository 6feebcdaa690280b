package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/taitanx/media-delivery-backend/internal/models"
)

// APIKeyRepository handles database operations for APIKey entities
type APIKeyRepository struct {
	db *gorm.DB
}

// NewAPIKeyRepository creates a new APIKeyRepository instance
func NewAPIKeyRepository(db *gorm.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// GetByKey retrieves an API key by its token value
func (r *APIKeyRepository) GetByKey(key string) (*models.APIKey, error) {
	var apiKey models.APIKey
	if err := r.db.Where("key = ?", key).First(&apiKey).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Return nil, nil when not found
		}
		return nil, err
	}
	return &apiKey, nil
}

// GetActiveByUserID retrieves the active API key for a user, if any
func (r *APIKeyRepository) GetActiveByUserID(userID string) (*models.APIKey, error) {
	var apiKey models.APIKey
	if err := r.db.Where("user_id = ? AND is_active = ?", userID, true).First(&apiKey).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &apiKey, nil
}

// Create adds a new API key
func (r *APIKeyRepository) Create(apiKey *models.APIKey) error {
	return r.db.Create(apiKey).Error
}

// Deactivate flips a key inactive. Used for expiry detection and revocation.
func (r *APIKeyRepository) Deactivate(key string) error {
	return r.db.Model(&models.APIKey{}).Where("key = ?", key).
		Update("is_active", false).Error
}

// ResetDaily zeroes the daily counter and stamps the reset time. Called by the
// quota ledger when validation crosses a calendar-day boundary.
func (r *APIKeyRepository) ResetDaily(key string, at time.Time) error {
	return r.db.Model(&models.APIKey{}).Where("key = ?", key).
		Updates(map[string]interface{}{
			"daily_requests": 0,
			"last_reset":     at,
		}).Error
}

// IncrementUsage atomically bumps both counters and stamps last use. The
// store's single-row update serializes concurrent credits.
func (r *APIKeyRepository) IncrementUsage(key string, at time.Time) error {
	return r.db.Model(&models.APIKey{}).Where("key = ?", key).
		Updates(map[string]interface{}{
			"daily_requests": gorm.Expr("daily_requests + 1"),
			"total_requests": gorm.Expr("total_requests + 1"),
			"last_used_at":   at,
		}).Error
}

// Delete removes an API key by token. Returns whether a row existed.
func (r *APIKeyRepository) Delete(key string) (bool, error) {
	result := r.db.Unscoped().Delete(&models.APIKey{}, "key = ?", key)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// List returns every key, newest first.
func (r *APIKeyRepository) List() ([]models.APIKey, error) {
	var keys []models.APIKey
	if err := r.db.Order("created_at DESC").Find(&keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}
