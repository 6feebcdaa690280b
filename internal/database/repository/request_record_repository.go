package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/taitanx/media-delivery-backend/internal/models"
)

// RequestRecordRepository handles the append-only request ledger.
type RequestRecordRepository struct {
	db *gorm.DB
}

// NewRequestRecordRepository creates a new RequestRecordRepository instance
func NewRequestRecordRepository(db *gorm.DB) *RequestRecordRepository {
	return &RequestRecordRepository{db: db}
}

// Create appends one request record. Records are never updated or deleted by
// the application.
func (r *RequestRecordRepository) Create(record *models.RequestRecord) error {
	return r.db.Create(record).Error
}

// DailyStats aggregates records created at or after the given start of day.
func (r *RequestRecordRepository) DailyStats(since time.Time) (*models.DailyStats, error) {
	stats := &models.DailyStats{}

	if err := r.db.Model(&models.RequestRecord{}).
		Where("created_at >= ?", since).
		Count(&stats.TotalRequests).Error; err != nil {
		return nil, err
	}

	if err := r.db.Model(&models.RequestRecord{}).
		Where("created_at >= ? AND success = ?", since, true).
		Count(&stats.SuccessfulRequests).Error; err != nil {
		return nil, err
	}

	if err := r.db.Model(&models.RequestRecord{}).
		Where("created_at >= ?", since).
		Distinct("user_id").
		Count(&stats.UniqueUsers).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
