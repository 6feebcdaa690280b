package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/taitanx/media-delivery-backend/internal/models"
)

// MediaCacheRepository handles the audio_cache and video_cache tables. Both
// share the CacheEntry model; the media kind selects the table.
type MediaCacheRepository struct {
	db *gorm.DB
}

// NewMediaCacheRepository creates a new MediaCacheRepository instance
func NewMediaCacheRepository(db *gorm.DB) *MediaCacheRepository {
	return &MediaCacheRepository{db: db}
}

func (r *MediaCacheRepository) table(kind models.MediaKind) *gorm.DB {
	return r.db.Table(models.CacheTableFor(kind))
}

// Get retrieves the cache entry for a content id, or nil when absent.
// Freshness is the service's concern; this returns whatever is stored.
func (r *MediaCacheRepository) Get(kind models.MediaKind, contentID string) (*models.CacheEntry, error) {
	var entry models.CacheEntry
	if err := r.table(kind).Where("content_id = ?", contentID).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// Upsert inserts or replaces the entry for its content id. created_at is
// always overwritten so the TTL restarts from the new acquisition.
func (r *MediaCacheRepository) Upsert(kind models.MediaKind, entry *models.CacheEntry) error {
	return r.table(kind).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "content_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"response", "title", "quality", "created_at",
		}),
	}).Create(entry).Error
}

// Delete removes the entry for a content id. Returns whether a row existed.
func (r *MediaCacheRepository) Delete(kind models.MediaKind, contentID string) (bool, error) {
	result := r.table(kind).Where("content_id = ?", contentID).Delete(&models.CacheEntry{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Count returns the number of entries in one cache table.
func (r *MediaCacheRepository) Count(kind models.MediaKind) (int64, error) {
	var count int64
	if err := r.table(kind).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteExpired removes entries created before the cutoff and reports how many
// rows were swept.
func (r *MediaCacheRepository) DeleteExpired(kind models.MediaKind, before time.Time) (int64, error) {
	result := r.table(kind).Where("created_at < ?", before).Delete(&models.CacheEntry{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
