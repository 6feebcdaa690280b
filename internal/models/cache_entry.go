package models

import (
	"time"
)

// Cache table names. Audio and video renditions are cached independently so
// one kind can be invalidated without touching the other.
const (
	AudioCacheTable = "audio_cache"
	VideoCacheTable = "video_cache"
)

// CacheEntry stores a previously produced delivery response keyed by canonical
// content id. The full serialized envelope is replayed verbatim on a hit.
// The same struct backs both the audio_cache and video_cache tables; the
// repository selects the table by media kind.
type CacheEntry struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ContentID string    `json:"content_id" gorm:"type:varchar(64);not null;uniqueIndex"`
	Response  string    `json:"response" gorm:"type:text;not null"`
	Title     string    `json:"title" gorm:"type:varchar(512)"`
	Quality   string    `json:"quality" gorm:"type:varchar(32)"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// CacheTableFor maps a media kind to its backing table.
func CacheTableFor(kind MediaKind) string {
	if kind == KindVideo {
		return VideoCacheTable
	}
	return AudioCacheTable
}
