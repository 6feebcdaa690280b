package models

import (
	"time"
)

// Tier classifies an API key for quota enforcement.
type Tier string

const (
	TierStandard Tier = "standard"
	TierAdmin    Tier = "admin"
)

// APIKey represents an API key issued to a user. Standard keys expire after
// seven days and are limited to a fixed number of requests per day; admin keys
// never expire and are unmetered.
type APIKey struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Key           string     `json:"key" gorm:"type:varchar(64);not null;unique;index"`
	UserID        string     `json:"user_id" gorm:"type:varchar(64);not null;index"`
	Tier          Tier       `json:"tier" gorm:"type:varchar(16);not null;default:standard"`
	ExpiresAt     *time.Time `json:"expires_at"`
	DailyRequests int        `json:"daily_requests" gorm:"not null;default:0"`
	TotalRequests int64      `json:"total_requests" gorm:"not null;default:0"`
	LastReset     time.Time  `json:"last_reset" gorm:"not null"`
	LastUsedAt    *time.Time `json:"last_used_at"`
	IsActive      bool       `json:"is_active" gorm:"default:true;index"`
}

// TableName specifies the table name for the APIKey model
func (APIKey) TableName() string {
	return "api_keys"
}

// IsAdmin reports whether the key belongs to the unmetered admin tier.
func (k *APIKey) IsAdmin() bool {
	return k.Tier == TierAdmin
}

// Expired reports whether the key's validity window has passed at the given
// time. Keys without an expiry (admin tier) never expire.
func (k *APIKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && !now.Before(*k.ExpiresAt)
}
