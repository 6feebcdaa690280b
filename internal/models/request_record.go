package models

import (
	"time"
)

// RequestRecord is an append-only record of one externally observable request
// attempt. Cache hits are recorded too; records are never mutated.
type RequestRecord struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	RequestID string    `json:"request_id" gorm:"type:varchar(36);index"`
	UserID    string    `json:"user_id" gorm:"type:varchar(64);not null;index:idx_requests_user_date"`
	Endpoint  string    `json:"endpoint" gorm:"type:varchar(32);not null"`
	Success   bool      `json:"success" gorm:"not null"`
	Cached    bool      `json:"cached" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_requests_user_date"`
}

// TableName specifies the table name for the RequestRecord model
func (RequestRecord) TableName() string {
	return "request_records"
}

// DailyStats aggregates request records for one calendar day.
type DailyStats struct {
	TotalRequests      int64 `json:"total_requests"`
	SuccessfulRequests int64 `json:"successful_requests"`
	UniqueUsers        int64 `json:"unique_users"`
}
