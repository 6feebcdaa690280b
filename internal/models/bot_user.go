package models

import (
	"time"
)

// BotUser is one Telegram user who has talked to the issuance bot. The
// registry backs the admin broadcast command.
type BotUser struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    string    `json:"user_id" gorm:"type:varchar(64);not null;unique;index"`
	Username  string    `json:"username" gorm:"type:varchar(64)"`
	FirstName string    `json:"first_name" gorm:"type:varchar(128)"`
	LastName  string    `json:"last_name" gorm:"type:varchar(128)"`
}

// TableName specifies the table name for the BotUser model
func (BotUser) TableName() string {
	return "bot_users"
}
