package models

import "time"

// Notification is a user-scoped message with read state, listed newest first.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index:idx_notifications_user_read;not null" json:"user_id"`
	Message   string    `gorm:"size:255;not null" json:"message"`
	IsRead    bool      `gorm:"index:idx_notifications_user_read;default:false" json:"is_read"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
