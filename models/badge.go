package models

import "time"

// Badge is a catalog entry awarded once a user's points cross its threshold.
type Badge struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	Name           string `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Description    string `gorm:"type:text" json:"description"`
	PointsRequired int    `gorm:"not null;default:0" json:"points_required"`
}

// UserBadge records a single award of a badge to a user. The composite unique
// index makes repeat awards structurally impossible.
type UserBadge struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_badges_pair" json:"user_id"`
	BadgeID   uint      `gorm:"not null;uniqueIndex:idx_user_badges_pair" json:"badge_id"`
	AwardedAt time.Time `gorm:"autoCreateTime" json:"awarded_at"`

	User  User  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Badge Badge `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"badge"`
}
