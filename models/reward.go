package models

import "time"

// Reward is a user-defined treat purchasable with accumulated points.
type Reward struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"index;not null" json:"user_id"`
	Title          string     `gorm:"size:100;not null" json:"title"`
	Description    string     `gorm:"type:text" json:"description"`
	PointsRequired int        `gorm:"not null" json:"points_required"`
	IsClaimed      bool       `gorm:"default:false" json:"is_claimed"`
	ClaimedAt      *time.Time `json:"claimed_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	User User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// Validate checks caller-supplied fields before persistence.
func (r *Reward) Validate() error {
	if r.Title == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if r.PointsRequired < 1 {
		return &ValidationError{Field: "points_required", Message: "points required must be at least 1"}
	}
	return nil
}
