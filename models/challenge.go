package models

import "time"

// Challenge is a time-boxed shared goal users join and progress through.
type Challenge struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	StartDate   time.Time `gorm:"type:date;not null" json:"start_date"`
	EndDate     time.Time `gorm:"type:date;not null" json:"end_date"`
	CreatedByID uint      `gorm:"index;not null" json:"created_by_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	CreatedBy    User                `gorm:"foreignKey:CreatedByID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"created_by"`
	Participants []ChallengeProgress `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"participants,omitempty"`
}

// Validate checks the challenge window.
func (c *Challenge) Validate() error {
	if c.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if !Day(c.EndDate).After(Day(c.StartDate)) {
		return &ValidationError{Field: "end_date", Message: "end date must be after the start date"}
	}
	return nil
}

// ChallengeProgress tracks one participant's percentage through a challenge.
// Completed derives from progress reaching 100 and is never set directly.
type ChallengeProgress struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ChallengeID  uint      `gorm:"not null;uniqueIndex:idx_challenge_progress_pair" json:"challenge_id"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_challenge_progress_pair" json:"user_id"`
	Progress     int       `gorm:"not null;default:0" json:"progress"`
	Completed    bool      `gorm:"not null;default:false" json:"completed"`
	BonusAwarded bool      `gorm:"not null;default:false" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Challenge Challenge `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
}

// ApplyProgress sets the percentage and derives the completed flag.
func (p *ChallengeProgress) ApplyProgress(progress int) error {
	if progress < 0 || progress > 100 {
		return &ValidationError{Field: "progress", Message: "progress must be between 0 and 100"}
	}
	p.Progress = progress
	p.Completed = progress == 100
	return nil
}
