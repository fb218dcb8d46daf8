package models

import (
	"math"
	"time"
)

// HabitLog status values derived from the completion flag.
const (
	LogPending = "pending"
	LogDone    = "done"
)

// HabitLog is a single day's progress for a habit. At most one row may exist
// per (habit, date); the composite unique index enforces this structurally.
type HabitLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	HabitID       uint      `gorm:"not null;uniqueIndex:idx_habit_logs_day" json:"habit_id"`
	Date          time.Time `gorm:"type:date;not null;index;uniqueIndex:idx_habit_logs_day" json:"date"`
	Progress      int       `gorm:"not null;default:0" json:"progress"`
	Completed     bool      `gorm:"not null;default:false" json:"completed"`
	Status        string    `gorm:"size:10;not null;default:'pending'" json:"status"`
	PointsAwarded int       `gorm:"not null;default:0" json:"points_awarded"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Habit Habit `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// ApplyProgress is the only way progress enters a log. Completed and Status
// are recomputed from progress against the target on every call so they can
// never drift from it.
func (l *HabitLog) ApplyProgress(progress, target int) error {
	if progress < 0 {
		return &ValidationError{Field: "progress", Message: "progress cannot be negative"}
	}
	if progress > target {
		return &ValidationError{Field: "progress", Message: "progress cannot exceed the daily target"}
	}
	l.Progress = progress
	l.Completed = progress >= target
	if l.Completed {
		l.Status = LogDone
	} else {
		l.Status = LogPending
	}
	return nil
}

// CompletionValue returns the completion percentage rounded to 2 decimals.
func CompletionValue(progress, target int) float64 {
	if target <= 0 {
		return 0
	}
	return math.Round(float64(progress)/float64(target)*100*100) / 100
}
