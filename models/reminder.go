package models

import "time"

// Reminder is a per-habit nudge time. Rows are data only; delivery is left to
// clients polling their habit detail.
type Reminder struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	HabitID   uint      `gorm:"index;not null" json:"habit_id"`
	TimeOfDay string    `gorm:"size:5;not null" json:"time_of_day"`
	Message   string    `gorm:"size:255" json:"message"`
	IsEnabled bool      `gorm:"default:true" json:"is_enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Habit Habit `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// Validate checks the reminder clock time is well formed.
func (r *Reminder) Validate() error {
	if _, err := time.Parse("15:04", r.TimeOfDay); err != nil {
		return &ValidationError{Field: "time_of_day", Message: "time must be HH:MM"}
	}
	return nil
}
