package models

import (
	"time"
)

// Cadence determines which calendar days a habit must be completed on.
type Cadence string

const (
	CadenceDaily  Cadence = "daily"
	CadenceWeekly Cadence = "weekly"
	CadenceCustom Cadence = "custom"
)

// Habit status values.
const (
	HabitProgressing = "progressing"
	HabitAchieved    = "achieved"
	HabitFailed      = "failed"
)

// Time-of-day preference values.
const (
	TimeMorning   = "morning"
	TimeAfternoon = "afternoon"
	TimeEvening   = "evening"
	TimeAnytime   = "anytime"
)

// MaxTargetPerDay bounds daily targets to keep them realistic.
const MaxTargetPerDay = 99999

// WeekdaySet holds short weekday names ("Mon".."Sun") for custom cadences.
type WeekdaySet []string

var weekdayNames = map[string]time.Weekday{
	"Sun": time.Sunday, "Mon": time.Monday, "Tue": time.Tuesday, "Wed": time.Wednesday,
	"Thu": time.Thursday, "Fri": time.Friday, "Sat": time.Saturday,
}

// Contains reports whether the set includes the given weekday.
func (ws WeekdaySet) Contains(d time.Weekday) bool {
	for _, name := range ws {
		if wd, ok := weekdayNames[name]; ok && wd == d {
			return true
		}
	}
	return false
}

// Valid reports whether every entry is a known short weekday name.
func (ws WeekdaySet) Valid() bool {
	for _, name := range ws {
		if _, ok := weekdayNames[name]; !ok {
			return false
		}
	}
	return true
}

// Habit defines a recurring commitment with a cadence and a numeric daily target.
type Habit struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       uint       `gorm:"index:idx_habits_user_active;not null" json:"user_id"`
	Name         string     `gorm:"size:100;not null" json:"name"`
	CategoryID   *uint      `json:"category_id"`
	Category     *Category  `gorm:"constraint:OnDelete:SET NULL;" json:"category,omitempty"`
	Description  string     `gorm:"type:text" json:"description"`
	Cadence      Cadence    `gorm:"size:20;not null;default:'daily'" json:"cadence"`
	CustomDays   WeekdaySet `gorm:"serializer:json" json:"custom_days,omitempty"`
	TimeOfDay    string     `gorm:"size:20;default:'anytime'" json:"time_of_day"`
	TargetPerDay int        `gorm:"not null;default:1" json:"target_per_day"`
	UnitID       *uint      `json:"unit_id"`
	Unit         *Unit      `gorm:"constraint:OnDelete:SET NULL;" json:"unit,omitempty"`
	Status       string     `gorm:"size:20;not null;default:'progressing'" json:"status"`
	IsActive     bool       `gorm:"index:idx_habits_user_active;default:true" json:"is_active"`
	StartDate    time.Time  `gorm:"type:date;not null" json:"start_date"`
	EndDate      *time.Time `gorm:"type:date" json:"end_date"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Logs    []HabitLog `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Streaks []Streak   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// Validate checks the habit before it is persisted. Derived state is never
// validated here; only caller-supplied fields are.
func (h *Habit) Validate() error {
	if h.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if h.TargetPerDay < 1 {
		return &ValidationError{Field: "target_per_day", Message: "target must be at least 1"}
	}
	if h.TargetPerDay > MaxTargetPerDay {
		return &ValidationError{Field: "target_per_day", Message: "target cannot exceed 99999"}
	}
	switch h.Cadence {
	case CadenceDaily, CadenceWeekly:
	case CadenceCustom:
		if len(h.CustomDays) == 0 {
			return &ValidationError{Field: "custom_days", Message: "custom cadence requires a list of days"}
		}
		if !h.CustomDays.Valid() {
			return &ValidationError{Field: "custom_days", Message: "days must be Mon..Sun short names"}
		}
	default:
		return &ValidationError{Field: "cadence", Message: "cadence must be daily, weekly or custom"}
	}
	switch h.TimeOfDay {
	case TimeMorning, TimeAfternoon, TimeEvening, TimeAnytime, "":
	default:
		return &ValidationError{Field: "time_of_day", Message: "invalid time of day"}
	}
	if h.EndDate != nil && Day(*h.EndDate).Before(Day(h.StartDate)) {
		return &ValidationError{Field: "end_date", Message: "end date cannot be before the start date"}
	}
	return nil
}

// RequiredOn reports whether the cadence requires a completion on the given day.
func (h *Habit) RequiredOn(d time.Time) bool {
	switch h.Cadence {
	case CadenceDaily:
		return true
	case CadenceWeekly:
		return d.Weekday() == h.StartDate.Weekday()
	case CadenceCustom:
		return h.CustomDays.Contains(d.Weekday())
	}
	return false
}

// NextRequiredDay returns the first required day strictly after the given day.
// Any non-empty cadence repeats within a week, so the scan is bounded.
func (h *Habit) NextRequiredDay(after time.Time) time.Time {
	d := Day(after)
	for i := 0; i < 7; i++ {
		d = d.AddDate(0, 0, 1)
		if h.RequiredOn(d) {
			return d
		}
	}
	return d
}

// PrevRequiredDay returns the last required day strictly before the given day.
func (h *Habit) PrevRequiredDay(before time.Time) time.Time {
	d := Day(before)
	for i := 0; i < 7; i++ {
		d = d.AddDate(0, 0, -1)
		if h.RequiredOn(d) {
			return d
		}
	}
	return d
}
