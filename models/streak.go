package models

import "time"

// Streak is the running consecutive-completion tally for one (user, habit)
// pair. LongestStreak is a monotonic ceiling on CurrentStreak.
type Streak struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserID        uint       `gorm:"not null;uniqueIndex:idx_streaks_user_habit" json:"user_id"`
	HabitID       uint       `gorm:"not null;uniqueIndex:idx_streaks_user_habit" json:"habit_id"`
	StartDate     time.Time  `gorm:"type:date" json:"start_date"`
	EndDate       *time.Time `gorm:"type:date" json:"end_date"`
	CurrentStreak int        `gorm:"not null;default:0" json:"current_streak"`
	LongestStreak int        `gorm:"not null;default:0" json:"longest_streak"`
	IsActive      bool       `gorm:"default:true" json:"is_active"`
	LastCompleted *time.Time `gorm:"type:date" json:"last_completed"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Advance applies a newly completed day to the streak and reports whether the
// row changed. Completions on days the cadence does not require leave the
// streak untouched, as do completions at or before the current head. A gap of
// one or more missed required days restarts the run at 1.
func (s *Streak) Advance(h *Habit, day time.Time) bool {
	if !s.IsActive {
		return false
	}
	d := Day(day)
	if !h.RequiredOn(d) {
		return false
	}
	switch {
	case s.LastCompleted == nil:
		s.CurrentStreak = 1
		s.StartDate = d
	default:
		last := Day(*s.LastCompleted)
		if !d.After(last) {
			return false
		}
		if d.Equal(h.NextRequiredDay(last)) {
			s.CurrentStreak++
		} else {
			s.CurrentStreak = 1
			s.StartDate = d
		}
	}
	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
	s.LastCompleted = &d
	return true
}

// Reconcile zeroes the current run once a required day after the head has
// lapsed without a completion. The day under reconciliation (today) is still
// open and never counts as missed. Frozen (inactive) streaks are left alone.
func (s *Streak) Reconcile(h *Habit, today time.Time) bool {
	if !s.IsActive || s.CurrentStreak == 0 || s.LastCompleted == nil {
		return false
	}
	next := h.NextRequiredDay(Day(*s.LastCompleted))
	if next.Before(Day(today)) {
		s.CurrentStreak = 0
		return true
	}
	return false
}

// Revoke undoes the head of the run after a completion is withdrawn (a log
// edited back below target). Only the head can be revoked; the head then
// rewinds one cadence step so re-completing the same day restores the run.
// Withdrawing a day behind the head is a counter no-op: the points still claw
// back, but the recorded run keeps its length rather than being recounted
// from the log history. LongestStreak stays: it is an all-time high, not a
// live counter.
func (s *Streak) Revoke(h *Habit, day time.Time) bool {
	if s.LastCompleted == nil || !Day(*s.LastCompleted).Equal(Day(day)) {
		return false
	}
	if s.CurrentStreak > 0 {
		s.CurrentStreak--
	}
	if s.CurrentStreak == 0 {
		s.LastCompleted = nil
	} else {
		prev := h.PrevRequiredDay(Day(day))
		s.LastCompleted = &prev
	}
	return true
}

// Freeze marks the streak inactive without resetting counters, used when the
// owning habit is deactivated mid-run.
func (s *Streak) Freeze() {
	s.IsActive = false
	now := Day(time.Now())
	s.EndDate = &now
}

// Unfreeze resumes an inactive streak.
func (s *Streak) Unfreeze() {
	s.IsActive = true
	s.EndDate = nil
}
