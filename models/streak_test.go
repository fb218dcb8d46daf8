package models

import (
	"testing"
	"time"
)

func dailyHabit() *Habit {
	return &Habit{Cadence: CadenceDaily, StartDate: date(2026, 1, 1), TargetPerDay: 1}
}

func TestStreakAdvanceConsecutiveDays(t *testing.T) {
	h := dailyHabit()
	s := Streak{IsActive: true}

	d1 := date(2026, 1, 1)
	for i := 0; i < 3; i++ {
		if !s.Advance(h, d1.AddDate(0, 0, i)) {
			t.Fatalf("day %d advance returned false", i+1)
		}
	}
	if s.CurrentStreak != 3 || s.LongestStreak != 3 {
		t.Errorf("after 3 days current=%d longest=%d, want 3/3", s.CurrentStreak, s.LongestStreak)
	}
}

func TestStreakAdvanceGapRestarts(t *testing.T) {
	h := dailyHabit()
	s := Streak{IsActive: true}

	s.Advance(h, date(2026, 1, 1))
	s.Advance(h, date(2026, 1, 2))
	// Day 3 missed; completing day 4 restarts at 1.
	s.Advance(h, date(2026, 1, 4))

	if s.CurrentStreak != 1 {
		t.Errorf("current = %d after a gap, want 1", s.CurrentStreak)
	}
	if s.LongestStreak != 2 {
		t.Errorf("longest = %d, want 2", s.LongestStreak)
	}
}

func TestStreakAdvanceIgnoresRepeatAndPast(t *testing.T) {
	h := dailyHabit()
	s := Streak{IsActive: true}

	s.Advance(h, date(2026, 1, 2))
	if s.Advance(h, date(2026, 1, 2)) {
		t.Errorf("same-day advance must be a no-op")
	}
	if s.Advance(h, date(2026, 1, 1)) {
		t.Errorf("advance into the past must be a no-op")
	}
	if s.CurrentStreak != 1 {
		t.Errorf("current = %d, want 1", s.CurrentStreak)
	}
}

func TestStreakAdvanceSkipsNonRequiredDays(t *testing.T) {
	// Monday 2026-01-05; habit requires Mon and Fri only.
	h := &Habit{Cadence: CadenceCustom, CustomDays: WeekdaySet{"Mon", "Fri"}, StartDate: date(2026, 1, 5)}
	s := Streak{IsActive: true}

	if !s.Advance(h, date(2026, 1, 5)) {
		t.Fatal("Mon advance failed")
	}
	// Tuesday is not required: no effect.
	if s.Advance(h, date(2026, 1, 6)) {
		t.Errorf("completion on a non-required day must not move the streak")
	}
	// Friday continues the run: Tue-Thu are not misses.
	if !s.Advance(h, date(2026, 1, 9)) {
		t.Fatal("Fri advance failed")
	}
	if s.CurrentStreak != 2 {
		t.Errorf("current = %d, want 2", s.CurrentStreak)
	}
}

func TestStreakAdvanceWeekly(t *testing.T) {
	h := &Habit{Cadence: CadenceWeekly, StartDate: date(2026, 1, 5)} // Monday
	s := Streak{IsActive: true}

	s.Advance(h, date(2026, 1, 5))
	s.Advance(h, date(2026, 1, 12))
	if s.CurrentStreak != 2 {
		t.Errorf("weekly back-to-back current = %d, want 2", s.CurrentStreak)
	}

	// Skip a week: restart.
	s.Advance(h, date(2026, 1, 26))
	if s.CurrentStreak != 1 {
		t.Errorf("weekly gap current = %d, want 1", s.CurrentStreak)
	}
}

func TestStreakReconcile(t *testing.T) {
	h := dailyHabit()
	s := Streak{IsActive: true}

	s.Advance(h, date(2026, 1, 1))
	s.Advance(h, date(2026, 1, 2))

	// Reading on day 3: day 3 itself is still open, nothing lapsed yet.
	if s.Reconcile(h, date(2026, 1, 3)) {
		t.Errorf("the open day must not count as missed")
	}
	if s.CurrentStreak != 2 {
		t.Errorf("current = %d, want 2", s.CurrentStreak)
	}

	// Reading on day 4 with day 3 never logged: the run is over.
	if !s.Reconcile(h, date(2026, 1, 4)) {
		t.Errorf("lapsed required day must reset the run")
	}
	if s.CurrentStreak != 0 {
		t.Errorf("current = %d after lapse, want 0", s.CurrentStreak)
	}
	if s.LongestStreak != 2 {
		t.Errorf("longest = %d must survive the reset, want 2", s.LongestStreak)
	}
}

func TestStreakReconcileFrozen(t *testing.T) {
	h := dailyHabit()
	s := Streak{IsActive: true}
	s.Advance(h, date(2026, 1, 1))
	s.Freeze()

	if s.Reconcile(h, date(2026, 2, 1)) {
		t.Errorf("frozen streaks must not reconcile")
	}
	if s.CurrentStreak != 1 {
		t.Errorf("frozen current = %d, want 1", s.CurrentStreak)
	}

	s.Unfreeze()
	if !s.IsActive || s.EndDate != nil {
		t.Errorf("unfreeze must restore the active state")
	}
}

func TestStreakRevoke(t *testing.T) {
	h := dailyHabit()
	s := Streak{IsActive: true}

	s.Advance(h, date(2026, 1, 1))
	s.Advance(h, date(2026, 1, 2))
	s.Advance(h, date(2026, 1, 3))

	// Only the head can be revoked.
	if s.Revoke(h, date(2026, 1, 2)) {
		t.Errorf("revoking a non-head day must be a no-op")
	}

	if !s.Revoke(h, date(2026, 1, 3)) {
		t.Fatal("head revoke failed")
	}
	if s.CurrentStreak != 2 {
		t.Errorf("current = %d after revoke, want 2", s.CurrentStreak)
	}
	if s.LastCompleted == nil || !Day(*s.LastCompleted).Equal(date(2026, 1, 2)) {
		t.Errorf("head must rewind one cadence step")
	}
	if s.LongestStreak != 3 {
		t.Errorf("longest = %d must not shrink, want 3", s.LongestStreak)
	}

	// Re-completing the revoked day restores the run.
	s.Advance(h, date(2026, 1, 3))
	if s.CurrentStreak != 3 {
		t.Errorf("current = %d after re-complete, want 3", s.CurrentStreak)
	}
}

func TestStreakRevokeToZero(t *testing.T) {
	h := dailyHabit()
	s := Streak{IsActive: true}
	s.Advance(h, date(2026, 1, 1))

	if !s.Revoke(h, date(2026, 1, 1)) {
		t.Fatal("revoke failed")
	}
	if s.CurrentStreak != 0 {
		t.Errorf("current = %d, want 0", s.CurrentStreak)
	}
	if s.LastCompleted != nil {
		t.Errorf("a fully revoked streak has no head")
	}
}

func TestStreakFreezeSetsEndDate(t *testing.T) {
	s := Streak{IsActive: true}
	s.Freeze()
	if s.IsActive {
		t.Errorf("freeze must deactivate")
	}
	if s.EndDate == nil || !Day(*s.EndDate).Equal(Day(time.Now())) {
		t.Errorf("freeze must stamp today as the end date")
	}
}
