package models

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestHabitValidate(t *testing.T) {
	base := Habit{
		Name:         "Drink water",
		Cadence:      CadenceDaily,
		TimeOfDay:    TimeAnytime,
		TargetPerDay: 8,
		StartDate:    date(2026, 1, 1),
	}

	if err := base.Validate(); err != nil {
		t.Fatalf("valid habit rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Habit)
	}{
		{"empty name", func(h *Habit) { h.Name = "" }},
		{"zero target", func(h *Habit) { h.TargetPerDay = 0 }},
		{"negative target", func(h *Habit) { h.TargetPerDay = -3 }},
		{"target over cap", func(h *Habit) { h.TargetPerDay = MaxTargetPerDay + 1 }},
		{"unknown cadence", func(h *Habit) { h.Cadence = "fortnightly" }},
		{"custom without days", func(h *Habit) { h.Cadence = CadenceCustom; h.CustomDays = nil }},
		{"custom bad day name", func(h *Habit) { h.Cadence = CadenceCustom; h.CustomDays = WeekdaySet{"Monday"} }},
		{"unknown time of day", func(h *Habit) { h.TimeOfDay = "midnight" }},
		{"end before start", func(h *Habit) {
			end := date(2025, 12, 31)
			h.EndDate = &end
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := base
			tc.mutate(&h)
			if err := h.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestHabitValidateTargetCap(t *testing.T) {
	h := Habit{Name: "Steps", Cadence: CadenceDaily, TargetPerDay: MaxTargetPerDay, StartDate: date(2026, 1, 1)}
	if err := h.Validate(); err != nil {
		t.Fatalf("target at cap should be accepted: %v", err)
	}
}

func TestRequiredOn(t *testing.T) {
	// 2026-01-05 is a Monday
	mon := date(2026, 1, 5)

	daily := Habit{Cadence: CadenceDaily, StartDate: mon}
	for i := 0; i < 7; i++ {
		if !daily.RequiredOn(mon.AddDate(0, 0, i)) {
			t.Errorf("daily habit must be required every day")
		}
	}

	weekly := Habit{Cadence: CadenceWeekly, StartDate: mon}
	if !weekly.RequiredOn(mon) {
		t.Errorf("weekly habit required on its start weekday")
	}
	if weekly.RequiredOn(mon.AddDate(0, 0, 1)) {
		t.Errorf("weekly habit not required on other weekdays")
	}
	if !weekly.RequiredOn(mon.AddDate(0, 0, 7)) {
		t.Errorf("weekly habit required one week later")
	}

	custom := Habit{Cadence: CadenceCustom, CustomDays: WeekdaySet{"Mon", "Wed", "Fri"}, StartDate: mon}
	if !custom.RequiredOn(mon) || !custom.RequiredOn(mon.AddDate(0, 0, 2)) || !custom.RequiredOn(mon.AddDate(0, 0, 4)) {
		t.Errorf("custom habit required on listed days")
	}
	if custom.RequiredOn(mon.AddDate(0, 0, 1)) || custom.RequiredOn(mon.AddDate(0, 0, 5)) {
		t.Errorf("custom habit not required on unlisted days")
	}
}

func TestNextAndPrevRequiredDay(t *testing.T) {
	mon := date(2026, 1, 5)

	daily := Habit{Cadence: CadenceDaily, StartDate: mon}
	if got := daily.NextRequiredDay(mon); !got.Equal(mon.AddDate(0, 0, 1)) {
		t.Errorf("daily next = %v, want tomorrow", got)
	}
	if got := daily.PrevRequiredDay(mon); !got.Equal(mon.AddDate(0, 0, -1)) {
		t.Errorf("daily prev = %v, want yesterday", got)
	}

	weekly := Habit{Cadence: CadenceWeekly, StartDate: mon}
	if got := weekly.NextRequiredDay(mon); !got.Equal(mon.AddDate(0, 0, 7)) {
		t.Errorf("weekly next = %v, want next monday", got)
	}
	if got := weekly.PrevRequiredDay(mon); !got.Equal(mon.AddDate(0, 0, -7)) {
		t.Errorf("weekly prev = %v, want previous monday", got)
	}

	custom := Habit{Cadence: CadenceCustom, CustomDays: WeekdaySet{"Mon", "Fri"}, StartDate: mon}
	fri := mon.AddDate(0, 0, 4)
	if got := custom.NextRequiredDay(mon); !got.Equal(fri) {
		t.Errorf("custom next after Mon = %v, want Fri", got)
	}
	if got := custom.NextRequiredDay(fri); !got.Equal(mon.AddDate(0, 0, 7)) {
		t.Errorf("custom next after Fri = %v, want next Mon", got)
	}
	if got := custom.PrevRequiredDay(fri); !got.Equal(mon) {
		t.Errorf("custom prev before Fri = %v, want Mon", got)
	}
}

func TestDayTruncation(t *testing.T) {
	ts := time.Date(2026, 3, 15, 23, 59, 58, 12345, time.UTC)
	got := Day(ts)
	want := date(2026, 3, 15)
	if !got.Equal(want) {
		t.Errorf("Day(%v) = %v, want %v", ts, got, want)
	}
	if got.Location() != time.UTC {
		t.Errorf("Day must be UTC")
	}
}
