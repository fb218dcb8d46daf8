package controllers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/healoop/healoop/models"
)

func TestCreateHabitDefaults(t *testing.T) {
	r, db := newTestRouter(t)
	user := createTestUser(t, db, "alice", 0)
	token := testToken(t, user)

	status, resp := doJSON(t, r, http.MethodPost, "/api/v1/habits", token,
		map[string]interface{}{"name": "Read"})
	require.Equal(t, http.StatusOK, status)

	var res struct {
		Habit models.Habit `json:"habit"`
	}
	decodeData(t, resp, &res)
	require.Equal(t, models.CadenceDaily, res.Habit.Cadence)
	require.Equal(t, 1, res.Habit.TargetPerDay)
	require.Equal(t, "anytime", res.Habit.TimeOfDay)
	require.Equal(t, models.Day(time.Now()), models.Day(res.Habit.StartDate))
	require.True(t, res.Habit.IsActive)

	// The zeroed streak row is created alongside.
	var streak models.Streak
	require.NoError(t, db.Where("habit_id = ?", res.Habit.ID).First(&streak).Error)
	require.Equal(t, 0, streak.CurrentStreak)
	require.True(t, streak.IsActive)
}

func TestCreateHabitValidation(t *testing.T) {
	r, db := newTestRouter(t)
	user := createTestUser(t, db, "bob", 0)
	token := testToken(t, user)

	cases := []map[string]interface{}{
		{"name": "Run", "target_per_day": -2},
		{"name": "Run", "cadence": "hourly"},
		{"name": "Run", "cadence": "custom"},
		{"name": "Run", "cadence": "custom", "custom_days": []string{"Funday"}},
		{"name": "Run", "start_date": "2026-05-01", "end_date": "2026-04-01"},
	}
	for _, body := range cases {
		status, resp := doJSON(t, r, http.MethodPost, "/api/v1/habits", token, body)
		require.Equal(t, http.StatusBadRequest, status, "body: %v", body)
		require.Equal(t, 40041, resp.Code)
	}
}

func TestListHabitsFilters(t *testing.T) {
	r, db := newTestRouter(t)
	user := createTestUser(t, db, "carol", 0)
	token := testToken(t, user)

	createTestHabit(t, db, user.ID, func(h *models.Habit) { h.Name = "Morning run"; h.TimeOfDay = "morning" })
	createTestHabit(t, db, user.ID, func(h *models.Habit) { h.Name = "Evening read"; h.TimeOfDay = "evening" })
	createTestHabit(t, db, user.ID, func(h *models.Habit) { h.Name = "Paused"; h.IsActive = false })

	status, resp := doJSON(t, r, http.MethodGet, "/api/v1/habits?is_active=true", token, nil)
	require.Equal(t, http.StatusOK, status)
	var res struct {
		Habits []models.Habit `json:"habits"`
		Total  int64          `json:"total"`
	}
	decodeData(t, resp, &res)
	require.EqualValues(t, 2, res.Total)

	status, resp = doJSON(t, r, http.MethodGet, "/api/v1/habits?search=run", token, nil)
	require.Equal(t, http.StatusOK, status)
	decodeData(t, resp, &res)
	require.EqualValues(t, 1, res.Total)
	require.Equal(t, "Morning run", res.Habits[0].Name)
}

func TestDeactivateFreezesStreak(t *testing.T) {
	r, db := newTestRouter(t)
	user := createTestUser(t, db, "dave", 0)
	token := testToken(t, user)
	habit := createTestHabit(t, db, user.ID, nil)

	status, _ := logProgress(t, r, token, habit.ID, "", 1)
	require.Equal(t, http.StatusOK, status)

	status, _ = doJSON(t, r, http.MethodPost,
		fmt.Sprintf("/api/v1/habits/%d/deactivate", habit.ID), token, nil)
	require.Equal(t, http.StatusOK, status)

	var streak models.Streak
	require.NoError(t, db.Where("habit_id = ?", habit.ID).First(&streak).Error)
	require.False(t, streak.IsActive)
	require.Equal(t, 1, streak.CurrentStreak)
	require.NotNil(t, streak.EndDate)

	status, _ = doJSON(t, r, http.MethodPost,
		fmt.Sprintf("/api/v1/habits/%d/activate", habit.ID), token, nil)
	require.Equal(t, http.StatusOK, status)

	// gorm leaves stale values behind when scanning NULL columns into a reused
	// struct, so reset before re-loading to observe the cleared end_date.
	streak = models.Streak{}
	require.NoError(t, db.Where("habit_id = ?", habit.ID).First(&streak).Error)
	require.True(t, streak.IsActive)
	require.Equal(t, 1, streak.CurrentStreak)
	require.Nil(t, streak.EndDate)
}

func TestDeleteHabitCascades(t *testing.T) {
	r, db := newTestRouter(t)
	user := createTestUser(t, db, "erin", 0)
	token := testToken(t, user)
	habit := createTestHabit(t, db, user.ID, nil)

	status, _ := logProgress(t, r, token, habit.ID, "", 1)
	require.Equal(t, http.StatusOK, status)

	status, _ = doJSON(t, r, http.MethodDelete,
		fmt.Sprintf("/api/v1/habits/%d", habit.ID), token, nil)
	require.Equal(t, http.StatusOK, status)

	var logs, streaks, habits int64
	require.NoError(t, db.Model(&models.HabitLog{}).Where("habit_id = ?", habit.ID).Count(&logs).Error)
	require.NoError(t, db.Model(&models.Streak{}).Where("habit_id = ?", habit.ID).Count(&streaks).Error)
	require.NoError(t, db.Model(&models.Habit{}).Where("id = ?", habit.ID).Count(&habits).Error)
	require.Zero(t, logs)
	require.Zero(t, streaks)
	require.Zero(t, habits)
}

func TestGetHabitNotFoundAndForbidden(t *testing.T) {
	r, db := newTestRouter(t)
	owner := createTestUser(t, db, "frank", 0)
	other := createTestUser(t, db, "grace", 0)
	habit := createTestHabit(t, db, owner.ID, nil)

	status, resp := doJSON(t, r, http.MethodGet, "/api/v1/habits/9999", testToken(t, owner), nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, 40440, resp.Code)

	status, resp = doJSON(t, r, http.MethodGet,
		fmt.Sprintf("/api/v1/habits/%d", habit.ID), testToken(t, other), nil)
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, 40340, resp.Code)
}

func TestRequestsWithoutTokenRejected(t *testing.T) {
	r, _ := newTestRouter(t)

	status, resp := doJSON(t, r, http.MethodGet, "/api/v1/habits", "", nil)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, 40101, resp.Code)

	status, resp = doJSON(t, r, http.MethodGet, "/api/v1/habits", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, 40105, resp.Code)
}
