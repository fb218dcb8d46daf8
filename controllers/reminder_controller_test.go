package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/healoop/healoop/models"
)

func TestReminderLifecycle(t *testing.T) {
	r, db := newTestRouter(t)
	user := createTestUser(t, db, "alice", 0)
	token := testToken(t, user)
	habit := createTestHabit(t, db, user.ID, nil)

	base := fmt.Sprintf("/api/v1/habits/%d/reminders", habit.ID)

	status, resp := doJSON(t, r, http.MethodPost, base, token,
		map[string]interface{}{"time_of_day": "07:30", "message": "Morning glass"})
	require.Equal(t, http.StatusOK, status)

	var created struct {
		Reminder models.Reminder `json:"reminder"`
	}
	decodeData(t, resp, &created)
	require.Equal(t, "07:30", created.Reminder.TimeOfDay)
	require.True(t, created.Reminder.IsEnabled)

	status, resp = doJSON(t, r, http.MethodGet, base, token, nil)
	require.Equal(t, http.StatusOK, status)
	var listed struct {
		Reminders []models.Reminder `json:"reminders"`
	}
	decodeData(t, resp, &listed)
	require.Len(t, listed.Reminders, 1)

	status, _ = doJSON(t, r, http.MethodDelete,
		fmt.Sprintf("%s/%d", base, created.Reminder.ID), token, nil)
	require.Equal(t, http.StatusOK, status)

	var rows int64
	require.NoError(t, db.Model(&models.Reminder{}).Where("habit_id = ?", habit.ID).Count(&rows).Error)
	require.Zero(t, rows)
}

func TestReminderRejectsBadTime(t *testing.T) {
	r, db := newTestRouter(t)
	user := createTestUser(t, db, "bob", 0)
	token := testToken(t, user)
	habit := createTestHabit(t, db, user.ID, nil)

	status, resp := doJSON(t, r, http.MethodPost,
		fmt.Sprintf("/api/v1/habits/%d/reminders", habit.ID), token,
		map[string]interface{}{"time_of_day": "25:99"})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, 40044, resp.Code)
}

func TestReminderOwnershipEnforced(t *testing.T) {
	r, db := newTestRouter(t)
	owner := createTestUser(t, db, "carol", 0)
	other := createTestUser(t, db, "dave", 0)
	habit := createTestHabit(t, db, owner.ID, nil)

	status, resp := doJSON(t, r, http.MethodPost,
		fmt.Sprintf("/api/v1/habits/%d/reminders", habit.ID), testToken(t, other),
		map[string]interface{}{"time_of_day": "12:00"})
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, 40340, resp.Code)
}
