package controllers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/healoop/healoop/models"
)

func TestBadgeSweepOnCompletion(t *testing.T) {
	r, db := newTestRouter(t)
	require.NoError(t, db.Create(&models.Badge{Name: "Starter", PointsRequired: 10}).Error)
	require.NoError(t, db.Create(&models.Badge{Name: "Collector", PointsRequired: 100}).Error)

	user := createTestUser(t, db, "alice", 0)
	token := testToken(t, user)
	habit := createTestHabit(t, db, user.ID, nil)

	status, _ := logProgress(t, r, token, habit.ID, "", 1)
	require.Equal(t, http.StatusOK, status)

	// 10 points reaches Starter but not Collector.
	var earned []models.UserBadge
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&earned).Error)
	require.Len(t, earned, 1)

	var n int64
	require.NoError(t, db.Model(&models.Notification{}).
		Where("user_id = ? AND message LIKE ?", user.ID, "%Starter%").Count(&n).Error)
	require.EqualValues(t, 1, n)
}

func TestBadgeNotRevokedByClawback(t *testing.T) {
	r, db := newTestRouter(t)
	require.NoError(t, db.Create(&models.Badge{Name: "Starter", PointsRequired: 10}).Error)

	user := createTestUser(t, db, "bob", 0)
	token := testToken(t, user)
	habit := createTestHabit(t, db, user.ID, nil)

	status, _ := logProgress(t, r, token, habit.ID, "", 1)
	require.Equal(t, http.StatusOK, status)
	status, _ = logProgress(t, r, token, habit.ID, "", 0)
	require.Equal(t, http.StatusOK, status)

	var earned int64
	require.NoError(t, db.Model(&models.UserBadge{}).Where("user_id = ?", user.ID).Count(&earned).Error)
	require.EqualValues(t, 1, earned)
	require.Equal(t, 0, userPoints(t, db, user.ID))
}

func TestBadgeAwardedOncePerUser(t *testing.T) {
	r, db := newTestRouter(t)
	require.NoError(t, db.Create(&models.Badge{Name: "Starter", PointsRequired: 10}).Error)

	user := createTestUser(t, db, "carol", 0)
	token := testToken(t, user)
	first := createTestHabit(t, db, user.ID, nil)
	second := createTestHabit(t, db, user.ID, func(h *models.Habit) { h.Name = "Stretch" })

	status, _ := logProgress(t, r, token, first.ID, "", 1)
	require.Equal(t, http.StatusOK, status)
	status, _ = logProgress(t, r, token, second.ID, "", 1)
	require.Equal(t, http.StatusOK, status)

	var earned int64
	require.NoError(t, db.Model(&models.UserBadge{}).Where("user_id = ?", user.ID).Count(&earned).Error)
	require.EqualValues(t, 1, earned)
	require.Equal(t, 20, userPoints(t, db, user.ID))
}
