package controllers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/healoop/healoop/models"
)

func TestDashboard(t *testing.T) {
	r, db := newTestRouter(t)
	user := createTestUser(t, db, "alice", 0)
	token := testToken(t, user)

	first := createTestHabit(t, db, user.ID, nil)
	createTestHabit(t, db, user.ID, func(h *models.Habit) { h.Name = "Paused"; h.IsActive = false })

	status, _ := logProgress(t, r, token, first.ID, "", 1)
	require.Equal(t, http.StatusOK, status)

	status, resp := doJSON(t, r, http.MethodGet, "/api/v1/stats/dashboard", token, nil)
	require.Equal(t, http.StatusOK, status)

	var res struct {
		Points         int   `json:"points"`
		TotalHabits    int64 `json:"total_habits"`
		ActiveHabits   int64 `json:"active_habits"`
		CompletedToday int64 `json:"completed_today"`
		BestCurrent    int   `json:"best_current"`
		BestLongest    int   `json:"best_longest"`
	}
	decodeData(t, resp, &res)
	require.Equal(t, 10, res.Points)
	require.EqualValues(t, 2, res.TotalHabits)
	require.EqualValues(t, 1, res.ActiveHabits)
	require.EqualValues(t, 1, res.CompletedToday)
	require.Equal(t, 1, res.BestCurrent)
	require.Equal(t, 1, res.BestLongest)
}

func TestHistoryAggregates(t *testing.T) {
	r, db := newTestRouter(t)
	user := createTestUser(t, db, "bob", 0)
	token := testToken(t, user)

	first := createTestHabit(t, db, user.ID, nil)
	second := createTestHabit(t, db, user.ID, func(h *models.Habit) {
		h.Name = "Stretch"
		h.TargetPerDay = 2
	})

	today := models.Day(time.Now()).Format("2006-01-02")
	status, _ := logProgress(t, r, token, first.ID, today, 1)
	require.Equal(t, http.StatusOK, status)
	status, _ = logProgress(t, r, token, second.ID, today, 1) // partial
	require.Equal(t, http.StatusOK, status)

	status, resp := doJSON(t, r, http.MethodGet, "/api/v1/stats/history", token, nil)
	require.Equal(t, http.StatusOK, status)

	var res struct {
		Days []struct {
			Date      string `json:"date"`
			Completed int    `json:"completed"`
			Logged    int    `json:"logged"`
		} `json:"days"`
	}
	decodeData(t, resp, &res)
	require.Len(t, res.Days, 1)
	require.Equal(t, today, res.Days[0].Date)
	require.Equal(t, 1, res.Days[0].Completed)
	require.Equal(t, 2, res.Days[0].Logged)
}

func TestHistoryRejectsOverlongRange(t *testing.T) {
	r, db := newTestRouter(t)
	user := createTestUser(t, db, "carol", 0)
	token := testToken(t, user)

	status, resp := doJSON(t, r, http.MethodGet,
		"/api/v1/stats/history?from=2020-01-01&to=2022-01-01", token, nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, 40112, resp.Code)
}

func TestLeaderboardRanksFriendsAndSelf(t *testing.T) {
	r, db := newTestRouter(t)
	alice := createTestUser(t, db, "alice", 30)
	bob := createTestUser(t, db, "bob", 80)
	createTestUser(t, db, "stranger", 500)
	require.NoError(t, db.Create(&models.Friendship{UserID: alice.ID, FriendID: bob.ID}).Error)
	require.NoError(t, db.Create(&models.Friendship{UserID: bob.ID, FriendID: alice.ID}).Error)

	status, resp := doJSON(t, r, http.MethodGet, "/api/v1/stats/leaderboard", testToken(t, alice), nil)
	require.Equal(t, http.StatusOK, status)

	var res struct {
		Leaderboard []struct {
			Rank     int    `json:"rank"`
			Username string `json:"username"`
			Points   int    `json:"points"`
			IsMe     bool   `json:"is_me"`
		} `json:"leaderboard"`
	}
	decodeData(t, resp, &res)
	require.Len(t, res.Leaderboard, 2)
	require.Equal(t, "bob", res.Leaderboard[0].Username)
	require.Equal(t, 1, res.Leaderboard[0].Rank)
	require.True(t, res.Leaderboard[1].IsMe)
}

func TestNotificationLifecycle(t *testing.T) {
	r, db := newTestRouter(t)
	user := createTestUser(t, db, "dave", 0)
	other := createTestUser(t, db, "erin", 0)
	token := testToken(t, user)

	require.NoError(t, db.Create(&models.Notification{UserID: user.ID, Message: "first"}).Error)
	require.NoError(t, db.Create(&models.Notification{UserID: user.ID, Message: "second"}).Error)
	foreign := models.Notification{UserID: other.ID, Message: "not yours"}
	require.NoError(t, db.Create(&foreign).Error)

	status, resp := doJSON(t, r, http.MethodGet, "/api/v1/notifications", token, nil)
	require.Equal(t, http.StatusOK, status)
	var res struct {
		Notifications []models.Notification `json:"notifications"`
		Unread        int64                 `json:"unread"`
	}
	decodeData(t, resp, &res)
	require.Len(t, res.Notifications, 2)
	require.EqualValues(t, 2, res.Unread)

	// Another user's notification is out of reach.
	status, resp = doJSON(t, r, http.MethodPost,
		"/api/v1/notifications/"+itoa(foreign.ID)+"/read", token, nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, 40400, resp.Code)

	status, _ = doJSON(t, r, http.MethodPost, "/api/v1/notifications/read-all", token, nil)
	require.Equal(t, http.StatusOK, status)

	var unread int64
	require.NoError(t, db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", user.ID, false).Count(&unread).Error)
	require.Zero(t, unread)
}

func itoa(id uint) string {
	return fmt.Sprintf("%d", id)
}
