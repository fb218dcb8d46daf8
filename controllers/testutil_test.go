package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/healoop/healoop/config"
	"github.com/healoop/healoop/middleware"
	"github.com/healoop/healoop/models"
	"github.com/healoop/healoop/utils"
)

var testDBSeq uint64

// newTestDB opens an isolated in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", atomic.AddUint64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.UnitType{},
		&models.Unit{},
		&models.Habit{},
		&models.HabitLog{},
		&models.Streak{},
		&models.Reminder{},
		&models.Badge{},
		&models.UserBadge{},
		&models.Reward{},
		&models.Friendship{},
		&models.FriendRequest{},
		&models.Challenge{},
		&models.ChallengeProgress{},
		&models.Notification{},
		&models.ActivityCount{},
		&models.UploadedFile{},
	))
	return db
}

// newTestRouter wires the protected API surface against an in-memory database.
func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	config.SetForTesting(config.AppConfig{
		JWTSecret:           "test-secret",
		PointsPerCompletion: 10,
		ChallengeBonus:      50,
		RateLimitPerMinute:  600,
		AdminUsernames:      []string{"admin"},
	})

	gin.SetMode(gin.TestMode)
	db := newTestDB(t)

	habitController := NewHabitController(db)
	logController := NewLogController(db)
	reminderController := NewReminderController(db)
	catalogController := NewCatalogController(db)
	rewardController := NewRewardController(db)
	friendController := NewFriendController(db)
	challengeController := NewChallengeController(db)
	notificationController := NewNotificationController(db)
	statsController := NewStatsController(db)

	r := gin.New()
	api := r.Group("/api/v1", middleware.AuthRequired())

	api.POST("/habits", habitController.CreateHabit)
	api.GET("/habits", habitController.ListHabits)
	api.GET("/habits/:id", habitController.GetHabit)
	api.PUT("/habits/:id", habitController.UpdateHabit)
	api.DELETE("/habits/:id", habitController.DeleteHabit)
	api.POST("/habits/:id/activate", habitController.ActivateHabit)
	api.POST("/habits/:id/deactivate", habitController.DeactivateHabit)

	api.POST("/habits/:id/reminders", reminderController.CreateReminder)
	api.GET("/habits/:id/reminders", reminderController.ListReminders)
	api.DELETE("/habits/:id/reminders/:rid", reminderController.DeleteReminder)

	api.POST("/habits/:id/logs", logController.UpsertLog)
	api.GET("/habits/:id/logs", logController.ListLogs)
	api.GET("/habits/:id/streak", logController.GetStreak)
	api.GET("/today", logController.Today)
	api.GET("/streaks", logController.ListStreaks)

	api.POST("/catalog/categories", catalogController.CreateCategory)
	api.POST("/catalog/badges", catalogController.CreateBadge)

	api.POST("/rewards", rewardController.CreateReward)
	api.GET("/rewards", rewardController.ListRewards)
	api.PUT("/rewards/:id", rewardController.UpdateReward)
	api.DELETE("/rewards/:id", rewardController.DeleteReward)
	api.POST("/rewards/:id/claim", rewardController.ClaimReward)

	api.POST("/friends/requests", friendController.SendRequest)
	api.GET("/friends/requests", friendController.ListRequests)
	api.POST("/friends/requests/:id/accept", friendController.AcceptRequest)
	api.POST("/friends/requests/:id/reject", friendController.RejectRequest)
	api.GET("/friends", friendController.ListFriends)
	api.DELETE("/friends/:id", friendController.Unfriend)

	api.POST("/challenges", challengeController.CreateChallenge)
	api.GET("/challenges", challengeController.ListChallenges)
	api.GET("/challenges/:id", challengeController.GetChallenge)
	api.PUT("/challenges/:id", challengeController.UpdateChallenge)
	api.DELETE("/challenges/:id", challengeController.DeleteChallenge)
	api.POST("/challenges/:id/join", challengeController.JoinChallenge)
	api.POST("/challenges/:id/progress", challengeController.UpdateProgress)
	api.POST("/challenges/:id/leave", challengeController.LeaveChallenge)

	api.GET("/notifications", notificationController.ListNotifications)
	api.POST("/notifications/:id/read", notificationController.MarkRead)
	api.POST("/notifications/read-all", notificationController.MarkAllRead)
	api.DELETE("/notifications/:id", notificationController.DeleteNotification)

	api.GET("/stats/dashboard", statsController.Dashboard)
	api.GET("/stats/history", statsController.History)
	api.GET("/stats/badges", statsController.MyBadges)
	api.GET("/stats/leaderboard", statsController.Leaderboard)

	return r, db
}

func createTestUser(t *testing.T, db *gorm.DB, username string, points int) models.User {
	t.Helper()

	hash, err := utils.HashPassword("password123")
	require.NoError(t, err)

	u := models.User{
		Email:        username + "@example.com",
		Username:     username,
		PasswordHash: hash,
		Nickname:     username,
		Timezone:     "UTC",
		Points:       points,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func testToken(t *testing.T, u models.User) string {
	t.Helper()
	token, err := utils.GenerateToken(u.ID, u.Username, time.Hour)
	require.NoError(t, err)
	return token
}

func createTestHabit(t *testing.T, db *gorm.DB, userID uint, mutate func(*models.Habit)) models.Habit {
	t.Helper()

	h := models.Habit{
		UserID:       userID,
		Name:         "Drink water",
		Cadence:      models.CadenceDaily,
		TimeOfDay:    "anytime",
		TargetPerDay: 1,
		Status:       "progressing",
		IsActive:     true,
		StartDate:    models.Day(time.Now().AddDate(0, 0, -30)),
	}
	if mutate != nil {
		mutate(&h)
	}
	// gorm skips zero-valued fields carrying a default tag on INSERT and then
	// writes the column default back into the struct, so IsActive=false must be
	// persisted with an explicit update after the create.
	isActive := h.IsActive
	require.NoError(t, db.Create(&h).Error)
	if !isActive {
		require.NoError(t, db.Model(&models.Habit{}).Where("id = ?", h.ID).Update("is_active", false).Error)
		h.IsActive = false
	}
	return h
}

type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// doJSON performs an authenticated JSON request against the test router.
func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (int, apiResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return w.Code, resp
}

func decodeData(t *testing.T, resp apiResponse, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(resp.Data, out))
}

func userPoints(t *testing.T, db *gorm.DB, userID uint) int {
	t.Helper()
	var u models.User
	require.NoError(t, db.First(&u, userID).Error)
	return u.Points
}
