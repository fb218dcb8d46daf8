package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/healoop/healoop/config"
	"github.com/healoop/healoop/controllers"
	"github.com/healoop/healoop/middleware"
	"github.com/healoop/healoop/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap access logger
	gl := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	r.Use(utils.Ginzap(gl, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(gl, false))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Count API activity after each request
	r.Use(middleware.ActivityRecorder(db))

	r.Static("/static", "./uploads")

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db)
	habitController := controllers.NewHabitController(db)
	logController := controllers.NewLogController(db)
	reminderController := controllers.NewReminderController(db)
	catalogController := controllers.NewCatalogController(db)
	rewardController := controllers.NewRewardController(db)
	friendController := controllers.NewFriendController(db)
	challengeController := controllers.NewChallengeController(db)
	notificationController := controllers.NewNotificationController(db)
	statsController := controllers.NewStatsController(db)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/send-email-code", authController.SendEmailCode)
	authGroup.GET("/captcha", authController.Captcha)
	authGroup.POST("/password/reset", authController.ResetPassword)
	authGroup.GET("/oauth/:provider/login", authController.OAuthRedirect)
	authGroup.GET("/oauth/:provider/callback", authController.OAuthCallback)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)
	authGroup.PATCH("/profile", middleware.AuthRequired(), authController.UpdateProfile)
	authGroup.POST("/password/change", middleware.AuthRequired(), authController.ChangePassword)
	authGroup.POST("/avatar", middleware.AuthRequired(), authController.UploadAvatar)

	// Public lookups
	api.GET("/users/by-username/:username", authController.GetUserPublic)
	api.GET("/catalog/categories", catalogController.ListCategories)
	api.GET("/catalog/units", catalogController.ListUnits)
	api.GET("/catalog/badges", catalogController.ListBadges)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())

	protected.GET("/users", authController.ListUsers)

	protected.POST("/habits", habitController.CreateHabit)
	protected.GET("/habits", habitController.ListHabits)
	protected.GET("/habits/:id", habitController.GetHabit)
	protected.PUT("/habits/:id", habitController.UpdateHabit)
	protected.DELETE("/habits/:id", habitController.DeleteHabit)
	protected.POST("/habits/:id/activate", habitController.ActivateHabit)
	protected.POST("/habits/:id/deactivate", habitController.DeactivateHabit)

	protected.POST("/habits/:id/reminders", reminderController.CreateReminder)
	protected.GET("/habits/:id/reminders", reminderController.ListReminders)
	protected.DELETE("/habits/:id/reminders/:rid", reminderController.DeleteReminder)

	protected.POST("/habits/:id/logs", logController.UpsertLog)
	protected.GET("/habits/:id/logs", logController.ListLogs)
	protected.GET("/habits/:id/streak", logController.GetStreak)
	protected.GET("/today", logController.Today)
	protected.GET("/streaks", logController.ListStreaks)

	protected.POST("/catalog/categories", catalogController.CreateCategory)
	protected.POST("/catalog/units", catalogController.CreateUnit)
	protected.POST("/catalog/badges", catalogController.CreateBadge)

	protected.POST("/rewards", rewardController.CreateReward)
	protected.GET("/rewards", rewardController.ListRewards)
	protected.PUT("/rewards/:id", rewardController.UpdateReward)
	protected.DELETE("/rewards/:id", rewardController.DeleteReward)
	protected.POST("/rewards/:id/claim", rewardController.ClaimReward)

	protected.POST("/friends/requests", friendController.SendRequest)
	protected.GET("/friends/requests", friendController.ListRequests)
	protected.POST("/friends/requests/:id/accept", friendController.AcceptRequest)
	protected.POST("/friends/requests/:id/reject", friendController.RejectRequest)
	protected.GET("/friends", friendController.ListFriends)
	protected.DELETE("/friends/:id", friendController.Unfriend)

	protected.POST("/challenges", challengeController.CreateChallenge)
	protected.GET("/challenges", challengeController.ListChallenges)
	protected.GET("/challenges/:id", challengeController.GetChallenge)
	protected.PUT("/challenges/:id", challengeController.UpdateChallenge)
	protected.DELETE("/challenges/:id", challengeController.DeleteChallenge)
	protected.POST("/challenges/:id/join", challengeController.JoinChallenge)
	protected.POST("/challenges/:id/progress", challengeController.UpdateProgress)
	protected.POST("/challenges/:id/leave", challengeController.LeaveChallenge)

	protected.GET("/notifications", notificationController.ListNotifications)
	protected.POST("/notifications/:id/read", notificationController.MarkRead)
	protected.POST("/notifications/read-all", notificationController.MarkAllRead)
	protected.DELETE("/notifications/:id", notificationController.DeleteNotification)

	protected.GET("/stats/dashboard", statsController.Dashboard)
	protected.GET("/stats/history", statsController.History)
	protected.GET("/stats/badges", statsController.MyBadges)
	protected.GET("/stats/leaderboard", statsController.Leaderboard)
	protected.GET("/stats/activity", statsController.Activity)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
