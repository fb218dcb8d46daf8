package main

import (
	"time"

	"github.com/healoop/healoop/config"
	"github.com/healoop/healoop/models"
	"github.com/healoop/healoop/routes"
	"github.com/healoop/healoop/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
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
	)

	r := routes.SetupRouter(db)

	// Best-effort background housekeeping
	utils.StartNotificationPruner(time.Hour, 90*24*time.Hour)
	utils.StartUploadCleaner(5 * time.Minute)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
