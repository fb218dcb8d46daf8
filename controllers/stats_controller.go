package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/healoop/healoop/models"
	"github.com/healoop/healoop/utils"
)

// StatsController aggregates dashboard and history figures.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new controller instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// Dashboard returns the caller's headline numbers: points, badges, habit
// counts, today's completions and the best current streak.
func (s *StatsController) Dashboard(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50110, "failed to load user")
		return
	}

	var totalHabits, activeHabits int64
	s.db.Model(&models.Habit{}).Where("user_id = ?", userID).Count(&totalHabits)
	s.db.Model(&models.Habit{}).Where("user_id = ? AND is_active = ?", userID, true).Count(&activeHabits)

	today := models.Day(time.Now())
	var completedToday int64
	s.db.Model(&models.HabitLog{}).
		Joins("JOIN habits ON habits.id = habit_logs.habit_id").
		Where("habits.user_id = ? AND habit_logs.date = ? AND habit_logs.completed = ?", userID, today, true).
		Count(&completedToday)

	var badgeCount int64
	s.db.Model(&models.UserBadge{}).Where("user_id = ?", userID).Count(&badgeCount)

	var bestStreak models.Streak
	var bestCurrent, bestLongest int
	if err := s.db.Where("user_id = ?", userID).Order("current_streak DESC").First(&bestStreak).Error; err == nil {
		bestCurrent = bestStreak.CurrentStreak
	}
	if err := s.db.Where("user_id = ?", userID).Order("longest_streak DESC").First(&bestStreak).Error; err == nil {
		bestLongest = bestStreak.LongestStreak
	}

	var unread int64
	s.db.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", userID, false).Count(&unread)

	utils.Success(ctx, gin.H{
		"points":          user.Points,
		"badges":          badgeCount,
		"total_habits":    totalHabits,
		"active_habits":   activeHabits,
		"completed_today": completedToday,
		"best_current":    bestCurrent,
		"best_longest":    bestLongest,
		"unread":          unread,
	})
}

// History returns per-day completion counts over a window, newest last. Used
// by the client's calendar heatmap. Defaults to the last 30 days.
func (s *StatsController) History(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	to := models.Day(time.Now())
	from := to.AddDate(0, 0, -29)
	if v := ctx.Query("from"); v != "" {
		if d, err := parseDate(v); err == nil {
			from = models.Day(d)
		}
	}
	if v := ctx.Query("to"); v != "" {
		if d, err := parseDate(v); err == nil {
			to = models.Day(d)
		}
	}
	if to.Before(from) {
		utils.Error(ctx, http.StatusBadRequest, 40111, "invalid date range")
		return
	}
	if to.Sub(from) > 366*24*time.Hour {
		utils.Error(ctx, http.StatusBadRequest, 40112, "range cannot exceed one year")
		return
	}

	type row struct {
		Date      time.Time
		Completed int64
		Logged    int64
	}
	var rows []row
	if err := s.db.Model(&models.HabitLog{}).
		Select("habit_logs.date AS date, SUM(CASE WHEN habit_logs.completed THEN 1 ELSE 0 END) AS completed, COUNT(*) AS logged").
		Joins("JOIN habits ON habits.id = habit_logs.habit_id").
		Where("habits.user_id = ? AND habit_logs.date BETWEEN ? AND ?", userID, from, to).
		Group("habit_logs.date").Order("habit_logs.date").
		Scan(&rows).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50111, "failed to load history")
		return
	}

	days := make([]gin.H, 0, len(rows))
	for _, r := range rows {
		days = append(days, gin.H{
			"date":      r.Date.Format("2006-01-02"),
			"completed": r.Completed,
			"logged":    r.Logged,
		})
	}

	utils.Success(ctx, gin.H{
		"from": from.Format("2006-01-02"),
		"to":   to.Format("2006-01-02"),
		"days": days,
	})
}

// MyBadges lists the badges the caller has earned, newest first.
func (s *StatsController) MyBadges(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var earned []models.UserBadge
	if err := s.db.Preload("Badge").Where("user_id = ?", userID).
		Order("awarded_at DESC").Find(&earned).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50112, "failed to list badges")
		return
	}

	utils.Success(ctx, gin.H{"badges": earned})
}

// Activity returns API request counts per day for the last week. Admin only.
func (s *StatsController) Activity(ctx *gin.Context) {
	if !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40310, "admin only")
		return
	}

	since := models.Day(time.Now()).AddDate(0, 0, -6)
	var counts []models.ActivityCount
	if err := s.db.Where("date >= ?", since).
		Order("date DESC, count DESC").Find(&counts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50113, "failed to load activity")
		return
	}

	byDay := map[string]int64{}
	for _, c := range counts {
		byDay[c.Date.Format("2006-01-02")] += c.Count
	}

	utils.Success(ctx, gin.H{
		"since":   since.Format("2006-01-02"),
		"per_day": byDay,
		"paths":   counts,
	})
}

// Leaderboard ranks the caller and their friends by points.
func (s *StatsController) Leaderboard(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var friendIDs []uint
	if err := s.db.Model(&models.Friendship{}).Where("user_id = ?", userID).
		Pluck("friend_id", &friendIDs).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50114, "failed to load friends")
		return
	}
	ids := utils.UniqueUint(append(friendIDs, userID))

	var users []models.User
	if err := s.db.Where("id IN ?", ids).Order("points DESC").Find(&users).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50114, "failed to load leaderboard")
		return
	}

	board := make([]gin.H, 0, len(users))
	for i, u := range users {
		board = append(board, gin.H{
			"rank":     i + 1,
			"user_id":  u.ID,
			"username": u.Username,
			"points":   u.Points,
			"is_me":    u.ID == userID,
		})
	}

	utils.Success(ctx, gin.H{"leaderboard": board})
}
