package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/healoop/healoop/config"
	"github.com/healoop/healoop/models"
	"github.com/healoop/healoop/utils"
)

// LogController handles daily habit progress and the streak/points updates
// that follow from it.
type LogController struct {
	db *gorm.DB
}

var (
	errHabitInactive    = errors.New("habit is not active")
	errProgressConflict = errors.New("progress updated concurrently")
)

// NewLogController creates a new controller instance.
func NewLogController(db *gorm.DB) *LogController {
	return &LogController{db: db}
}

// UpsertLog records progress for one habit on one day. The first write for a
// (habit, day) creates the row; later writes update it in place. Crossing the
// daily target awards points and advances the streak; editing a completed day
// back below target claws both back.
func (l *LogController) UpsertLog(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		Date     string `json:"date"`
		Progress *int   `json:"progress" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid request payload")
		return
	}

	day := models.Day(time.Now())
	if req.Date != "" {
		d, err := parseDate(req.Date)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40061, "date must be YYYY-MM-DD")
			return
		}
		day = models.Day(d)
	}
	if day.After(models.Day(time.Now())) {
		utils.Error(ctx, http.StatusBadRequest, 40062, "cannot log progress for a future day")
		return
	}

	hc := &HabitController{db: l.db}
	habit, ok := hc.ownedHabit(ctx, userID)
	if !ok {
		return
	}

	if day.Before(models.Day(habit.StartDate)) {
		utils.Error(ctx, http.StatusBadRequest, 40063, "day is before the habit start date")
		return
	}
	if habit.EndDate != nil && day.After(models.Day(*habit.EndDate)) {
		utils.Error(ctx, http.StatusBadRequest, 40064, "day is after the habit end date")
		return
	}

	cfg := config.Get()
	var logRow models.HabitLog
	var streak models.Streak
	var balance int

	err := l.db.Transaction(func(tx *gorm.DB) error {
		if !habit.IsActive {
			return errHabitInactive
		}

		created := false
		if err := tx.Where("habit_id = ? AND date = ?", habit.ID, day).First(&logRow).Error; err != nil {
			if err != gorm.ErrRecordNotFound {
				return err
			}
			logRow = models.HabitLog{HabitID: habit.ID, Date: day}
			created = true
		}

		wasCompleted := logRow.Completed
		pointsHeld := logRow.PointsAwarded
		if err := logRow.ApplyProgress(*req.Progress, habit.TargetPerDay); err != nil {
			return err
		}

		if err := tx.Where("user_id = ? AND habit_id = ?", userID, habit.ID).First(&streak).Error; err != nil {
			if err != gorm.ErrRecordNotFound {
				return err
			}
			streak = models.Streak{UserID: userID, HabitID: habit.ID, IsActive: true}
			if err := tx.Create(&streak).Error; err != nil {
				return err
			}
		}
		prev := streak

		// Settle any lapsed required days before applying today.
		streakDirty := streak.Reconcile(&habit, models.Day(time.Now()))

		awarding := !wasCompleted && logRow.Completed
		revoking := wasCompleted && !logRow.Completed
		if awarding {
			logRow.PointsAwarded = cfg.PointsPerCompletion
		}
		if revoking {
			logRow.PointsAwarded = 0
		}

		// The log row is written first, guarded by the completion state it
		// was read in, so a transaction that lost the race aborts before any
		// points move.
		if err := persistLog(tx, &logRow, created, wasCompleted); err != nil {
			return err
		}

		switch {
		case awarding:
			newBalance, err := adjustPoints(tx, userID, cfg.PointsPerCompletion)
			if err != nil {
				return err
			}
			balance = newBalance
			if streak.Advance(&habit, day) {
				streakDirty = true
			}
			if err := sweepBadges(tx, userID, newBalance); err != nil {
				return err
			}
		case revoking:
			if pointsHeld > 0 {
				newBalance, err := adjustPoints(tx, userID, -pointsHeld)
				if err == errInsufficientPoints {
					// Points were already spent; floor at zero rather than fail the edit.
					if txErr := tx.Model(&models.User{}).Where("id = ?", userID).
						Update("points", 0).Error; txErr != nil {
						return txErr
					}
					newBalance = 0
					err = nil
				}
				if err != nil {
					return err
				}
				balance = newBalance
			}
			if streak.Revoke(&habit, day) {
				streakDirty = true
			}
		}

		if streakDirty {
			if err := persistStreak(tx, &streak, prev); err != nil {
				return err
			}
		}

		if balance == 0 {
			var user models.User
			if err := tx.Select("points").First(&user, userID).Error; err != nil {
				return err
			}
			balance = user.Points
		}
		return nil
	})
	if err != nil {
		var verr *models.ValidationError
		switch {
		case errors.As(err, &verr):
			utils.Error(ctx, http.StatusBadRequest, 40065, verr.Error())
		case errors.Is(err, errHabitInactive):
			utils.Error(ctx, http.StatusBadRequest, 40066, "habit is not active")
		case errors.Is(err, errProgressConflict):
			utils.Error(ctx, http.StatusConflict, 40960, "progress was updated concurrently, please retry")
		default:
			utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to record progress")
		}
		return
	}

	utils.Success(ctx, gin.H{
		"log":        logRow,
		"streak":     streak,
		"points":     balance,
		"completion": models.CompletionValue(logRow.Progress, habit.TargetPerDay),
	})
}

// ListLogs returns a habit's logs, optionally bounded by from/to dates.
func (l *LogController) ListLogs(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	hc := &HabitController{db: l.db}
	habit, ok := hc.ownedHabit(ctx, userID)
	if !ok {
		return
	}

	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	query := l.db.Where("habit_id = ?", habit.ID).Order("date DESC")
	if v := ctx.Query("from"); v != "" {
		if d, err := parseDate(v); err == nil {
			query = query.Where("date >= ?", models.Day(d))
		}
	}
	if v := ctx.Query("to"); v != "" {
		if d, err := parseDate(v); err == nil {
			query = query.Where("date <= ?", models.Day(d))
		}
	}

	var logs []models.HabitLog
	var total int64
	if err := query.Model(&models.HabitLog{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50061, "failed to list logs")
		return
	}
	if err := query.Offset((page - 1) * pageSize).Limit(pageSize).Find(&logs).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50061, "failed to list logs")
		return
	}

	utils.Success(ctx, gin.H{
		"logs":      logs,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// Today returns the caller's active habits with today's log and whether the
// cadence requires a completion today.
func (l *LogController) Today(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	today := models.Day(time.Now())

	var habits []models.Habit
	if err := l.db.Preload("Unit").Where("user_id = ? AND is_active = ?", userID, true).Find(&habits).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50062, "failed to load habits")
		return
	}

	habitIDs := make([]uint, 0, len(habits))
	for _, h := range habits {
		habitIDs = append(habitIDs, h.ID)
	}

	logsByHabit := map[uint]models.HabitLog{}
	if len(habitIDs) > 0 {
		var logs []models.HabitLog
		if err := l.db.Where("habit_id IN ? AND date = ?", habitIDs, today).Find(&logs).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50062, "failed to load logs")
			return
		}
		for _, lg := range logs {
			logsByHabit[lg.HabitID] = lg
		}
	}

	items := make([]gin.H, 0, len(habits))
	for i := range habits {
		h := &habits[i]
		item := gin.H{
			"habit":          h,
			"required_today": h.RequiredOn(today),
		}
		if lg, ok := logsByHabit[h.ID]; ok {
			item["log"] = lg
			item["completion"] = models.CompletionValue(lg.Progress, h.TargetPerDay)
		}
		items = append(items, item)
	}

	utils.Success(ctx, gin.H{"date": today.Format("2006-01-02"), "items": items})
}

// GetStreak returns one habit's streak after reconciling lapsed days.
func (l *LogController) GetStreak(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	hc := &HabitController{db: l.db}
	habit, ok := hc.ownedHabit(ctx, userID)
	if !ok {
		return
	}

	var streak models.Streak
	if err := l.db.Where("user_id = ? AND habit_id = ?", userID, habit.ID).First(&streak).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40460, "streak not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50063, "failed to load streak")
		return
	}

	if streak.Reconcile(&habit, models.Day(time.Now())) {
		if err := l.db.Save(&streak).Error; err != nil && utils.Sugar != nil {
			utils.Sugar.Warnf("streak reconcile save failed id=%d err=%v", streak.ID, err)
		}
	}

	utils.Success(ctx, gin.H{"streak": streak})
}

// ListStreaks returns every streak of the caller, reconciled.
func (l *LogController) ListStreaks(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var streaks []models.Streak
	if err := l.db.Where("user_id = ?", userID).Find(&streaks).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50064, "failed to list streaks")
		return
	}

	habitsByID := map[uint]models.Habit{}
	var habits []models.Habit
	if err := l.db.Where("user_id = ?", userID).Find(&habits).Error; err == nil {
		for _, h := range habits {
			habitsByID[h.ID] = h
		}
	}

	today := models.Day(time.Now())
	maxLongest, activeRuns := 0, 0
	for i := range streaks {
		if h, ok := habitsByID[streaks[i].HabitID]; ok {
			if streaks[i].Reconcile(&h, today) {
				if err := l.db.Save(&streaks[i]).Error; err != nil && utils.Sugar != nil {
					utils.Sugar.Warnf("streak reconcile save failed id=%d err=%v", streaks[i].ID, err)
				}
			}
		}
		if streaks[i].LongestStreak > maxLongest {
			maxLongest = streaks[i].LongestStreak
		}
		if streaks[i].IsActive && streaks[i].CurrentStreak > 0 {
			activeRuns++
		}
	}

	var logged, completed int64
	l.db.Model(&models.HabitLog{}).
		Joins("JOIN habits ON habits.id = habit_logs.habit_id").
		Where("habits.user_id = ?", userID).Count(&logged)
	l.db.Model(&models.HabitLog{}).
		Joins("JOIN habits ON habits.id = habit_logs.habit_id").
		Where("habits.user_id = ? AND habit_logs.completed = ?", userID, true).Count(&completed)
	rate := 0.0
	if logged > 0 {
		rate = float64(completed) / float64(logged) * 100
	}

	utils.Success(ctx, gin.H{
		"streaks":         streaks,
		"total":           len(streaks),
		"active_runs":     activeRuns,
		"max_longest":     maxLongest,
		"completion_rate": rate,
	})
}

// persistLog writes the mutated log row guarded by the completion state it
// was read in: the (habit_id,date) unique index stops a double create, and
// the completed guard stops two edits racing the same transition.
func persistLog(tx *gorm.DB, logRow *models.HabitLog, created, wasCompleted bool) error {
	if created {
		if err := tx.Create(logRow).Error; err != nil {
			return errProgressConflict
		}
		return nil
	}
	res := tx.Model(&models.HabitLog{}).
		Where("id = ? AND completed = ?", logRow.ID, wasCompleted).
		Updates(map[string]interface{}{
			"progress":       logRow.Progress,
			"completed":      logRow.Completed,
			"status":         logRow.Status,
			"points_awarded": logRow.PointsAwarded,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errProgressConflict
	}
	return nil
}

// persistStreak writes the streak counters as a conditional update keyed on
// the state they were read in, so two transactions advancing the same streak
// cannot silently overwrite each other; the loser aborts and retries.
func persistStreak(tx *gorm.DB, streak *models.Streak, prev models.Streak) error {
	q := tx.Model(&models.Streak{}).
		Where("id = ? AND current_streak = ? AND longest_streak = ?",
			streak.ID, prev.CurrentStreak, prev.LongestStreak)
	if prev.LastCompleted == nil {
		q = q.Where("last_completed IS NULL")
	} else {
		q = q.Where("last_completed = ?", *prev.LastCompleted)
	}
	res := q.Updates(map[string]interface{}{
		"current_streak": streak.CurrentStreak,
		"longest_streak": streak.LongestStreak,
		"last_completed": streak.LastCompleted,
		"start_date":     streak.StartDate,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errProgressConflict
	}
	return nil
}
