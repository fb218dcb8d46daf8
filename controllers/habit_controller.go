package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/healoop/healoop/models"
	"github.com/healoop/healoop/utils"
)

// HabitController manages habit CRUD and lifecycle operations.
type HabitController struct {
	db *gorm.DB
}

// NewHabitController creates a new HabitController instance.
func NewHabitController(db *gorm.DB) *HabitController {
	return &HabitController{db: db}
}

type habitRequest struct {
	Name         string   `json:"name" binding:"required,min=1"`
	CategoryID   *uint    `json:"category_id"`
	Description  string   `json:"description"`
	Cadence      string   `json:"cadence"`
	CustomDays   []string `json:"custom_days"`
	TimeOfDay    string   `json:"time_of_day"`
	TargetPerDay int      `json:"target_per_day"`
	UnitID       *uint    `json:"unit_id"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
}

func (r *habitRequest) apply(h *models.Habit) error {
	h.Name = utils.Sanitize(strings.TrimSpace(r.Name))
	h.CategoryID = r.CategoryID
	h.Description = utils.Sanitize(r.Description)
	if r.Cadence != "" {
		h.Cadence = models.Cadence(r.Cadence)
	}
	if h.Cadence == "" {
		h.Cadence = models.CadenceDaily
	}
	h.CustomDays = models.WeekdaySet(r.CustomDays)
	if r.TimeOfDay != "" {
		h.TimeOfDay = r.TimeOfDay
	}
	if h.TimeOfDay == "" {
		h.TimeOfDay = models.TimeAnytime
	}
	if r.TargetPerDay != 0 {
		h.TargetPerDay = r.TargetPerDay
	}
	if h.TargetPerDay == 0 {
		h.TargetPerDay = 1
	}
	h.UnitID = r.UnitID
	if r.StartDate != "" {
		d, err := parseDate(r.StartDate)
		if err != nil {
			return &models.ValidationError{Field: "start_date", Message: "start date must be YYYY-MM-DD"}
		}
		h.StartDate = d
	}
	if h.StartDate.IsZero() {
		h.StartDate = models.Day(time.Now())
	}
	if r.EndDate != "" {
		d, err := parseDate(r.EndDate)
		if err != nil {
			return &models.ValidationError{Field: "end_date", Message: "end date must be YYYY-MM-DD"}
		}
		h.EndDate = &d
	}
	return h.Validate()
}

// CreateHabit creates a habit together with its zeroed streak row.
func (h *HabitController) CreateHabit(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req habitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid request payload")
		return
	}

	habit := models.Habit{UserID: userID, IsActive: true, Status: models.HabitProgressing}
	if err := req.apply(&habit); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40041, err.Error())
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&habit).Error; err != nil {
			return err
		}
		streak := models.Streak{UserID: userID, HabitID: habit.ID, IsActive: true, StartDate: models.Day(habit.StartDate)}
		return tx.Create(&streak).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to create habit")
		return
	}

	utils.InvalidateByPrefix("cache:user:" + strconv.Itoa(int(userID)) + ":habits:")
	utils.Success(ctx, gin.H{"habit": habit})
}

// ListHabits returns the caller's habits with optional filters.
func (h *HabitController) ListHabits(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	query := h.db.Preload("Category").Preload("Unit").
		Where("user_id = ?", userID).Order("created_at DESC")

	if v := strings.TrimSpace(ctx.Query("is_active")); v != "" {
		query = query.Where("is_active = ?", v == "true")
	}
	if v := strings.TrimSpace(ctx.Query("cadence")); v != "" {
		query = query.Where("cadence = ?", v)
	}
	if v := strings.TrimSpace(ctx.Query("status")); v != "" {
		query = query.Where("status = ?", v)
	}
	if v := strings.TrimSpace(ctx.Query("category_id")); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			query = query.Where("category_id = ?", id)
		}
	}
	if v := strings.TrimSpace(ctx.Query("time_of_day")); v != "" {
		query = query.Where("time_of_day = ?", v)
	}
	if v := strings.TrimSpace(ctx.Query("search")); v != "" {
		query = query.Where("name LIKE ?", "%"+v+"%")
	}

	var habits []models.Habit
	var total int64
	if err := query.Model(&models.Habit{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to list habits")
		return
	}
	if err := query.Offset((page - 1) * pageSize).Limit(pageSize).Find(&habits).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to list habits")
		return
	}

	utils.Success(ctx, gin.H{
		"habits":    habits,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetHabit returns one habit with its streak and today's log.
func (h *HabitController) GetHabit(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	habit, ok := h.ownedHabit(ctx, userID)
	if !ok {
		return
	}

	today := models.Day(time.Now())

	var streak models.Streak
	if err := h.db.Where("user_id = ? AND habit_id = ?", userID, habit.ID).First(&streak).Error; err == nil {
		if streak.Reconcile(&habit, today) {
			if err := h.db.Save(&streak).Error; err != nil && utils.Sugar != nil {
				utils.Sugar.Warnf("streak reconcile save failed id=%d err=%v", streak.ID, err)
			}
		}
	}

	var todayLog *models.HabitLog
	var log models.HabitLog
	if err := h.db.Where("habit_id = ? AND date = ?", habit.ID, today).First(&log).Error; err == nil {
		todayLog = &log
	}

	resp := gin.H{"habit": habit, "streak": streak}
	if todayLog != nil {
		resp["today_log"] = todayLog
		resp["completion"] = models.CompletionValue(todayLog.Progress, habit.TargetPerDay)
	}
	utils.Success(ctx, resp)
}

// UpdateHabit edits an existing habit after ownership checks.
func (h *HabitController) UpdateHabit(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	habit, ok := h.ownedHabit(ctx, userID)
	if !ok {
		return
	}

	var req habitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid request payload")
		return
	}
	if err := req.apply(&habit); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40041, err.Error())
		return
	}

	if err := h.db.Save(&habit).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to update habit")
		return
	}

	utils.InvalidateByPrefix("cache:user:" + strconv.Itoa(int(userID)) + ":habits:")
	utils.Success(ctx, gin.H{"habit": habit})
}

// DeleteHabit removes a habit; logs, streaks and reminders go with it.
func (h *HabitController) DeleteHabit(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	habit, ok := h.ownedHabit(ctx, userID)
	if !ok {
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("habit_id = ?", habit.ID).Delete(&models.HabitLog{}).Error; err != nil {
			return err
		}
		if err := tx.Where("habit_id = ?", habit.ID).Delete(&models.Streak{}).Error; err != nil {
			return err
		}
		if err := tx.Where("habit_id = ?", habit.ID).Delete(&models.Reminder{}).Error; err != nil {
			return err
		}
		return tx.Delete(&habit).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to delete habit")
		return
	}

	utils.InvalidateByPrefix("cache:user:" + strconv.Itoa(int(userID)) + ":habits:")
	utils.Success(ctx, gin.H{"deleted": true})
}

// ActivateHabit resumes a paused habit and unfreezes its streak.
func (h *HabitController) ActivateHabit(ctx *gin.Context) {
	h.setActive(ctx, true)
}

// DeactivateHabit pauses a habit; the streak freezes instead of resetting.
func (h *HabitController) DeactivateHabit(ctx *gin.Context) {
	h.setActive(ctx, false)
}

func (h *HabitController) setActive(ctx *gin.Context, active bool) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	habit, ok := h.ownedHabit(ctx, userID)
	if !ok {
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		habit.IsActive = active
		if err := tx.Save(&habit).Error; err != nil {
			return err
		}
		var streak models.Streak
		if err := tx.Where("user_id = ? AND habit_id = ?", userID, habit.ID).First(&streak).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return err
		}
		if active {
			streak.Unfreeze()
		} else {
			streak.Freeze()
		}
		return tx.Save(&streak).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50044, "failed to change habit state")
		return
	}

	utils.InvalidateByPrefix("cache:user:" + strconv.Itoa(int(userID)) + ":habits:")
	utils.Success(ctx, gin.H{"habit": habit})
}

// ownedHabit loads the habit in the :id param and enforces ownership.
// It writes the error response itself when the lookup fails.
func (h *HabitController) ownedHabit(ctx *gin.Context, userID uint) (models.Habit, bool) {
	var habit models.Habit
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id < 1 {
		utils.Error(ctx, http.StatusBadRequest, 40042, "invalid habit id")
		return habit, false
	}
	if err := h.db.Preload("Category").Preload("Unit").First(&habit, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40440, "habit not found")
			return habit, false
		}
		utils.Error(ctx, http.StatusInternalServerError, 50045, "failed to load habit")
		return habit, false
	}
	if habit.UserID != userID && !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40340, "you do not own this habit")
		return habit, false
	}
	return habit, true
}
