package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/healoop/healoop/models"
	"github.com/healoop/healoop/utils"
)

// ReminderController manages per-habit reminder times.
type ReminderController struct {
	db *gorm.DB
}

// NewReminderController creates a new controller instance.
func NewReminderController(db *gorm.DB) *ReminderController {
	return &ReminderController{db: db}
}

// CreateReminder adds a reminder time to a habit the caller owns.
func (r *ReminderController) CreateReminder(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	hc := &HabitController{db: r.db}
	habit, ok := hc.ownedHabit(ctx, userID)
	if !ok {
		return
	}

	var req struct {
		TimeOfDay string `json:"time_of_day" binding:"required"`
		Message   string `json:"message"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40043, "invalid request payload")
		return
	}

	reminder := models.Reminder{
		HabitID:   habit.ID,
		TimeOfDay: strings.TrimSpace(req.TimeOfDay),
		Message:   utils.Sanitize(req.Message),
		IsEnabled: true,
	}
	if err := reminder.Validate(); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40044, err.Error())
		return
	}

	if err := r.db.Create(&reminder).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50046, "failed to create reminder")
		return
	}

	utils.Success(ctx, gin.H{"reminder": reminder})
}

// ListReminders returns a habit's reminders ordered by clock time.
func (r *ReminderController) ListReminders(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	hc := &HabitController{db: r.db}
	habit, ok := hc.ownedHabit(ctx, userID)
	if !ok {
		return
	}

	var reminders []models.Reminder
	if err := r.db.Where("habit_id = ?", habit.ID).
		Order("time_of_day ASC").Find(&reminders).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50047, "failed to list reminders")
		return
	}

	utils.Success(ctx, gin.H{"reminders": reminders})
}

// DeleteReminder removes one reminder from a habit the caller owns.
func (r *ReminderController) DeleteReminder(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	hc := &HabitController{db: r.db}
	habit, ok := hc.ownedHabit(ctx, userID)
	if !ok {
		return
	}

	rid, err := strconv.Atoi(ctx.Param("rid"))
	if err != nil || rid < 1 {
		utils.Error(ctx, http.StatusBadRequest, 40045, "invalid reminder id")
		return
	}

	res := r.db.Where("id = ? AND habit_id = ?", rid, habit.ID).Delete(&models.Reminder{})
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50048, "failed to delete reminder")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40443, "reminder not found")
		return
	}

	utils.Success(ctx, gin.H{"deleted": true})
}
