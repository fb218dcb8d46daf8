package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/healoop/healoop/config"
	"github.com/healoop/healoop/models"
	"github.com/healoop/healoop/utils"
)

// ChallengeController manages shared challenges and per-user progress.
type ChallengeController struct {
	db *gorm.DB
}

var errNotJoined = errors.New("not joined")

// NewChallengeController creates a new controller instance.
func NewChallengeController(db *gorm.DB) *ChallengeController {
	return &ChallengeController{db: db}
}

// CreateChallenge creates a challenge; the creator joins it automatically.
func (c *ChallengeController) CreateChallenge(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		Name        string `json:"name" binding:"required,min=1"`
		Description string `json:"description"`
		StartDate   string `json:"start_date" binding:"required"`
		EndDate     string `json:"end_date" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40090, "invalid request payload")
		return
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40091, "start date must be YYYY-MM-DD")
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40091, "end date must be YYYY-MM-DD")
		return
	}

	challenge := models.Challenge{
		Name:        utils.Sanitize(strings.TrimSpace(req.Name)),
		Description: utils.Sanitize(req.Description),
		StartDate:   models.Day(start),
		EndDate:     models.Day(end),
		CreatedByID: userID,
	}
	if err := challenge.Validate(); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40092, err.Error())
		return
	}

	err = c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&challenge).Error; err != nil {
			return err
		}
		return tx.Create(&models.ChallengeProgress{ChallengeID: challenge.ID, UserID: userID}).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50090, "failed to create challenge")
		return
	}

	utils.Success(ctx, gin.H{"challenge": challenge})
}

// ListChallenges returns challenges filtered by window: active, upcoming or past.
func (c *ChallengeController) ListChallenges(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	today := models.Day(time.Now())

	query := c.db.Preload("CreatedBy").Order("start_date DESC")
	switch ctx.Query("window") {
	case "active":
		query = query.Where("start_date <= ? AND end_date >= ?", today, today)
	case "upcoming":
		query = query.Where("start_date > ?", today)
	case "past":
		query = query.Where("end_date < ?", today)
	}

	var challenges []models.Challenge
	var total int64
	if err := query.Model(&models.Challenge{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50091, "failed to list challenges")
		return
	}
	if err := query.Offset((page - 1) * pageSize).Limit(pageSize).Find(&challenges).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50091, "failed to list challenges")
		return
	}

	out := make([]gin.H, 0, len(challenges))
	for _, ch := range challenges {
		out = append(out, gin.H{
			"challenge": ch,
			"creator":   ch.CreatedBy.Username,
		})
	}

	utils.Success(ctx, gin.H{
		"challenges": out,
		"total":      total,
		"page":       page,
		"page_size":  pageSize,
	})
}

// GetChallenge returns one challenge with its participants ranked by progress.
func (c *ChallengeController) GetChallenge(ctx *gin.Context) {
	challenge, ok := c.loadChallenge(ctx)
	if !ok {
		return
	}

	var participants []models.ChallengeProgress
	if err := c.db.Preload("User").Where("challenge_id = ?", challenge.ID).
		Order("progress DESC").Find(&participants).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50092, "failed to load participants")
		return
	}

	board := make([]gin.H, 0, len(participants))
	for _, p := range participants {
		board = append(board, gin.H{
			"user_id":   p.UserID,
			"username":  p.User.Username,
			"progress":  p.Progress,
			"completed": p.Completed,
		})
	}

	utils.Success(ctx, gin.H{"challenge": challenge, "participants": board})
}

// JoinChallenge adds the caller as a participant with zero progress.
func (c *ChallengeController) JoinChallenge(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	challenge, ok := c.loadChallenge(ctx)
	if !ok {
		return
	}

	if models.Day(time.Now()).After(challenge.EndDate) {
		utils.Error(ctx, http.StatusBadRequest, 40093, "challenge has already ended")
		return
	}

	progress := models.ChallengeProgress{ChallengeID: challenge.ID, UserID: userID}
	if err := c.db.Create(&progress).Error; err != nil {
		// Unique (challenge, user) index rejects repeat joins.
		utils.Error(ctx, http.StatusConflict, 40990, "you already joined this challenge")
		return
	}

	utils.Success(ctx, gin.H{"progress": progress})
}

// UpdateProgress sets the caller's percentage through a challenge. Reaching
// 100 the first time pays the configured bonus and notifies the user; the
// BonusAwarded flag keeps the bonus single-shot even if progress later dips
// and climbs back.
func (c *ChallengeController) UpdateProgress(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	challenge, ok := c.loadChallenge(ctx)
	if !ok {
		return
	}

	var req struct {
		Progress *int `json:"progress" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40094, "invalid request payload")
		return
	}

	cfg := config.Get()
	var progress models.ChallengeProgress
	var balance int

	err := c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("challenge_id = ? AND user_id = ?", challenge.ID, userID).
			First(&progress).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errNotJoined
			}
			return err
		}

		if err := progress.ApplyProgress(*req.Progress); err != nil {
			return err
		}

		if progress.Completed && !progress.BonusAwarded {
			// Conditional flip keeps the bonus single-shot under concurrent
			// submits: only the transaction that wins the update pays out.
			res := tx.Model(&models.ChallengeProgress{}).
				Where("id = ? AND bonus_awarded = ?", progress.ID, false).
				Update("bonus_awarded", true)
			if res.Error != nil {
				return res.Error
			}
			progress.BonusAwarded = true
			if res.RowsAffected == 1 {
				newBalance, err := adjustPoints(tx, userID, cfg.ChallengeBonus)
				if err != nil {
					return err
				}
				balance = newBalance
				if err := sweepBadges(tx, userID, newBalance); err != nil {
					return err
				}
				if err := notify(tx, userID, fmt.Sprintf("You completed the challenge %q and earned %d bonus points!", challenge.Name, cfg.ChallengeBonus)); err != nil {
					return err
				}
			}
		}

		return tx.Save(&progress).Error
	})
	if err != nil {
		var verr *models.ValidationError
		switch {
		case errors.As(err, &verr):
			utils.Error(ctx, http.StatusBadRequest, 40095, verr.Error())
		case errors.Is(err, errNotJoined):
			utils.Error(ctx, http.StatusBadRequest, 40096, "join the challenge before reporting progress")
		default:
			utils.Error(ctx, http.StatusInternalServerError, 50093, "failed to update progress")
		}
		return
	}

	resp := gin.H{"progress": progress}
	if balance > 0 {
		resp["points"] = balance
	}
	utils.Success(ctx, resp)
}

// LeaveChallenge removes the caller's participation row.
func (c *ChallengeController) LeaveChallenge(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	challenge, ok := c.loadChallenge(ctx)
	if !ok {
		return
	}

	res := c.db.Where("challenge_id = ? AND user_id = ?", challenge.ID, userID).
		Delete(&models.ChallengeProgress{})
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50094, "failed to leave challenge")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40491, "you have not joined this challenge")
		return
	}

	utils.Success(ctx, gin.H{"left": true})
}

// UpdateChallenge edits a challenge's name, description or window; creator or
// admin only.
func (c *ChallengeController) UpdateChallenge(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	challenge, ok := c.loadChallenge(ctx)
	if !ok {
		return
	}
	if challenge.CreatedByID != userID && !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40390, "only the creator can edit a challenge")
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		StartDate   string `json:"start_date"`
		EndDate     string `json:"end_date"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40090, "invalid request payload")
		return
	}

	if req.Name != "" {
		challenge.Name = utils.Sanitize(strings.TrimSpace(req.Name))
	}
	if req.Description != "" {
		challenge.Description = utils.Sanitize(req.Description)
	}
	if req.StartDate != "" {
		d, err := parseDate(req.StartDate)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40091, "start date must be YYYY-MM-DD")
			return
		}
		challenge.StartDate = models.Day(d)
	}
	if req.EndDate != "" {
		d, err := parseDate(req.EndDate)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40091, "end date must be YYYY-MM-DD")
			return
		}
		challenge.EndDate = models.Day(d)
	}
	if err := challenge.Validate(); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40092, err.Error())
		return
	}

	if err := c.db.Save(&challenge).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50097, "failed to update challenge")
		return
	}

	utils.Success(ctx, gin.H{"challenge": challenge})
}

// DeleteChallenge removes a challenge; creator or admin only.
func (c *ChallengeController) DeleteChallenge(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	challenge, ok := c.loadChallenge(ctx)
	if !ok {
		return
	}
	if challenge.CreatedByID != userID && !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40390, "only the creator can delete a challenge")
		return
	}

	err := c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("challenge_id = ?", challenge.ID).Delete(&models.ChallengeProgress{}).Error; err != nil {
			return err
		}
		return tx.Delete(&challenge).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50095, "failed to delete challenge")
		return
	}

	utils.Success(ctx, gin.H{"deleted": true})
}

func (c *ChallengeController) loadChallenge(ctx *gin.Context) (models.Challenge, bool) {
	var challenge models.Challenge
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id < 1 {
		utils.Error(ctx, http.StatusBadRequest, 40097, "invalid challenge id")
		return challenge, false
	}
	if err := c.db.First(&challenge, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40490, "challenge not found")
			return challenge, false
		}
		utils.Error(ctx, http.StatusInternalServerError, 50096, "failed to load challenge")
		return challenge, false
	}
	return challenge, true
}
