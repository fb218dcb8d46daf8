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

	"github.com/healoop/healoop/models"
	"github.com/healoop/healoop/utils"
)

// RewardController manages user-defined rewards and their point-funded claims.
type RewardController struct {
	db *gorm.DB
}

var errAlreadyClaimed = errors.New("reward already claimed")

// NewRewardController creates a new controller instance.
func NewRewardController(db *gorm.DB) *RewardController {
	return &RewardController{db: db}
}

// CreateReward defines a reward the caller can later claim with points.
func (r *RewardController) CreateReward(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		Title          string `json:"title" binding:"required,min=1"`
		Description    string `json:"description"`
		PointsRequired int    `json:"points_required" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40070, "invalid request payload")
		return
	}

	reward := models.Reward{
		UserID:         userID,
		Title:          utils.Sanitize(strings.TrimSpace(req.Title)),
		Description:    utils.Sanitize(req.Description),
		PointsRequired: req.PointsRequired,
	}
	if err := reward.Validate(); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40071, err.Error())
		return
	}

	if err := r.db.Create(&reward).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50070, "failed to create reward")
		return
	}

	utils.Success(ctx, gin.H{"reward": reward})
}

// ListRewards returns the caller's rewards, unclaimed first.
func (r *RewardController) ListRewards(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var rewards []models.Reward
	if err := r.db.Where("user_id = ?", userID).
		Order("is_claimed ASC, points_required ASC").Find(&rewards).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50071, "failed to list rewards")
		return
	}

	utils.Success(ctx, gin.H{"rewards": rewards})
}

// ClaimReward spends points on a reward. The debit is a conditional update so
// a claim can never push the balance negative, and the claimed flag flips with
// the same guard so double claims lose the race cleanly.
func (r *RewardController) ClaimReward(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	reward, ok := r.ownedReward(ctx, userID)
	if !ok {
		return
	}

	var balance int
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Reward{}).
			Where("id = ? AND is_claimed = ?", reward.ID, false).
			Updates(map[string]interface{}{"is_claimed": true, "claimed_at": time.Now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errAlreadyClaimed
		}

		newBalance, err := adjustPoints(tx, userID, -reward.PointsRequired)
		if err != nil {
			return err
		}
		balance = newBalance

		return notify(tx, userID, fmt.Sprintf("You claimed the reward %q for %d points.", reward.Title, reward.PointsRequired))
	})
	if err != nil {
		switch {
		case errors.Is(err, errAlreadyClaimed):
			utils.Error(ctx, http.StatusBadRequest, 40072, "reward already claimed")
		case errors.Is(err, errInsufficientPoints):
			utils.Error(ctx, http.StatusBadRequest, 40073, "not enough points to claim this reward")
		default:
			utils.Error(ctx, http.StatusInternalServerError, 50072, "failed to claim reward")
		}
		return
	}

	reward.IsClaimed = true
	utils.Success(ctx, gin.H{"reward": reward, "points": balance})
}

// UpdateReward edits an unclaimed reward.
func (r *RewardController) UpdateReward(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	reward, ok := r.ownedReward(ctx, userID)
	if !ok {
		return
	}
	if reward.IsClaimed {
		utils.Error(ctx, http.StatusBadRequest, 40074, "claimed rewards cannot be edited")
		return
	}

	var req struct {
		Title          string `json:"title"`
		Description    string `json:"description"`
		PointsRequired int    `json:"points_required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40070, "invalid request payload")
		return
	}

	if req.Title != "" {
		reward.Title = utils.Sanitize(strings.TrimSpace(req.Title))
	}
	if req.Description != "" {
		reward.Description = utils.Sanitize(req.Description)
	}
	if req.PointsRequired != 0 {
		reward.PointsRequired = req.PointsRequired
	}
	if err := reward.Validate(); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40071, err.Error())
		return
	}

	if err := r.db.Save(&reward).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50073, "failed to update reward")
		return
	}

	utils.Success(ctx, gin.H{"reward": reward})
}

// DeleteReward removes a reward. Claimed rewards stay deletable; the spent
// points are not refunded.
func (r *RewardController) DeleteReward(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	reward, ok := r.ownedReward(ctx, userID)
	if !ok {
		return
	}

	if err := r.db.Delete(&reward).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50074, "failed to delete reward")
		return
	}

	utils.Success(ctx, gin.H{"deleted": true})
}

func (r *RewardController) ownedReward(ctx *gin.Context, userID uint) (models.Reward, bool) {
	var reward models.Reward
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id < 1 {
		utils.Error(ctx, http.StatusBadRequest, 40075, "invalid reward id")
		return reward, false
	}
	if err := r.db.First(&reward, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40470, "reward not found")
			return reward, false
		}
		utils.Error(ctx, http.StatusInternalServerError, 50075, "failed to load reward")
		return reward, false
	}
	if reward.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40370, "you do not own this reward")
		return reward, false
	}
	return reward, true
}
