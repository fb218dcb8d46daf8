package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/healoop/healoop/models"
	"github.com/healoop/healoop/utils"
)

// FriendController manages friend requests and the symmetric friendships they
// turn into.
type FriendController struct {
	db *gorm.DB
}

// NewFriendController creates a new controller instance.
func NewFriendController(db *gorm.DB) *FriendController {
	return &FriendController{db: db}
}

// SendRequest creates a pending friend request addressed by username or email.
func (f *FriendController) SendRequest(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		Username string `json:"username" binding:"required,min=1"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40080, "invalid request payload")
		return
	}

	var target models.User
	if err := f.db.Where("username = ? OR email = ?", req.Username, req.Username).First(&target).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40480, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50080, "failed to look up user")
		return
	}

	request := models.FriendRequest{FromUserID: userID, ToUserID: target.ID}
	if err := request.Validate(); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40081, err.Error())
		return
	}

	// Already friends?
	var existing int64
	f.db.Model(&models.Friendship{}).
		Where("user_id = ? AND friend_id = ?", userID, target.ID).Count(&existing)
	if existing > 0 {
		utils.Error(ctx, http.StatusBadRequest, 40082, "you are already friends")
		return
	}

	err := f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&request).Error; err != nil {
			return err
		}
		var from models.User
		if err := tx.Select("username").First(&from, userID).Error; err != nil {
			return err
		}
		return notify(tx, target.ID, fmt.Sprintf("%s sent you a friend request.", from.Username))
	})
	if err != nil {
		// Unique index on (from, to) turns duplicates into a conflict.
		utils.Error(ctx, http.StatusConflict, 40980, "friend request already sent")
		return
	}

	utils.Success(ctx, gin.H{"request": request})
}

// ListRequests returns pending requests addressed to the caller and those the
// caller has sent.
func (f *FriendController) ListRequests(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var incoming []models.FriendRequest
	if err := f.db.Preload("FromUser").Where("to_user_id = ?", userID).
		Order("created_at DESC").Find(&incoming).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50081, "failed to list requests")
		return
	}

	var outgoing []models.FriendRequest
	if err := f.db.Where("from_user_id = ?", userID).
		Order("created_at DESC").Find(&outgoing).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50081, "failed to list requests")
		return
	}

	utils.Success(ctx, gin.H{"incoming": incoming, "outgoing": outgoing})
}

// AcceptRequest turns a pending request into both directions of a friendship
// and removes the request, all in one transaction.
func (f *FriendController) AcceptRequest(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	request, ok := f.addressedRequest(ctx, userID)
	if !ok {
		return
	}

	err := f.db.Transaction(func(tx *gorm.DB) error {
		forward := models.Friendship{UserID: request.FromUserID, FriendID: request.ToUserID}
		backward := models.Friendship{UserID: request.ToUserID, FriendID: request.FromUserID}
		if err := tx.Create(&forward).Error; err != nil {
			return err
		}
		if err := tx.Create(&backward).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.FriendRequest{}, request.ID).Error; err != nil {
			return err
		}
		var accepter models.User
		if err := tx.Select("username").First(&accepter, userID).Error; err != nil {
			return err
		}
		return notify(tx, request.FromUserID, fmt.Sprintf("%s accepted your friend request.", accepter.Username))
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50082, "failed to accept request")
		return
	}

	utils.Success(ctx, gin.H{"accepted": true})
}

// RejectRequest drops a pending request without creating a friendship.
func (f *FriendController) RejectRequest(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	request, ok := f.addressedRequest(ctx, userID)
	if !ok {
		return
	}

	if err := f.db.Delete(&models.FriendRequest{}, request.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50083, "failed to reject request")
		return
	}

	utils.Success(ctx, gin.H{"rejected": true})
}

// ListFriends returns the caller's friends with their points for the social
// leaderboard view.
func (f *FriendController) ListFriends(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var friendships []models.Friendship
	if err := f.db.Preload("Friend").Where("user_id = ?", userID).
		Order("created_at DESC").Find(&friendships).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50084, "failed to list friends")
		return
	}

	friends := make([]gin.H, 0, len(friendships))
	for _, fs := range friendships {
		friends = append(friends, gin.H{
			"id":         fs.Friend.ID,
			"username":   fs.Friend.Username,
			"nickname":   fs.Friend.Nickname,
			"avatar_url": fs.Friend.AvatarURL,
			"points":     fs.Friend.Points,
			"since":      fs.CreatedAt,
		})
	}

	utils.Success(ctx, gin.H{"friends": friends})
}

// Unfriend removes both directions of a friendship.
func (f *FriendController) Unfriend(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	friendID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || friendID < 1 {
		utils.Error(ctx, http.StatusBadRequest, 40083, "invalid friend id")
		return
	}

	err = f.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND friend_id = ?", userID, friendID).Delete(&models.Friendship{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("user_id = ? AND friend_id = ?", friendID, userID).Delete(&models.Friendship{}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40481, "friendship not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50085, "failed to unfriend")
		return
	}

	utils.Success(ctx, gin.H{"removed": true})
}

// addressedRequest loads the request in :id and checks it is addressed to the
// caller.
func (f *FriendController) addressedRequest(ctx *gin.Context, userID uint) (models.FriendRequest, bool) {
	var request models.FriendRequest
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id < 1 {
		utils.Error(ctx, http.StatusBadRequest, 40084, "invalid request id")
		return request, false
	}
	if err := f.db.First(&request, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40482, "friend request not found")
			return request, false
		}
		utils.Error(ctx, http.StatusInternalServerError, 50086, "failed to load request")
		return request, false
	}
	if request.ToUserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40380, "this request is not addressed to you")
		return request, false
	}
	return request, true
}
