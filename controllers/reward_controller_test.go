package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/healoop/healoop/models"
)

func createTestReward(t *testing.T, db *gorm.DB, userID uint, cost int) models.Reward {
	t.Helper()
	reward := models.Reward{UserID: userID, Title: "Movie night", PointsRequired: cost}
	require.NoError(t, db.Create(&reward).Error)
	return reward
}

func TestClaimRewardDebitsPoints(t *testing.T) {
	r, db := newTestRouter(t)
	user := createTestUser(t, db, "alice", 100)
	token := testToken(t, user)
	reward := createTestReward(t, db, user.ID, 60)

	status, resp := doJSON(t, r, http.MethodPost,
		fmt.Sprintf("/api/v1/rewards/%d/claim", reward.ID), token, nil)
	require.Equal(t, http.StatusOK, status)

	var res struct {
		Reward models.Reward `json:"reward"`
		Points int           `json:"points"`
	}
	decodeData(t, resp, &res)
	require.True(t, res.Reward.IsClaimed)
	require.Equal(t, 40, res.Points)
	require.Equal(t, 40, userPoints(t, db, user.ID))

	var n int64
	require.NoError(t, db.Model(&models.Notification{}).Where("user_id = ?", user.ID).Count(&n).Error)
	require.EqualValues(t, 1, n)
}

func TestClaimRewardInsufficientPoints(t *testing.T) {
	r, db := newTestRouter(t)
	user := createTestUser(t, db, "bob", 30)
	token := testToken(t, user)
	reward := createTestReward(t, db, user.ID, 60)

	status, resp := doJSON(t, r, http.MethodPost,
		fmt.Sprintf("/api/v1/rewards/%d/claim", reward.ID), token, nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, 40073, resp.Code)

	// The failed claim must roll back the claimed flag and leave points alone.
	var got models.Reward
	require.NoError(t, db.First(&got, reward.ID).Error)
	require.False(t, got.IsClaimed)
	require.Equal(t, 30, userPoints(t, db, user.ID))
}

func TestClaimRewardTwice(t *testing.T) {
	r, db := newTestRouter(t)
	user := createTestUser(t, db, "carol", 200)
	token := testToken(t, user)
	reward := createTestReward(t, db, user.ID, 50)

	path := fmt.Sprintf("/api/v1/rewards/%d/claim", reward.ID)
	status, _ := doJSON(t, r, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusOK, status)

	status, resp := doJSON(t, r, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, 40072, resp.Code)
	require.Equal(t, 150, userPoints(t, db, user.ID))
}

func TestClaimRewardOwnership(t *testing.T) {
	r, db := newTestRouter(t)
	owner := createTestUser(t, db, "dave", 100)
	other := createTestUser(t, db, "erin", 100)
	reward := createTestReward(t, db, owner.ID, 10)

	status, resp := doJSON(t, r, http.MethodPost,
		fmt.Sprintf("/api/v1/rewards/%d/claim", reward.ID), testToken(t, other), nil)
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, 40370, resp.Code)
	require.Equal(t, 100, userPoints(t, db, owner.ID))
}

func TestCreateRewardValidation(t *testing.T) {
	r, db := newTestRouter(t)
	user := createTestUser(t, db, "frank", 0)
	token := testToken(t, user)

	status, resp := doJSON(t, r, http.MethodPost, "/api/v1/rewards", token,
		map[string]interface{}{"title": "Spa day", "points_required": -5})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, 40071, resp.Code)

	status, resp = doJSON(t, r, http.MethodPost, "/api/v1/rewards", token,
		map[string]interface{}{"title": "Spa day", "points_required": 120})
	require.Equal(t, http.StatusOK, status)

	var res struct {
		Reward models.Reward `json:"reward"`
	}
	decodeData(t, resp, &res)
	require.Equal(t, user.ID, res.Reward.UserID)
	require.Equal(t, 120, res.Reward.PointsRequired)
}

func TestUpdateClaimedRewardRejected(t *testing.T) {
	r, db := newTestRouter(t)
	user := createTestUser(t, db, "grace", 100)
	token := testToken(t, user)
	reward := createTestReward(t, db, user.ID, 20)

	status, _ := doJSON(t, r, http.MethodPost,
		fmt.Sprintf("/api/v1/rewards/%d/claim", reward.ID), token, nil)
	require.Equal(t, http.StatusOK, status)

	status, resp := doJSON(t, r, http.MethodPut,
		fmt.Sprintf("/api/v1/rewards/%d", reward.ID), token,
		map[string]interface{}{"title": "Bigger spa day"})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, 40074, resp.Code)
}
