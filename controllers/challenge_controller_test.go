package controllers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/healoop/healoop/models"
)

func createTestChallenge(t *testing.T, db *gorm.DB, creatorID uint, mutate func(*models.Challenge)) models.Challenge {
	t.Helper()
	today := models.Day(time.Now())
	ch := models.Challenge{
		Name:        "10k steps",
		StartDate:   today.AddDate(0, 0, -7),
		EndDate:     today.AddDate(0, 0, 7),
		CreatedByID: creatorID,
	}
	if mutate != nil {
		mutate(&ch)
	}
	require.NoError(t, db.Create(&ch).Error)
	return ch
}

func reportProgress(t *testing.T, r *gin.Engine, token string, challengeID uint, progress int) (int, apiResponse) {
	t.Helper()
	return doJSON(t, r, http.MethodPost,
		fmt.Sprintf("/api/v1/challenges/%d/progress", challengeID), token,
		map[string]interface{}{"progress": progress})
}

func TestCreateChallengeAutoJoins(t *testing.T) {
	r, db := newTestRouter(t)
	user := createTestUser(t, db, "alice", 0)
	token := testToken(t, user)

	today := models.Day(time.Now())
	status, resp := doJSON(t, r, http.MethodPost, "/api/v1/challenges", token, map[string]interface{}{
		"name":       "Dry month",
		"start_date": today.Format("2006-01-02"),
		"end_date":   today.AddDate(0, 0, 30).Format("2006-01-02"),
	})
	require.Equal(t, http.StatusOK, status)

	var res struct {
		Challenge models.Challenge `json:"challenge"`
	}
	decodeData(t, resp, &res)
	require.Equal(t, user.ID, res.Challenge.CreatedByID)

	var rows int64
	require.NoError(t, db.Model(&models.ChallengeProgress{}).
		Where("challenge_id = ? AND user_id = ?", res.Challenge.ID, user.ID).Count(&rows).Error)
	require.EqualValues(t, 1, rows)
}

func TestCreateChallengeRejectsBadWindow(t *testing.T) {
	r, db := newTestRouter(t)
	user := createTestUser(t, db, "bob", 0)
	token := testToken(t, user)

	today := models.Day(time.Now())
	status, resp := doJSON(t, r, http.MethodPost, "/api/v1/challenges", token, map[string]interface{}{
		"name":       "Backwards",
		"start_date": today.Format("2006-01-02"),
		"end_date":   today.Format("2006-01-02"),
	})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, 40092, resp.Code)
}

func TestChallengeBonusNotPaidWhenFlagAlreadySet(t *testing.T) {
	r, db := newTestRouter(t)
	creator := createTestUser(t, db, "erin", 0)
	ch := createTestChallenge(t, db, creator.ID, nil)

	user := createTestUser(t, db, "frank", 0)
	token := testToken(t, user)

	// Membership whose bonus flag is already set, as a competing
	// transaction would have left it.
	require.NoError(t, db.Create(&models.ChallengeProgress{
		ChallengeID:  ch.ID,
		UserID:       user.ID,
		BonusAwarded: true,
	}).Error)

	status, _ := reportProgress(t, r, token, ch.ID, 100)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 0, userPoints(t, db, user.ID))

	var progress models.ChallengeProgress
	require.NoError(t, db.Where("challenge_id = ? AND user_id = ?", ch.ID, user.ID).
		First(&progress).Error)
	require.True(t, progress.Completed)
	require.True(t, progress.BonusAwarded)
}

func TestChallengeBonusPaidOnce(t *testing.T) {
	r, db := newTestRouter(t)
	creator := createTestUser(t, db, "carol", 0)
	ch := createTestChallenge(t, db, creator.ID, nil)

	user := createTestUser(t, db, "dave", 0)
	token := testToken(t, user)

	status, _ := doJSON(t, r, http.MethodPost,
		fmt.Sprintf("/api/v1/challenges/%d/join", ch.ID), token, nil)
	require.Equal(t, http.StatusOK, status)

	status, resp := reportProgress(t, r, token, ch.ID, 100)
	require.Equal(t, http.StatusOK, status)
	var res struct {
		Progress models.ChallengeProgress `json:"progress"`
		Points   int                      `json:"points"`
	}
	decodeData(t, resp, &res)
	require.True(t, res.Progress.Completed)
	require.Equal(t, 50, res.Points)
	require.Equal(t, 50, userPoints(t, db, user.ID))

	// Dip and climb back: no second payout.
	status, _ = reportProgress(t, r, token, ch.ID, 80)
	require.Equal(t, http.StatusOK, status)
	status, _ = reportProgress(t, r, token, ch.ID, 100)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 50, userPoints(t, db, user.ID))
}

func TestUpdateProgressRequiresJoin(t *testing.T) {
	r, db := newTestRouter(t)
	creator := createTestUser(t, db, "erin", 0)
	ch := createTestChallenge(t, db, creator.ID, nil)
	outsider := createTestUser(t, db, "frank", 0)

	status, resp := reportProgress(t, r, testToken(t, outsider), ch.ID, 50)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, 40096, resp.Code)
}

func TestUpdateProgressOutOfRange(t *testing.T) {
	r, db := newTestRouter(t)
	creator := createTestUser(t, db, "grace", 0)
	ch := createTestChallenge(t, db, creator.ID, nil)
	require.NoError(t, db.Create(&models.ChallengeProgress{ChallengeID: ch.ID, UserID: creator.ID}).Error)
	token := testToken(t, creator)

	status, resp := reportProgress(t, r, token, ch.ID, 101)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, 40095, resp.Code)
}

func TestJoinEndedChallengeRejected(t *testing.T) {
	r, db := newTestRouter(t)
	creator := createTestUser(t, db, "heidi", 0)
	today := models.Day(time.Now())
	ch := createTestChallenge(t, db, creator.ID, func(c *models.Challenge) {
		c.StartDate = today.AddDate(0, 0, -20)
		c.EndDate = today.AddDate(0, 0, -10)
	})

	user := createTestUser(t, db, "ivan", 0)
	status, resp := doJSON(t, r, http.MethodPost,
		fmt.Sprintf("/api/v1/challenges/%d/join", ch.ID), testToken(t, user), nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, 40093, resp.Code)
}

func TestJoinTwiceConflicts(t *testing.T) {
	r, db := newTestRouter(t)
	creator := createTestUser(t, db, "judy", 0)
	ch := createTestChallenge(t, db, creator.ID, nil)
	user := createTestUser(t, db, "ken", 0)
	token := testToken(t, user)

	path := fmt.Sprintf("/api/v1/challenges/%d/join", ch.ID)
	status, _ := doJSON(t, r, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusOK, status)

	status, resp := doJSON(t, r, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, 40990, resp.Code)
}

func TestUpdateChallengeCreatorOnly(t *testing.T) {
	r, db := newTestRouter(t)
	creator := createTestUser(t, db, "mike", 0)
	other := createTestUser(t, db, "nina", 0)
	ch := createTestChallenge(t, db, creator.ID, nil)

	path := fmt.Sprintf("/api/v1/challenges/%d", ch.ID)
	status, resp := doJSON(t, r, http.MethodPut, path, testToken(t, other),
		map[string]interface{}{"name": "Hijacked"})
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, 40390, resp.Code)

	status, resp = doJSON(t, r, http.MethodPut, path, testToken(t, creator),
		map[string]interface{}{"name": "20k steps"})
	require.Equal(t, http.StatusOK, status)
	var res struct {
		Challenge models.Challenge `json:"challenge"`
	}
	decodeData(t, resp, &res)
	require.Equal(t, "20k steps", res.Challenge.Name)
}

func TestChallengeWindowFilter(t *testing.T) {
	r, db := newTestRouter(t)
	creator := createTestUser(t, db, "laura", 0)
	today := models.Day(time.Now())
	createTestChallenge(t, db, creator.ID, nil) // active
	createTestChallenge(t, db, creator.ID, func(c *models.Challenge) {
		c.Name = "Next month"
		c.StartDate = today.AddDate(0, 0, 10)
		c.EndDate = today.AddDate(0, 0, 40)
	})

	status, resp := doJSON(t, r, http.MethodGet, "/api/v1/challenges?window=upcoming", testToken(t, creator), nil)
	require.Equal(t, http.StatusOK, status)

	var res struct {
		Total int64 `json:"total"`
	}
	decodeData(t, resp, &res)
	require.EqualValues(t, 1, res.Total)
}
