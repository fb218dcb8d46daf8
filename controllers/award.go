package controllers

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/healoop/healoop/models"
)

var errInsufficientPoints = errors.New("insufficient points")

// adjustPoints applies a delta to a user's balance inside tx and returns the
// new balance. Debits are conditional updates so the balance can never go
// negative, even under concurrent spends.
func adjustPoints(tx *gorm.DB, userID uint, delta int) (int, error) {
	if delta == 0 {
		var user models.User
		if err := tx.Select("points").First(&user, userID).Error; err != nil {
			return 0, err
		}
		return user.Points, nil
	}

	q := tx.Model(&models.User{}).Where("id = ?", userID)
	if delta < 0 {
		q = q.Where("points >= ?", -delta)
	}
	res := q.Update("points", gorm.Expr("points + ?", delta))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		if delta < 0 {
			return 0, errInsufficientPoints
		}
		return 0, gorm.ErrRecordNotFound
	}

	var user models.User
	if err := tx.Select("points").First(&user, userID).Error; err != nil {
		return 0, err
	}
	return user.Points, nil
}

// sweepBadges awards every badge whose threshold the balance has reached and
// the user does not hold yet. Conflict-ignore inserts keep awards unique per
// (user, badge) even when two transactions sweep at once. Newly earned badges
// produce a notification each.
func sweepBadges(tx *gorm.DB, userID uint, balance int) error {
	var badges []models.Badge
	if err := tx.Where("points_required <= ?", balance).
		Where("id NOT IN (?)", tx.Model(&models.UserBadge{}).Select("badge_id").Where("user_id = ?", userID)).
		Find(&badges).Error; err != nil {
		return err
	}

	for _, b := range badges {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.UserBadge{UserID: userID, BadgeID: b.ID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			if err := notify(tx, userID, fmt.Sprintf("You earned the %q badge!", b.Name)); err != nil {
				return err
			}
		}
	}
	return nil
}

// notify inserts a notification row for the user.
func notify(tx *gorm.DB, userID uint, message string) error {
	return tx.Create(&models.Notification{UserID: userID, Message: message}).Error
}
