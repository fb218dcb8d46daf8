package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/healoop/healoop/models"
)

// ActivityRecorder counts successful GET requests per day and route, used by the
// stats endpoints to show API activity.
func ActivityRecorder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != "GET" {
			return
		}
		status := c.Writer.Status()
		if status < 200 || status >= 400 {
			return
		}

		// Route template (e.g. /api/v1/habits/:id) so individual ids collapse
		// into one counter row.
		path := c.FullPath()
		if path == "" || path == "/health" || path == "/api/v1/stats/activity" {
			return
		}

		day := models.Day(time.Now())

		// Atomic upsert to avoid duplicate key errors under concurrency
		_ = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}, {Name: "path"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("count + 1"), "updated_at": time.Now()}),
		}).Create(&models.ActivityCount{Date: day, Path: path, Count: 1}).Error
	}
}
