package utils

import (
	"log"
	"os"
	"time"

	"github.com/healoop/healoop/config"
	"github.com/healoop/healoop/models"
)

// StartNotificationPruner launches a background goroutine that periodically
// deletes read notifications older than retention. Best-effort; logs failures.
func StartNotificationPruner(interval, retention time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	if retention <= 0 {
		retention = 90 * 24 * time.Hour
	}
	go func() {
		for {
			// Sleep first to avoid racing immediately at startup
			time.Sleep(interval)
			db := config.DB()
			if db == nil {
				continue
			}
			cutoff := time.Now().Add(-retention)
			res := db.Where("is_read = ? AND created_at < ?", true, cutoff).Delete(&models.Notification{})
			if res.Error != nil {
				log.Printf("notification pruner failed: %v", res.Error)
			} else if res.RowsAffected > 0 {
				log.Printf("notification pruner removed %d rows", res.RowsAffected)
			}
		}
	}()
}

// StartUploadCleaner launches a background goroutine that periodically deletes
// expired uploaded files recorded in the database.
func StartUploadCleaner(interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		for {
			time.Sleep(interval)
			db := config.DB()
			if db == nil {
				continue
			}
			var items []models.UploadedFile
			if err := db.Where("expire_at IS NOT NULL AND expire_at <= ?", time.Now()).Limit(100).Find(&items).Error; err != nil {
				log.Printf("upload cleaner query failed: %v", err)
				continue
			}
			for _, it := range items {
				if it.FilePath != "" {
					_ = os.Remove(it.FilePath)
				}
				// Remove row regardless of file deletion outcome
				if err := db.Delete(&models.UploadedFile{}, it.ID).Error; err != nil {
					log.Printf("upload cleaner delete row failed: %v", err)
				}
			}
		}
	}()
}
