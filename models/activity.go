package models

import "time"

// ActivityCount stores aggregated request counts per day and path, feeding
// the dashboard's daily-active figure.
type ActivityCount struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Date      time.Time `gorm:"index:idx_activity_date_path,unique;type:date;not null" json:"date"`
	Path      string    `gorm:"index:idx_activity_date_path,unique;size:255;not null" json:"path"`
	Count     int64     `gorm:"not null;default:0" json:"count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
