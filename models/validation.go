package models

import (
	"fmt"
	"time"
)

// ValidationError is a user-correctable input error attached to one field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Day truncates a time to its calendar date in UTC. All date columns go
// through this so (habit, date) comparisons stay exact across drivers.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
