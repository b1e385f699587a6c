package model

import (
	"errors"
	"time"
)

// TimeLog records hours a user actually spent on a task. One row per
// (task, user) pair; re-logging replaces the previous value.
type TimeLog struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	TaskID      string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_time_logs_task_user" json:"task_id"`
	UserID      string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_time_logs_task_user" json:"user_id"`
	ActualHours float64   `gorm:"not null" json:"actual_hours"`
	LoggedAt    time.Time `gorm:"not null" json:"logged_at"`
}

// TableName sets the table name.
func (TimeLog) TableName() string {
	return "task_time_logs"
}

// Validate checks the time log row before persisting it.
func (l *TimeLog) Validate() error {
	if l.TaskID == "" {
		return errors.New("time log task ID is required")
	}
	if l.UserID == "" {
		return errors.New("time log user ID is required")
	}
	if l.ActualHours <= 0 {
		return errors.New("actual hours must be positive")
	}
	return nil
}
