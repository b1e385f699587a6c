package model

import (
	"errors"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Task statuses.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
	StatusArchived   = "archived"
	StatusStuck      = "stuck"
	StatusTesting    = "testing"
)

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Task is the task row. Assignees and tags are Postgres text arrays,
// the checklist is an opaque JSONB document.
type Task struct {
	ID             string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Title          string         `gorm:"type:varchar(255);not null" json:"title"`
	Description    string         `gorm:"type:text" json:"description"`
	Status         string         `gorm:"type:varchar(32);not null;default:open;index" json:"status"`
	Priority       string         `gorm:"type:varchar(16);not null;default:medium;index" json:"priority"`
	Category       string         `gorm:"type:varchar(128)" json:"category"`
	DueDate        *time.Time     `json:"due_date,omitempty"`
	Assignees      pq.StringArray `gorm:"type:text[]" json:"assignees"`
	Tags           pq.StringArray `gorm:"type:text[]" json:"tags"`
	Checklist      datatypes.JSON `gorm:"type:jsonb" json:"checklist,omitempty"`
	CreatedBy      string         `gorm:"type:varchar(64);not null;index" json:"created_by"`
	ParentTaskID   *string        `gorm:"type:varchar(64);index" json:"parent_task_id,omitempty"`
	EstimatedHours *float64       `json:"estimated_hours,omitempty"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;index" json:"updated_at"`
}

// TableName sets the table name.
func (Task) TableName() string {
	return "tasks"
}

// ValidStatus reports whether s is a known task status.
func ValidStatus(s string) bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusDone, StatusArchived, StatusStuck, StatusTesting:
		return true
	}
	return false
}

// ValidPriority reports whether p is a known task priority.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Validate checks the task row before persisting it.
func (t *Task) Validate() error {
	if t.ID == "" {
		return errors.New("task ID is required")
	}
	if t.Title == "" {
		return errors.New("task title is required")
	}
	if t.CreatedBy == "" {
		return errors.New("task creator is required")
	}
	if !ValidStatus(t.Status) {
		return errors.New("invalid task status")
	}
	if !ValidPriority(t.Priority) {
		return errors.New("invalid task priority")
	}
	if t.EstimatedHours != nil && *t.EstimatedHours < 0 {
		return errors.New("estimated hours must be non-negative")
	}
	return nil
}
