package repository

import (
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HoursReportRow aggregates logged hours for one user.
type HoursReportRow struct {
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name"`
	Email       string  `json:"email"`
	TotalHours  float64 `json:"total_hours"`
	TaskCount   int64   `json:"task_count"`
}

// TimeLogRepository owns time-log persistence.
type TimeLogRepository interface {
	// Upsert writes the (task, user) row, replacing any previous value.
	// Re-logging is last-write-wins, not additive.
	Upsert(log *model.TimeLog) error
	FindByTask(taskID string) ([]*model.TimeLog, error)
	CountByTask(taskID string) (int64, error)
	// HoursReport sums logged hours per user over the given user set.
	HoursReport(userIDs []string) ([]*HoursReportRow, error)
	// Provisioned reports whether the time-log table exists in this
	// deployment; when it does not, the done-transition gate is skipped.
	Provisioned() bool
}

type timeLogRepository struct {
	db *gorm.DB
}

// NewTimeLogRepository creates a time log repository.
func NewTimeLogRepository(db *gorm.DB) TimeLogRepository {
	return &timeLogRepository{db: db}
}

func (r *timeLogRepository) Upsert(log *model.TimeLog) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "task_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"actual_hours", "logged_at"}),
	}).Create(log).Error
}

func (r *timeLogRepository) FindByTask(taskID string) ([]*model.TimeLog, error) {
	var logs []*model.TimeLog
	err := r.db.Where("task_id = ?", taskID).Order("logged_at DESC").Find(&logs).Error
	return logs, err
}

func (r *timeLogRepository) CountByTask(taskID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.TimeLog{}).Where("task_id = ?", taskID).Count(&count).Error
	return count, err
}

func (r *timeLogRepository) HoursReport(userIDs []string) ([]*HoursReportRow, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var rows []*HoursReportRow
	err := r.db.Raw(`
		SELECT l.user_id,
		       COALESCE(u.display_name, '') AS display_name,
		       COALESCE(u.email, '') AS email,
		       SUM(l.actual_hours) AS total_hours,
		       COUNT(l.task_id) AS task_count
		FROM task_time_logs l
		LEFT JOIN users u ON u.id = l.user_id
		WHERE l.user_id IN ?
		GROUP BY l.user_id, u.display_name, u.email
		ORDER BY total_hours DESC
	`, userIDs).Scan(&rows).Error
	return rows, err
}

func (r *timeLogRepository) Provisioned() bool {
	return r.db.Migrator().HasTable(&model.TimeLog{})
}
