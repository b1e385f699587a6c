package repository

import (
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/model"
	"gorm.io/gorm"
)

// MaxTreeDepth bounds recursive subtask-tree traversal.
const MaxTreeDepth = 10

// TaskFilter narrows a task list query. Nil fields are not applied.
type TaskFilter struct {
	Status   *string
	Priority *string
	Category *string
	// Assignee filters by set containment on the assignees array.
	Assignee *string
	// Search is a case-insensitive substring match over title/description.
	Search *string
	Limit  int
	Offset int
}

// TaskRow is a task enriched with list-view aggregates.
type TaskRow struct {
	model.Task
	CreatorName      string  `json:"creator_name"`
	CreatorEmail     string  `json:"creator_email"`
	CreatorAvatar    string  `json:"creator_avatar"`
	SubtaskCount     int64   `json:"subtask_count"`
	TotalActualHours float64 `json:"total_actual_hours"`
}

// TreeNode is one node of a subtask tree in traversal order.
type TreeNode struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Status       string  `json:"status"`
	Priority     string  `json:"priority"`
	ParentTaskID *string `json:"parent_task_id,omitempty"`
	Level        int     `json:"level"`
	Path         string  `json:"path"`
}

// TaskRepository owns task persistence.
type TaskRepository interface {
	Create(task *model.Task) error
	FindByID(id string) (*model.Task, error)
	// UpdateColumns applies a partial update; only the supplied columns
	// change. Returns gorm.ErrRecordNotFound when the task is absent.
	UpdateColumns(id string, updates map[string]interface{}) error
	Delete(id string) error
	List(filter *TaskFilter, withHours bool) ([]*TaskRow, error)
	FindChildren(parentID string) ([]*model.Task, error)
	// Tree walks parent_task_id links down from rootID, depth-bounded.
	Tree(rootID string, maxDepth int) ([]*TreeNode, error)
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a task repository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(task *model.Task) error {
	return r.db.Create(task).Error
}

func (r *taskRepository) FindByID(id string) (*model.Task, error) {
	var task model.Task
	if err := r.db.Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) UpdateColumns(id string, updates map[string]interface{}) error {
	result := r.db.Model(&model.Task{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *taskRepository) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&model.Task{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List applies the filter and enriches each row with creator display info,
// a subtask count and, when the time-log table is provisioned, summed
// actual hours. Ordering: priority high before medium before low, then
// status, then newest first.
func (r *taskRepository) List(filter *TaskFilter, withHours bool) ([]*TaskRow, error) {
	hoursSelect := "0 AS total_actual_hours"
	if withHours {
		hoursSelect = "COALESCE((SELECT SUM(l.actual_hours) FROM task_time_logs l WHERE l.task_id = tasks.id), 0) AS total_actual_hours"
	}

	query := r.db.Model(&model.Task{}).
		Select(`tasks.*,
			COALESCE(u.display_name, '') AS creator_name,
			COALESCE(u.email, '') AS creator_email,
			COALESCE(u.avatar_url, '') AS creator_avatar,
			(SELECT COUNT(*) FROM tasks c WHERE c.parent_task_id = tasks.id) AS subtask_count, ` +
			hoursSelect).
		Joins("LEFT JOIN users u ON u.id = tasks.created_by")

	if filter != nil {
		if filter.Status != nil {
			query = query.Where("tasks.status = ?", *filter.Status)
		}
		if filter.Priority != nil {
			query = query.Where("tasks.priority = ?", *filter.Priority)
		}
		if filter.Category != nil {
			query = query.Where("tasks.category = ?", *filter.Category)
		}
		if filter.Assignee != nil {
			query = query.Where(r.assigneeContains(), *filter.Assignee)
		}
		if filter.Search != nil {
			like := "%" + *filter.Search + "%"
			query = query.Where("LOWER(tasks.title) LIKE LOWER(?) OR LOWER(tasks.description) LIKE LOWER(?)", like, like)
		}
	}

	limit, offset := clampPagination(filter)

	var rows []*TaskRow
	err := query.
		Order("CASE tasks.priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END").
		Order("tasks.status").
		Order("tasks.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	return rows, err
}

// assigneeContains returns the dialect-appropriate set-containment predicate
// for the assignees array column.
func (r *taskRepository) assigneeContains() string {
	if r.db.Dialector.Name() == "postgres" {
		return "? = ANY(tasks.assignees)"
	}
	// SQLite stores the array in its serialized text form.
	return "tasks.assignees LIKE '%' || ? || '%'"
}

func clampPagination(filter *TaskFilter) (limit, offset int) {
	limit, offset = 100, 0
	if filter != nil {
		if filter.Limit > 0 {
			limit = filter.Limit
		}
		if filter.Offset > 0 {
			offset = filter.Offset
		}
	}
	if limit > 500 {
		limit = 500
	}
	return limit, offset
}

func (r *taskRepository) FindChildren(parentID string) ([]*model.Task, error) {
	var tasks []*model.Task
	err := r.db.
		Where("parent_task_id = ?", parentID).
		Order("created_at DESC").
		Find(&tasks).Error
	return tasks, err
}

// Tree returns the subtask tree under rootID in path order, each node
// carrying its depth level and full ancestor path. The depth bound keeps
// the recursion finite on any accidental cycle.
func (r *taskRepository) Tree(rootID string, maxDepth int) ([]*TreeNode, error) {
	var nodes []*TreeNode
	err := r.db.Raw(`
		WITH RECURSIVE task_tree AS (
			SELECT id, title, status, priority, parent_task_id,
			       1 AS level, CAST(id AS TEXT) AS path
			FROM tasks WHERE id = ?
			UNION ALL
			SELECT t.id, t.title, t.status, t.priority, t.parent_task_id,
			       tt.level + 1, tt.path || '>' || t.id
			FROM tasks t
			JOIN task_tree tt ON t.parent_task_id = tt.id
			WHERE tt.level < ?
		)
		SELECT * FROM task_tree ORDER BY path
	`, rootID, maxDepth).Scan(&nodes).Error
	return nodes, err
}
