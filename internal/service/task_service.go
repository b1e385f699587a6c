package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/cache"
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/metrics"
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/model"
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/repository"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TaskService owns the task lifecycle: CRUD, status transitions, the
// subtask tree and the time-log gate, plus the side effects and cache
// invalidation that follow every mutation.
type TaskService interface {
	Create(ctx context.Context, req *CreateTaskRequest) (*model.Task, error)
	Get(ctx context.Context, id string) (*model.Task, error)
	Update(ctx context.Context, id string, req *UpdateTaskRequest) (*model.Task, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, req *ListTasksRequest) ([]*TaskView, error)
	Subtasks(ctx context.Context, id string) ([]*model.Task, error)
	Tree(ctx context.Context, id string) ([]*repository.TreeNode, error)
	LogHours(ctx context.Context, taskID string, req *LogHoursRequest) (*model.TimeLog, error)
	HoursReport(ctx context.Context, managerID string) ([]*repository.HoursReportRow, error)
}

// CreateTaskRequest creates a task. Assignees may arrive as UUIDs or as an
// email list; unknown emails are silently dropped.
type CreateTaskRequest struct {
	Title           string          `json:"title" binding:"required"`
	Description     string          `json:"description"`
	Status          string          `json:"status"`
	Priority        string          `json:"priority"`
	Category        string          `json:"category"`
	DueDate         *string         `json:"due_date"`
	Assignees       []string        `json:"assignees"`
	AssigneesEmails []string        `json:"assigneesEmails"`
	Tags            []string        `json:"tags"`
	Checklist       json.RawMessage `json:"checklist"`
	CreatedBy       string          `json:"created_by" binding:"required"`
	ParentTaskID    *string         `json:"parent_task_id"`
	EstimatedHours  *float64        `json:"estimated_hours"`
}

// UpdateTaskRequest is a partial patch; only non-nil fields change.
type UpdateTaskRequest struct {
	Title          *string         `json:"title"`
	Description    *string         `json:"description"`
	Status         *string         `json:"status"`
	Priority       *string         `json:"priority"`
	Category       *string         `json:"category"`
	DueDate        *string         `json:"due_date"`
	Assignees      *[]string       `json:"assignees"`
	Tags           *[]string       `json:"tags"`
	Checklist      json.RawMessage `json:"checklist"`
	ParentTaskID   *string         `json:"parent_task_id"`
	EstimatedHours *float64        `json:"estimated_hours"`
}

// ListTasksRequest filters and paginates the task list.
type ListTasksRequest struct {
	Status   string `form:"status"`
	Priority string `form:"priority"`
	Category string `form:"category"`
	Assignee string `form:"assignee"`
	Search   string `form:"q"`
	Limit    int    `form:"limit"`
	Offset   int    `form:"offset"`
}

// LogHoursRequest records actual hours for a user on a task.
type LogHoursRequest struct {
	UserID string  `json:"user_id" binding:"required"`
	Hours  float64 `json:"hours" binding:"required"`
}

// UserInfo is the denormalized display info attached to list rows.
type UserInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	AvatarURL   string `json:"avatar_url"`
}

// TaskView is a list row enriched with assignee display info.
type TaskView struct {
	repository.TaskRow
	AssigneeInfo []UserInfo `json:"assignee_info"`
}

type taskService struct {
	tasks    repository.TaskRepository
	timeLogs repository.TimeLogRepository
	users    repository.UserRepository
	resolver ResolverService
	perms    PermissionService
	notifier Notifier
	cache    cache.Store
	logger   *logrus.Logger

	superAdminID string

	// Probed once: deployments without the time-log table skip the
	// done-transition gate entirely.
	hoursOnce        sync.Once
	hoursProvisioned bool
}

// NewTaskService creates the task service.
func NewTaskService(
	tasks repository.TaskRepository,
	timeLogs repository.TimeLogRepository,
	users repository.UserRepository,
	resolver ResolverService,
	perms PermissionService,
	notifier Notifier,
	store cache.Store,
	superAdminID string,
	logger *logrus.Logger,
) TaskService {
	return &taskService{
		tasks:        tasks,
		timeLogs:     timeLogs,
		users:        users,
		resolver:     resolver,
		perms:        perms,
		notifier:     notifier,
		cache:        store,
		superAdminID: superAdminID,
		logger:       logger,
	}
}

func (s *taskService) timeLogsProvisioned() bool {
	s.hoursOnce.Do(func() {
		s.hoursProvisioned = s.timeLogs.Provisioned()
	})
	return s.hoursProvisioned
}

// Create validates, resolves and permission-checks the request before the
// single insert; a denial aborts with no partial write. Side effects and
// cache invalidation run after the insert succeeds.
func (s *taskService) Create(ctx context.Context, req *CreateTaskRequest) (*model.Task, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, &ValidationError{MessageKey: "error.title_required", Detail: "title is required"}
	}

	status := req.Status
	if status == "" {
		status = model.StatusOpen
	}
	if !model.ValidStatus(status) {
		return nil, &ValidationError{MessageKey: "error.invalid_status", Detail: "invalid status: " + status}
	}

	priority := req.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !model.ValidPriority(priority) {
		return nil, &ValidationError{MessageKey: "error.invalid_priority", Detail: "invalid priority: " + priority}
	}

	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		return nil, err
	}

	if req.EstimatedHours != nil && *req.EstimatedHours < 0 {
		return nil, &ValidationError{MessageKey: "error.invalid_hours", Detail: "estimated hours must be non-negative"}
	}

	if req.CreatedBy == "" {
		return nil, &ValidationError{MessageKey: "error.created_by_required", Detail: "created_by is required"}
	}
	creatorID, err := s.resolver.Resolve(ctx, req.CreatedBy)
	if err != nil {
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			return nil, &ValidationError{MessageKey: "error.created_by_required", Detail: "created_by is required"}
		}
		return nil, err
	}

	assignees := s.resolveAssignees(ctx, req.Assignees, req.AssigneesEmails)

	// Never leave a task unassigned: default to creator plus super-admin.
	if len(assignees) == 0 {
		assignees = []string{creatorID}
		if s.superAdminID != "" && s.superAdminID != creatorID {
			assignees = append(assignees, s.superAdminID)
		}
	}
	assignees = dedupe(assignees)

	for _, assignee := range assignees {
		// Self-assignment and assignment to the super-admin are always
		// allowed; the default assignee set must pass this check.
		if assignee == creatorID || (s.superAdminID != "" && assignee == s.superAdminID) {
			continue
		}
		if !s.perms.CanAssign(ctx, creatorID, assignee) {
			return nil, &PermissionError{MessageKey: "error.assignment_not_allowed", Assignee: assignee}
		}
	}

	now := time.Now()
	task := &model.Task{
		ID:             uuid.NewString(),
		Title:          title,
		Description:    req.Description,
		Status:         status,
		Priority:       priority,
		Category:       req.Category,
		DueDate:        dueDate,
		Assignees:      pq.StringArray(assignees),
		Tags:           pq.StringArray(dedupe(req.Tags)),
		CreatedBy:      creatorID,
		ParentTaskID:   req.ParentTaskID,
		EstimatedHours: req.EstimatedHours,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if len(req.Checklist) > 0 {
		task.Checklist = datatypes.JSON(req.Checklist)
	}
	if err := task.Validate(); err != nil {
		return nil, &ValidationError{MessageKey: "error.bad_request", Detail: err.Error()}
	}

	if err := s.tasks.Create(task); err != nil {
		return nil, err
	}
	metrics.RecordTaskMutation("create")

	for _, assignee := range task.Assignees {
		s.notifier.TaskAssigned(ctx, task, assignee)
	}
	s.invalidate(ctx, task.ID)

	return task, nil
}

func (s *taskService) Get(ctx context.Context, id string) (*model.Task, error) {
	key := cache.TaskKey(id)
	if raw, ok := s.cache.Get(ctx, key); ok {
		var task model.Task
		if err := json.Unmarshal([]byte(raw), &task); err == nil {
			return &task, nil
		}
	}

	task, err := s.tasks.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{MessageKey: "error.task_not_found", Detail: "task not found: " + id}
		}
		return nil, err
	}

	if raw, err := json.Marshal(task); err == nil {
		s.cache.Set(ctx, key, string(raw), cache.TaskTTL)
	}
	return task, nil
}

// Update applies a partial patch as one dynamic UPDATE. Newly added
// assignees are permission-checked; members already present are not
// re-checked, so later hierarchy changes cannot break standing
// assignments. A done-transition requires a time log (when provisioned).
func (s *taskService) Update(ctx context.Context, id string, req *UpdateTaskRequest) (*model.Task, error) {
	prior, err := s.tasks.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{MessageKey: "error.task_not_found", Detail: "task not found: " + id}
		}
		return nil, err
	}

	updates := make(map[string]interface{})
	var newlyAssigned []string
	completing := false

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, &ValidationError{MessageKey: "error.title_required", Detail: "title is required"}
		}
		updates["title"] = title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Status != nil {
		if !model.ValidStatus(*req.Status) {
			return nil, &ValidationError{MessageKey: "error.invalid_status", Detail: "invalid status: " + *req.Status}
		}
		if *req.Status == model.StatusDone && prior.Status != model.StatusDone {
			if s.timeLogsProvisioned() {
				count, err := s.timeLogs.CountByTask(id)
				if err != nil {
					return nil, err
				}
				if count == 0 {
					return nil, &HoursGateError{MessageKey: "error.hours_required"}
				}
			}
			completing = true
		}
		updates["status"] = *req.Status
	}
	if req.Priority != nil {
		if !model.ValidPriority(*req.Priority) {
			return nil, &ValidationError{MessageKey: "error.invalid_priority", Detail: "invalid priority: " + *req.Priority}
		}
		updates["priority"] = *req.Priority
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.DueDate != nil {
		if *req.DueDate == "" {
			updates["due_date"] = nil
		} else {
			dueDate, err := parseDueDate(req.DueDate)
			if err != nil {
				return nil, err
			}
			updates["due_date"] = dueDate
		}
	}
	if req.Assignees != nil {
		next := dedupe(*req.Assignees)
		// A task is never left unassigned: an empty patch value re-applies
		// the creator/super-admin default.
		if len(next) == 0 {
			next = []string{prior.CreatedBy}
			if s.superAdminID != "" && s.superAdminID != prior.CreatedBy {
				next = append(next, s.superAdminID)
			}
		}
		newlyAssigned = difference(next, prior.Assignees)
		for _, assignee := range newlyAssigned {
			if s.superAdminID != "" && assignee == s.superAdminID {
				continue
			}
			if !s.perms.CanAssign(ctx, prior.CreatedBy, assignee) {
				return nil, &PermissionError{MessageKey: "error.assignment_not_allowed", Assignee: assignee}
			}
		}
		updates["assignees"] = pq.StringArray(next)
	}
	if req.Tags != nil {
		updates["tags"] = pq.StringArray(dedupe(*req.Tags))
	}
	if len(req.Checklist) > 0 {
		updates["checklist"] = datatypes.JSON(req.Checklist)
	}
	if req.ParentTaskID != nil {
		if *req.ParentTaskID == "" {
			updates["parent_task_id"] = nil
		} else {
			updates["parent_task_id"] = *req.ParentTaskID
		}
	}
	if req.EstimatedHours != nil {
		if *req.EstimatedHours < 0 {
			return nil, &ValidationError{MessageKey: "error.invalid_hours", Detail: "estimated hours must be non-negative"}
		}
		updates["estimated_hours"] = *req.EstimatedHours
	}

	updates["updated_at"] = time.Now()

	if err := s.tasks.UpdateColumns(id, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{MessageKey: "error.task_not_found", Detail: "task not found: " + id}
		}
		return nil, err
	}
	metrics.RecordTaskMutation("update")

	task, err := s.tasks.FindByID(id)
	if err != nil {
		return nil, err
	}

	for _, assignee := range newlyAssigned {
		s.notifier.TaskAssigned(ctx, task, assignee)
	}
	if completing {
		// Creator and assignees hear about completion once each, even
		// when the creator is also assigned.
		for _, recipient := range dedupe(append([]string{task.CreatedBy}, task.Assignees...)) {
			s.notifier.TaskCompleted(ctx, task, recipient)
		}
	}
	s.invalidate(ctx, id)

	return task, nil
}

func (s *taskService) Delete(ctx context.Context, id string) error {
	if err := s.tasks.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{MessageKey: "error.task_not_found", Detail: "task not found: " + id}
		}
		return err
	}
	metrics.RecordTaskMutation("delete")
	s.invalidate(ctx, id)
	return nil
}

func (s *taskService) List(ctx context.Context, req *ListTasksRequest) ([]*TaskView, error) {
	if req.Status != "" && !model.ValidStatus(req.Status) {
		return nil, &ValidationError{MessageKey: "error.invalid_status", Detail: "invalid status: " + req.Status}
	}
	if req.Priority != "" && !model.ValidPriority(req.Priority) {
		return nil, &ValidationError{MessageKey: "error.invalid_priority", Detail: "invalid priority: " + req.Priority}
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	key := cache.ListKey(req.Status, req.Priority, req.Category, req.Assignee, req.Search, limit, offset)
	if raw, ok := s.cache.Get(ctx, key); ok {
		var views []*TaskView
		if err := json.Unmarshal([]byte(raw), &views); err == nil {
			return views, nil
		}
	}

	filter := &repository.TaskFilter{Limit: limit, Offset: offset}
	if req.Status != "" {
		filter.Status = &req.Status
	}
	if req.Priority != "" {
		filter.Priority = &req.Priority
	}
	if req.Category != "" {
		filter.Category = &req.Category
	}
	if req.Assignee != "" {
		assignee := req.Assignee
		if !IsUUID(assignee) {
			if resolved := s.resolver.ResolveOptional(ctx, assignee); resolved != "" {
				assignee = resolved
			}
		}
		filter.Assignee = &assignee
	}
	if req.Search != "" {
		filter.Search = &req.Search
	}

	rows, err := s.tasks.List(filter, s.timeLogsProvisioned())
	if err != nil {
		return nil, err
	}

	views, err := s.attachAssigneeInfo(rows)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(views); err == nil {
		s.cache.Set(ctx, key, string(raw), cache.ListTTL)
	}
	return views, nil
}

// attachAssigneeInfo joins assignee display info in one batched lookup
// instead of a query per row.
func (s *taskService) attachAssigneeInfo(rows []*repository.TaskRow) ([]*TaskView, error) {
	idSet := make(map[string]struct{})
	for _, row := range rows {
		for _, assignee := range row.Assignees {
			idSet[assignee] = struct{}{}
		}
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	profiles, err := s.users.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.UserProfile, len(profiles))
	for _, profile := range profiles {
		byID[profile.ID] = profile
	}

	views := make([]*TaskView, 0, len(rows))
	for _, row := range rows {
		view := &TaskView{TaskRow: *row, AssigneeInfo: make([]UserInfo, 0, len(row.Assignees))}
		for _, assignee := range row.Assignees {
			info := UserInfo{ID: assignee}
			if profile, ok := byID[assignee]; ok {
				info.DisplayName = profile.DisplayName
				info.Email = profile.Email
				info.AvatarURL = profile.AvatarURL
			}
			view.AssigneeInfo = append(view.AssigneeInfo, info)
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *taskService) Subtasks(ctx context.Context, id string) ([]*model.Task, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.tasks.FindChildren(id)
}

func (s *taskService) Tree(ctx context.Context, id string) ([]*repository.TreeNode, error) {
	nodes, err := s.tasks.Tree(id, repository.MaxTreeDepth)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, &NotFoundError{MessageKey: "error.task_not_found", Detail: "task not found: " + id}
	}
	return nodes, nil
}

func (s *taskService) LogHours(ctx context.Context, taskID string, req *LogHoursRequest) (*model.TimeLog, error) {
	if req.Hours <= 0 {
		return nil, &ValidationError{MessageKey: "error.invalid_hours", Detail: "hours must be positive"}
	}

	userID, err := s.resolver.Resolve(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	if _, err := s.tasks.FindByID(taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{MessageKey: "error.task_not_found", Detail: "task not found: " + taskID}
		}
		return nil, err
	}

	log := &model.TimeLog{
		ID:          uuid.NewString(),
		TaskID:      taskID,
		UserID:      userID,
		ActualHours: req.Hours,
		LoggedAt:    time.Now(),
	}
	if err := s.timeLogs.Upsert(log); err != nil {
		return nil, err
	}
	metrics.RecordTaskMutation("log_hours")

	// Cached list rows embed summed hours, so the list sweep is needed too.
	s.invalidate(ctx, taskID)
	return log, nil
}

func (s *taskService) HoursReport(ctx context.Context, managerID string) ([]*repository.HoursReportRow, error) {
	resolved, err := s.resolver.Resolve(ctx, managerID)
	if err != nil {
		return nil, err
	}

	subordinates, err := s.users.Subordinates(resolved, maxHierarchyDepth)
	if err != nil {
		return nil, err
	}
	return s.timeLogs.HoursReport(append(subordinates, resolved))
}

// invalidate drops the entity key and sweeps every list-key variant. It is
// awaited so a follow-up read cannot repopulate a stale filtered view.
func (s *taskService) invalidate(ctx context.Context, taskID string) {
	s.cache.Delete(ctx, cache.TaskKey(taskID))
	s.cache.DeletePattern(ctx, cache.ListPattern)
}

// resolveAssignees takes UUIDs verbatim and translates the email list,
// silently dropping unknown emails.
func (s *taskService) resolveAssignees(ctx context.Context, ids, emails []string) []string {
	assignees := make([]string, 0, len(ids)+len(emails))
	for _, id := range ids {
		if id != "" {
			assignees = append(assignees, id)
		}
	}
	for _, email := range emails {
		if resolved := s.resolver.ResolveOptional(ctx, email); resolved != "" {
			assignees = append(assignees, resolved)
		}
	}
	return assignees
}

func parseDueDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, &ValidationError{MessageKey: "error.invalid_due_date", Detail: "invalid due_date: " + *raw}
	}
	return &parsed, nil
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// difference returns the members of next that are not in prior.
func difference(next, prior []string) []string {
	seen := make(map[string]struct{}, len(prior))
	for _, v := range prior {
		seen[v] = struct{}{}
	}
	var added []string
	for _, v := range next {
		if _, ok := seen[v]; !ok {
			added = append(added, v)
		}
	}
	return added
}
