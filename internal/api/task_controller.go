package api

import (
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/service"
	"github.com/gin-gonic/gin"
)

// TaskController exposes the task surface.
type TaskController struct {
	taskService service.TaskService
}

// NewTaskController creates a task controller.
func NewTaskController(taskService service.TaskService) *TaskController {
	return &TaskController{
		taskService: taskService,
	}
}

// CreateTask creates a task
// @Summary      Create a task
// @Description  Creates a task; assignees may be UUIDs or emails, unassigned tasks default to the creator
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        task  body      service.CreateTaskRequest  true  "task payload"
// @Success      200   {object}  Response{data=model.Task}
// @Router       /api/tasks [post]
func (c *TaskController) CreateTask(ctx *gin.Context) {
	var req service.CreateTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Fail(ctx, T(ctx, "error.bad_request"))
		return
	}

	task, err := c.taskService.Create(ctx.Request.Context(), &req)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, task)
}

// GetTask returns one task
// @Summary      Get a task
// @Tags         tasks
// @Produce      json
// @Param        id   path      string  true  "task id"
// @Success      200  {object}  Response{data=model.Task}
// @Router       /api/tasks/{id} [get]
func (c *TaskController) GetTask(ctx *gin.Context) {
	task, err := c.taskService.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, task)
}

// ListTasks lists tasks
// @Summary      List tasks
// @Description  Filter by status, priority, category, assignee and free-text search
// @Tags         tasks
// @Produce      json
// @Param        status    query     string  false  "status filter"
// @Param        priority  query     string  false  "priority filter"
// @Param        category  query     string  false  "category filter"
// @Param        assignee  query     string  false  "assignee id or email"
// @Param        q         query     string  false  "search in title and description"
// @Param        limit     query     int     false  "page size (max 500)"
// @Param        offset    query     int     false  "page offset"
// @Success      200       {object}  Response{data=[]service.TaskView}
// @Router       /api/tasks [get]
func (c *TaskController) ListTasks(ctx *gin.Context) {
	var req service.ListTasksRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		Fail(ctx, T(ctx, "error.bad_request"))
		return
	}

	views, err := c.taskService.List(ctx.Request.Context(), &req)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, views)
}

// UpdateTask patches a task
// @Summary      Update a task
// @Description  Partial update; transitioning to done requires a logged time entry
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id    path      string                     true  "task id"
// @Param        task  body      service.UpdateTaskRequest  true  "fields to change"
// @Success      200   {object}  Response{data=model.Task}
// @Router       /api/tasks/{id} [patch]
func (c *TaskController) UpdateTask(ctx *gin.Context) {
	var req service.UpdateTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Fail(ctx, T(ctx, "error.bad_request"))
		return
	}

	task, err := c.taskService.Update(ctx.Request.Context(), ctx.Param("id"), &req)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, task)
}

// DeleteTask deletes a task
// @Summary      Delete a task
// @Tags         tasks
// @Produce      json
// @Param        id   path      string  true  "task id"
// @Success      200  {object}  Response
// @Router       /api/tasks/{id} [delete]
func (c *TaskController) DeleteTask(ctx *gin.Context) {
	if err := c.taskService.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, gin.H{"deleted": true})
}

// ListSubtasks lists the direct children of a task
// @Summary      List subtasks
// @Tags         tasks
// @Produce      json
// @Param        id   path      string  true  "task id"
// @Success      200  {object}  Response{data=[]model.Task}
// @Router       /api/tasks/{id}/subtasks [get]
func (c *TaskController) ListSubtasks(ctx *gin.Context) {
	subtasks, err := c.taskService.Subtasks(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, subtasks)
}

// GetTaskTree returns the task with its descendants
// @Summary      Get the subtask tree
// @Description  Depth-first tree rooted at the task, bounded at ten levels
// @Tags         tasks
// @Produce      json
// @Param        id   path      string  true  "root task id"
// @Success      200  {object}  Response{data=[]repository.TreeNode}
// @Router       /api/tasks/{id}/tree [get]
func (c *TaskController) GetTaskTree(ctx *gin.Context) {
	nodes, err := c.taskService.Tree(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, nodes)
}

// LogHours records hours against a task
// @Summary      Log hours on a task
// @Description  Upserts the caller's hours entry; last write wins
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id     path      string                   true  "task id"
// @Param        hours  body      service.LogHoursRequest  true  "hours payload"
// @Success      200    {object}  Response{data=model.TimeLog}
// @Router       /api/tasks/{id}/log-hours [post]
func (c *TaskController) LogHours(ctx *gin.Context) {
	var req service.LogHoursRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Fail(ctx, T(ctx, "error.bad_request"))
		return
	}

	entry, err := c.taskService.LogHours(ctx.Request.Context(), ctx.Param("id"), &req)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, entry)
}

// HoursReport aggregates logged hours for a manager's reports
// @Summary      Hours report
// @Description  Total logged hours per user across the manager's subtree, manager included
// @Tags         tasks
// @Produce      json
// @Param        managerId  path      string  true  "manager id or email"
// @Success      200        {object}  Response{data=[]repository.HoursReportRow}
// @Router       /api/tasks/hours-report/{managerId} [get]
func (c *TaskController) HoursReport(ctx *gin.Context) {
	report, err := c.taskService.HoursReport(ctx.Request.Context(), ctx.Param("managerId"))
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, report)
}
