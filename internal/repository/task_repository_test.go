package repository_test

import (
	"testing"
	"time"

	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/database"
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/model"
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/repository"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory test database with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = database.Migrate(db)
	require.NoError(t, err)

	return db
}

func makeTask(id, title, createdBy string) *model.Task {
	now := time.Now()
	return &model.Task{
		ID:        id,
		Title:     title,
		Status:    model.StatusOpen,
		Priority:  model.PriorityMedium,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestTaskRepository_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTaskRepository(db)

	task := makeTask("task-001", "Collect donations", "user-001")
	task.Assignees = pq.StringArray{"user-001", "user-002"}
	task.Tags = pq.StringArray{"food", "north"}

	err := repo.Create(task)
	assert.NoError(t, err)

	found, err := repo.FindByID("task-001")
	assert.NoError(t, err)
	assert.Equal(t, "Collect donations", found.Title)
	assert.Equal(t, pq.StringArray{"user-001", "user-002"}, found.Assignees)
	assert.Equal(t, pq.StringArray{"food", "north"}, found.Tags)
}

func TestTaskRepository_FindByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTaskRepository(db)

	found, err := repo.FindByID("missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Nil(t, found)
}

func TestTaskRepository_UpdateColumns(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTaskRepository(db)

	require.NoError(t, repo.Create(makeTask("task-001", "Before", "user-001")))

	err := repo.UpdateColumns("task-001", map[string]interface{}{
		"title":  "After",
		"status": model.StatusInProgress,
	})
	assert.NoError(t, err)

	found, err := repo.FindByID("task-001")
	require.NoError(t, err)
	assert.Equal(t, "After", found.Title)
	assert.Equal(t, model.StatusInProgress, found.Status)
}

func TestTaskRepository_UpdateColumns_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTaskRepository(db)

	err := repo.UpdateColumns("missing", map[string]interface{}{"title": "x"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTaskRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTaskRepository(db)

	require.NoError(t, repo.Create(makeTask("task-001", "Doomed", "user-001")))

	assert.NoError(t, repo.Delete("task-001"))

	_, err := repo.FindByID("task-001")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	assert.ErrorIs(t, repo.Delete("task-001"), gorm.ErrRecordNotFound)
}

func TestTaskRepository_List_Filters(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTaskRepository(db)

	open := makeTask("task-001", "Sort clothing donations", "user-001")
	open.Assignees = pq.StringArray{"user-002"}
	require.NoError(t, repo.Create(open))

	done := makeTask("task-002", "Deliver packages", "user-001")
	done.Status = model.StatusDone
	done.Priority = model.PriorityHigh
	require.NoError(t, repo.Create(done))

	status := model.StatusOpen
	rows, err := repo.List(&repository.TaskFilter{Status: &status}, false)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "task-001", rows[0].ID)

	assignee := "user-002"
	rows, err = repo.List(&repository.TaskFilter{Assignee: &assignee}, false)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "task-001", rows[0].ID)

	search := "packages"
	rows, err = repo.List(&repository.TaskFilter{Search: &search}, false)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "task-002", rows[0].ID)
}

func TestTaskRepository_List_PriorityOrdering(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTaskRepository(db)

	low := makeTask("task-low", "Low", "user-001")
	low.Priority = model.PriorityLow
	require.NoError(t, repo.Create(low))

	high := makeTask("task-high", "High", "user-001")
	high.Priority = model.PriorityHigh
	require.NoError(t, repo.Create(high))

	medium := makeTask("task-medium", "Medium", "user-001")
	require.NoError(t, repo.Create(medium))

	rows, err := repo.List(nil, false)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "task-high", rows[0].ID)
	assert.Equal(t, "task-medium", rows[1].ID)
	assert.Equal(t, "task-low", rows[2].ID)
}

func TestTaskRepository_List_CreatorInfoAndSubtaskCount(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTaskRepository(db)

	creator := &model.UserProfile{
		ID:          "user-001",
		Email:       "dana@example.org",
		DisplayName: "Dana",
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	require.NoError(t, db.Create(creator).Error)

	parent := makeTask("task-parent", "Parent", "user-001")
	require.NoError(t, repo.Create(parent))

	parentID := "task-parent"
	child := makeTask("task-child", "Child", "user-001")
	child.ParentTaskID = &parentID
	require.NoError(t, repo.Create(child))

	rows, err := repo.List(nil, false)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byID := map[string]*repository.TaskRow{}
	for _, row := range rows {
		byID[row.ID] = row
	}
	assert.Equal(t, "Dana", byID["task-parent"].CreatorName)
	assert.Equal(t, "dana@example.org", byID["task-parent"].CreatorEmail)
	assert.Equal(t, int64(1), byID["task-parent"].SubtaskCount)
	assert.Equal(t, int64(0), byID["task-child"].SubtaskCount)
}

func TestTaskRepository_List_WithHours(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTaskRepository(db)
	logs := repository.NewTimeLogRepository(db)

	require.NoError(t, repo.Create(makeTask("task-001", "Tracked", "user-001")))
	require.NoError(t, logs.Upsert(&model.TimeLog{
		ID: "log-1", TaskID: "task-001", UserID: "user-001", ActualHours: 2.5, LoggedAt: time.Now(),
	}))
	require.NoError(t, logs.Upsert(&model.TimeLog{
		ID: "log-2", TaskID: "task-001", UserID: "user-002", ActualHours: 1.5, LoggedAt: time.Now(),
	}))

	rows, err := repo.List(nil, true)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.InDelta(t, 4.0, rows[0].TotalActualHours, 0.001)
}

func TestTaskRepository_FindChildren(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTaskRepository(db)

	require.NoError(t, repo.Create(makeTask("task-parent", "Parent", "user-001")))

	parentID := "task-parent"
	for _, id := range []string{"task-a", "task-b"} {
		child := makeTask(id, "Child "+id, "user-001")
		child.ParentTaskID = &parentID
		require.NoError(t, repo.Create(child))
	}

	children, err := repo.FindChildren("task-parent")
	require.NoError(t, err)
	assert.Len(t, children, 2)
}

func TestTaskRepository_Tree(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTaskRepository(db)

	require.NoError(t, repo.Create(makeTask("root", "Root", "user-001")))

	rootID := "root"
	mid := makeTask("mid", "Middle", "user-001")
	mid.ParentTaskID = &rootID
	require.NoError(t, repo.Create(mid))

	midID := "mid"
	leaf := makeTask("leaf", "Leaf", "user-001")
	leaf.ParentTaskID = &midID
	require.NoError(t, repo.Create(leaf))

	nodes, err := repo.Tree("root", repository.MaxTreeDepth)
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	assert.Equal(t, "root", nodes[0].ID)
	assert.Equal(t, 1, nodes[0].Level)
	assert.Equal(t, "mid", nodes[1].ID)
	assert.Equal(t, 2, nodes[1].Level)
	assert.Equal(t, "leaf", nodes[2].ID)
	assert.Equal(t, 3, nodes[2].Level)
	assert.Equal(t, "root>mid>leaf", nodes[2].Path)
}

func TestTaskRepository_Tree_DepthBound(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTaskRepository(db)

	require.NoError(t, repo.Create(makeTask("root", "Root", "user-001")))

	rootID := "root"
	child := makeTask("child", "Child", "user-001")
	child.ParentTaskID = &rootID
	require.NoError(t, repo.Create(child))

	nodes, err := repo.Tree("root", 1)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "root", nodes[0].ID)
}

func TestTaskRepository_Tree_MissingRoot(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTaskRepository(db)

	nodes, err := repo.Tree("missing", repository.MaxTreeDepth)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}
