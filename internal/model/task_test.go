package model_test

import (
	"testing"
	"time"

	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/model"
	"github.com/stretchr/testify/assert"
)

func validTask() *model.Task {
	now := time.Now()
	return &model.Task{
		ID:        "task-001",
		Title:     "Deliver groceries",
		Status:    model.StatusOpen,
		Priority:  model.PriorityMedium,
		CreatedBy: "user-001",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestTask_Validate(t *testing.T) {
	assert.NoError(t, validTask().Validate())

	missingID := validTask()
	missingID.ID = ""
	assert.Error(t, missingID.Validate())

	missingTitle := validTask()
	missingTitle.Title = ""
	assert.Error(t, missingTitle.Validate())

	missingCreator := validTask()
	missingCreator.CreatedBy = ""
	assert.Error(t, missingCreator.Validate())

	badStatus := validTask()
	badStatus.Status = "bogus"
	assert.Error(t, badStatus.Validate())

	badPriority := validTask()
	badPriority.Priority = "urgent"
	assert.Error(t, badPriority.Validate())

	negativeHours := validTask()
	hours := -1.0
	negativeHours.EstimatedHours = &hours
	assert.Error(t, negativeHours.Validate())
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{
		model.StatusOpen, model.StatusInProgress, model.StatusDone,
		model.StatusArchived, model.StatusStuck, model.StatusTesting,
	} {
		assert.True(t, model.ValidStatus(s), s)
	}
	assert.False(t, model.ValidStatus("closed"))
	assert.False(t, model.ValidStatus(""))
}

func TestValidPriority(t *testing.T) {
	for _, p := range []string{model.PriorityLow, model.PriorityMedium, model.PriorityHigh} {
		assert.True(t, model.ValidPriority(p), p)
	}
	assert.False(t, model.ValidPriority("urgent"))
}

func TestTimeLog_Validate(t *testing.T) {
	log := &model.TimeLog{
		ID:          "log-001",
		TaskID:      "task-001",
		UserID:      "user-001",
		ActualHours: 2,
		LoggedAt:    time.Now(),
	}
	assert.NoError(t, log.Validate())

	log.ActualHours = 0
	assert.Error(t, log.Validate())

	log.ActualHours = -1
	assert.Error(t, log.Validate())
}

func TestUserProfile_Validate(t *testing.T) {
	user := &model.UserProfile{ID: "user-001", Email: "dana@example.org"}
	assert.NoError(t, user.Validate())

	user = &model.UserProfile{ID: "user-001", FirebaseUID: "fb-1"}
	assert.NoError(t, user.Validate())

	user = &model.UserProfile{ID: "user-001"}
	assert.Error(t, user.Validate())

	user = &model.UserProfile{Email: "dana@example.org"}
	assert.Error(t, user.Validate())
}
