package service

import (
	"context"
	"fmt"
	"time"

	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/metrics"
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/model"
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Notifier fires the notification and post records that accompany task
// mutations. Delivery is at-most-once and best-effort: each write is
// independently recovered, failures are logged and counted, and nothing
// here can fail or roll back the task mutation that triggered it.
type Notifier interface {
	TaskAssigned(ctx context.Context, task *model.Task, recipientID string)
	TaskCompleted(ctx context.Context, task *model.Task, recipientID string)
}

type notifier struct {
	feed   repository.FeedRepository
	logger *logrus.Logger
}

// NewNotifier creates a side-effect dispatcher.
func NewNotifier(feed repository.FeedRepository, logger *logrus.Logger) Notifier {
	return &notifier{feed: feed, logger: logger}
}

func (n *notifier) TaskAssigned(ctx context.Context, task *model.Task, recipientID string) {
	n.dispatch(task, recipientID, model.KindNewAssignment,
		"New task assignment",
		fmt.Sprintf("You were assigned to task %q", task.Title))
}

func (n *notifier) TaskCompleted(ctx context.Context, task *model.Task, recipientID string) {
	n.dispatch(task, recipientID, model.KindCompletion,
		"Task completed",
		fmt.Sprintf("Task %q was marked as done", task.Title))
}

func (n *notifier) dispatch(task *model.Task, recipientID, kind, title, body string) {
	now := time.Now()

	if err := n.feed.SaveNotification(&model.Notification{
		ID:          uuid.NewString(),
		RecipientID: recipientID,
		TaskID:      task.ID,
		Kind:        kind,
		Title:       title,
		Body:        body,
		CreatedAt:   now,
	}); err != nil {
		n.logger.WithError(err).WithFields(logrus.Fields{
			"task":      task.ID,
			"recipient": recipientID,
			"kind":      kind,
		}).Warn("notification write failed")
		metrics.RecordSideEffectFailure("notification")
	}

	if err := n.feed.SavePost(&model.Post{
		ID:        uuid.NewString(),
		AuthorID:  recipientID,
		TaskID:    task.ID,
		Kind:      kind,
		Content:   body,
		CreatedAt: now,
	}); err != nil {
		n.logger.WithError(err).WithFields(logrus.Fields{
			"task":      task.ID,
			"recipient": recipientID,
			"kind":      kind,
		}).Warn("post write failed")
		metrics.RecordSideEffectFailure("post")
	}
}
