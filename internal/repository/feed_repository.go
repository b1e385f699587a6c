package repository

import (
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/model"
	"gorm.io/gorm"
)

// FeedRepository owns the append-only side-effect records.
type FeedRepository interface {
	SaveNotification(n *model.Notification) error
	SavePost(p *model.Post) error
	ListNotifications(recipientID string, limit, offset int) ([]*model.Notification, error)
	ListPosts(authorID string, limit, offset int) ([]*model.Post, error)
}

type feedRepository struct {
	db *gorm.DB
}

// NewFeedRepository creates a feed repository.
func NewFeedRepository(db *gorm.DB) FeedRepository {
	return &feedRepository{db: db}
}

func (r *feedRepository) SaveNotification(n *model.Notification) error {
	return r.db.Create(n).Error
}

func (r *feedRepository) SavePost(p *model.Post) error {
	return r.db.Create(p).Error
}

func (r *feedRepository) ListNotifications(recipientID string, limit, offset int) ([]*model.Notification, error) {
	var items []*model.Notification
	query := r.db.Order("created_at DESC").Limit(clampFeedLimit(limit)).Offset(maxInt(offset, 0))
	if recipientID != "" {
		query = query.Where("recipient_id = ?", recipientID)
	}
	err := query.Find(&items).Error
	return items, err
}

func (r *feedRepository) ListPosts(authorID string, limit, offset int) ([]*model.Post, error) {
	var items []*model.Post
	query := r.db.Order("created_at DESC").Limit(clampFeedLimit(limit)).Offset(maxInt(offset, 0))
	if authorID != "" {
		query = query.Where("author_id = ?", authorID)
	}
	err := query.Find(&items).Error
	return items, err
}

func clampFeedLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
