package service

import (
	"context"

	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/model"
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/repository"
)

// FeedService reads the append-only side-effect records.
type FeedService interface {
	Notifications(ctx context.Context, recipient string, limit, offset int) ([]*model.Notification, error)
	Posts(ctx context.Context, author string, limit, offset int) ([]*model.Post, error)
}

type feedService struct {
	feed     repository.FeedRepository
	resolver ResolverService
}

// NewFeedService creates the feed read service.
func NewFeedService(feed repository.FeedRepository, resolver ResolverService) FeedService {
	return &feedService{feed: feed, resolver: resolver}
}

func (s *feedService) Notifications(ctx context.Context, recipient string, limit, offset int) ([]*model.Notification, error) {
	if recipient != "" && !IsUUID(recipient) {
		if resolved := s.resolver.ResolveOptional(ctx, recipient); resolved != "" {
			recipient = resolved
		}
	}
	return s.feed.ListNotifications(recipient, limit, offset)
}

func (s *feedService) Posts(ctx context.Context, author string, limit, offset int) ([]*model.Post, error) {
	if author != "" && !IsUUID(author) {
		if resolved := s.resolver.ResolveOptional(ctx, author); resolved != "" {
			author = resolved
		}
	}
	return s.feed.ListPosts(author, limit, offset)
}
