package service

import (
	"context"
	"errors"
	"time"

	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/model"
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/repository"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SyncUserRequest upserts one profile from the external user directory.
type SyncUserRequest struct {
	ID              string   `json:"id" binding:"required"`
	Email           string   `json:"email"`
	FirebaseUID     string   `json:"firebase_uid"`
	GoogleID        string   `json:"google_id"`
	ParentManagerID *string  `json:"parent_manager_id"`
	Roles           []string `json:"roles"`
	DisplayName     string   `json:"display_name"`
	AvatarURL       string   `json:"avatar_url"`
}

// UserService mirrors the external user directory into Postgres.
type UserService interface {
	Sync(ctx context.Context, req *SyncUserRequest) (*model.UserProfile, error)
	// LinkFirebase attaches an external-auth UID to a user and invalidates
	// the resolver cache for every identifier that maps to that user.
	LinkFirebase(ctx context.Context, id, firebaseUID string) error
	Get(ctx context.Context, id string) (*model.UserProfile, error)
}

type userService struct {
	users    repository.UserRepository
	resolver ResolverService
	logger   *logrus.Logger
}

// NewUserService creates the directory sync service.
func NewUserService(users repository.UserRepository, resolver ResolverService, logger *logrus.Logger) UserService {
	return &userService{users: users, resolver: resolver, logger: logger}
}

func (s *userService) Sync(ctx context.Context, req *SyncUserRequest) (*model.UserProfile, error) {
	now := time.Now()
	profile := &model.UserProfile{
		ID:              req.ID,
		Email:           req.Email,
		FirebaseUID:     req.FirebaseUID,
		GoogleID:        req.GoogleID,
		ParentManagerID: req.ParentManagerID,
		Roles:           pq.StringArray(req.Roles),
		DisplayName:     req.DisplayName,
		AvatarURL:       req.AvatarURL,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := profile.Validate(); err != nil {
		return nil, &ValidationError{MessageKey: "error.bad_request", Detail: err.Error()}
	}

	if err := s.users.Upsert(profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *userService) LinkFirebase(ctx context.Context, id, firebaseUID string) error {
	if firebaseUID == "" {
		return &ValidationError{MessageKey: "error.bad_request", Detail: "firebase_uid is required"}
	}

	prior, err := s.users.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{MessageKey: "error.user_not_found", Detail: "user not found: " + id}
		}
		return err
	}

	if err := s.users.LinkFirebaseUID(id, firebaseUID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{MessageKey: "error.user_not_found", Detail: "user not found: " + id}
		}
		return err
	}

	// External-ID linking is the one event that invalidates resolver
	// cache entries; TTL expiry handles everything else.
	s.resolver.Invalidate(ctx, id, prior.Email, prior.FirebaseUID, firebaseUID)
	return nil
}

func (s *userService) Get(ctx context.Context, id string) (*model.UserProfile, error) {
	profile, err := s.users.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{MessageKey: "error.user_not_found", Detail: "user not found: " + id}
		}
		return nil, err
	}
	return profile, nil
}
