package service

import (
	"context"

	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/metrics"
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/repository"
	"github.com/sirupsen/logrus"
)

// maxHierarchyDepth bounds the subordinate-closure traversal so evaluation
// terminates even on an accidental cycle in parent_manager_id.
const maxHierarchyDepth = 100

// PermissionService decides whether a manager may assign work to a user.
type PermissionService interface {
	// CanAssign is true when manager and target are the same user, when the
	// manager is the super-admin, or when target is in the manager's
	// subordinate closure. Any evaluation error denies: permission is
	// never granted by default.
	CanAssign(ctx context.Context, managerID, targetID string) bool
}

type permissionService struct {
	users        repository.UserRepository
	superAdminID string
	logger       *logrus.Logger
}

// NewPermissionService creates a permission evaluator.
func NewPermissionService(users repository.UserRepository, superAdminID string, logger *logrus.Logger) PermissionService {
	return &permissionService{users: users, superAdminID: superAdminID, logger: logger}
}

func (s *permissionService) CanAssign(ctx context.Context, managerID, targetID string) bool {
	// Self-assignment is always allowed.
	if managerID == targetID {
		return true
	}

	if s.superAdminID != "" && managerID == s.superAdminID {
		return true
	}

	subordinates, err := s.users.Subordinates(managerID, maxHierarchyDepth)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"manager": managerID,
			"target":  targetID,
		}).Error("subordinate closure query failed, denying assignment")
		metrics.RecordPermissionDenial()
		return false
	}

	for _, id := range subordinates {
		if id == targetID {
			return true
		}
	}

	metrics.RecordPermissionDenial()
	return false
}
