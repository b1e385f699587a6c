package service_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/database"
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/model"
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/repository"
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/service"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupPermissionTest(t *testing.T, superAdminID string) (*gorm.DB, service.PermissionService) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return db, service.NewPermissionService(repository.NewUserRepository(db), superAdminID, logger)
}

func addHierarchyUser(t *testing.T, db *gorm.DB, id string, parent *string) {
	now := time.Now()
	require.NoError(t, db.Create(&model.UserProfile{
		ID:              id,
		Email:           id + "@example.org",
		ParentManagerID: parent,
		CreatedAt:       now,
		UpdatedAt:       now,
	}).Error)
}

func TestPermissionService_SelfAlwaysAllowed(t *testing.T) {
	_, perms := setupPermissionTest(t, "")
	assert.True(t, perms.CanAssign(context.Background(), "anyone", "anyone"))
}

func TestPermissionService_SuperAdmin(t *testing.T) {
	db, perms := setupPermissionTest(t, "admin")
	addHierarchyUser(t, db, "stranger", nil)

	assert.True(t, perms.CanAssign(context.Background(), "admin", "stranger"))
	// Super-admin authority does not transfer to other users.
	assert.False(t, perms.CanAssign(context.Background(), "stranger", "admin"))
}

func TestPermissionService_SuperAdminDisabled(t *testing.T) {
	db, perms := setupPermissionTest(t, "")
	addHierarchyUser(t, db, "admin", nil)
	addHierarchyUser(t, db, "stranger", nil)

	assert.False(t, perms.CanAssign(context.Background(), "admin", "stranger"))
}

func TestPermissionService_SubordinateClosure(t *testing.T) {
	db, perms := setupPermissionTest(t, "")
	addHierarchyUser(t, db, "manager", nil)
	manager := "manager"
	addHierarchyUser(t, db, "lead", &manager)
	lead := "lead"
	addHierarchyUser(t, db, "worker", &lead)
	addHierarchyUser(t, db, "outsider", nil)

	ctx := context.Background()
	assert.True(t, perms.CanAssign(ctx, "manager", "lead"))
	assert.True(t, perms.CanAssign(ctx, "manager", "worker"))
	assert.False(t, perms.CanAssign(ctx, "manager", "outsider"))
	// Upward assignment is not permitted.
	assert.False(t, perms.CanAssign(ctx, "worker", "manager"))
}
