package repository_test

import (
	"testing"
	"time"

	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/model"
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func makeUser(id, email string, parentManagerID *string) *model.UserProfile {
	now := time.Now()
	return &model.UserProfile{
		ID:              id,
		Email:           email,
		ParentManagerID: parentManagerID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestUserRepository_Upsert(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewUserRepository(db)

	user := makeUser("user-001", "dana@example.org", nil)
	user.DisplayName = "Dana"
	require.NoError(t, repo.Upsert(user))

	// Second upsert with the same id replaces the row instead of failing.
	user.DisplayName = "Dana Levi"
	require.NoError(t, repo.Upsert(user))

	found, err := repo.FindByID("user-001")
	require.NoError(t, err)
	assert.Equal(t, "Dana Levi", found.DisplayName)

	var count int64
	require.NoError(t, db.Model(&model.UserProfile{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUserRepository_FindByIDs(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewUserRepository(db)

	require.NoError(t, repo.Upsert(makeUser("user-001", "a@example.org", nil)))
	require.NoError(t, repo.Upsert(makeUser("user-002", "b@example.org", nil)))

	users, err := repo.FindByIDs([]string{"user-001", "user-002", "missing"})
	require.NoError(t, err)
	assert.Len(t, users, 2)

	users, err = repo.FindByIDs(nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestUserRepository_ResolveIdentifier(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewUserRepository(db)

	user := makeUser("user-001", "dana@example.org", nil)
	user.FirebaseUID = "fb-abc123"
	user.GoogleID = "google-xyz"
	require.NoError(t, repo.Upsert(user))

	byID, err := repo.ResolveIdentifier("user-001")
	require.NoError(t, err)
	assert.Equal(t, "user-001", byID.ID)

	// Email matching is case-insensitive.
	byEmail, err := repo.ResolveIdentifier("Dana@Example.org")
	require.NoError(t, err)
	assert.Equal(t, "user-001", byEmail.ID)

	byUID, err := repo.ResolveIdentifier("fb-abc123")
	require.NoError(t, err)
	assert.Equal(t, "user-001", byUID.ID)

	// google_id does not participate in resolution.
	_, err = repo.ResolveIdentifier("google-xyz")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_Subordinates(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewUserRepository(db)

	manager := "manager"
	lead := "lead"
	require.NoError(t, repo.Upsert(makeUser("manager", "m@example.org", nil)))
	require.NoError(t, repo.Upsert(makeUser("lead", "l@example.org", &manager)))
	require.NoError(t, repo.Upsert(makeUser("worker", "w@example.org", &lead)))
	require.NoError(t, repo.Upsert(makeUser("outsider", "o@example.org", nil)))

	ids, err := repo.Subordinates("manager", 100)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"lead", "worker"}, ids)

	ids, err = repo.Subordinates("worker", 100)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestUserRepository_Subordinates_CycleTerminates(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewUserRepository(db)

	a := "a"
	b := "b"
	require.NoError(t, repo.Upsert(makeUser("a", "a@example.org", &b)))
	require.NoError(t, repo.Upsert(makeUser("b", "b@example.org", &a)))

	ids, err := repo.Subordinates("a", 100)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}

func TestUserRepository_LinkFirebaseUID(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewUserRepository(db)

	require.NoError(t, repo.Upsert(makeUser("user-001", "dana@example.org", nil)))

	require.NoError(t, repo.LinkFirebaseUID("user-001", "fb-new"))

	found, err := repo.FindByID("user-001")
	require.NoError(t, err)
	assert.Equal(t, "fb-new", found.FirebaseUID)

	assert.ErrorIs(t, repo.LinkFirebaseUID("missing", "fb-new"), gorm.ErrRecordNotFound)
}
