package service_test

import (
	"context"
	"testing"

	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Sync(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()

	profile, err := env.users.Sync(ctx, &service.SyncUserRequest{
		ID:          "user-001",
		Email:       "dana@example.org",
		DisplayName: "Dana",
		Roles:       []string{"volunteer"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Dana", profile.DisplayName)

	// Re-sync updates in place.
	profile, err = env.users.Sync(ctx, &service.SyncUserRequest{
		ID:          "user-001",
		Email:       "dana@example.org",
		DisplayName: "Dana Levi",
	})
	require.NoError(t, err)

	found, err := env.users.Get(ctx, "user-001")
	require.NoError(t, err)
	assert.Equal(t, "Dana Levi", found.DisplayName)
}

func TestUserService_Sync_Validation(t *testing.T) {
	env := newTestEnv(t, "")

	_, err := env.users.Sync(context.Background(), &service.SyncUserRequest{ID: "user-001"})
	var validation *service.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestUserService_LinkFirebase(t *testing.T) {
	env := newTestEnv(t, "")
	env.addUser(t, "user-001", "dana@example.org", nil)
	ctx := context.Background()

	// Warm the resolver cache, then link; the stale entry must be dropped.
	_, err := env.resolver.Resolve(ctx, "dana@example.org")
	require.NoError(t, err)

	require.NoError(t, env.users.LinkFirebase(ctx, "user-001", "fb-new"))

	id, err := env.resolver.Resolve(ctx, "fb-new")
	require.NoError(t, err)
	assert.Equal(t, "user-001", id)

	var notFound *service.NotFoundError
	assert.ErrorAs(t, env.users.LinkFirebase(ctx, "missing", "fb-x"), &notFound)

	var validation *service.ValidationError
	assert.ErrorAs(t, env.users.LinkFirebase(ctx, "user-001", ""), &validation)
}

func TestUserService_Get_NotFound(t *testing.T) {
	env := newTestEnv(t, "")

	_, err := env.users.Get(context.Background(), "missing")
	var notFound *service.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "error.user_not_found", notFound.MessageKey)
}
