package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/api"
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/cache"
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/config"
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/database"
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/model"
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/repository"
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type envelope struct {
	Success          bool            `json:"success"`
	Data             json.RawMessage `json:"data"`
	Error            string          `json:"error"`
	RequiresHoursLog bool            `json:"requiresHoursLog"`
}

type testServer struct {
	db     *gorm.DB
	router *gin.Engine
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	api.SetDefaultLogger(logger)

	cfg := config.Default()
	cfg.Auth.SuperAdminID = ""
	if mutate != nil {
		mutate(cfg)
	}

	store := cache.NewMemoryStore()

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	timeLogRepo := repository.NewTimeLogRepository(db)
	feedRepo := repository.NewFeedRepository(db)

	resolver := service.NewResolverService(userRepo, store, logger)
	perms := service.NewPermissionService(userRepo, cfg.Auth.SuperAdminID, logger)
	notifier := service.NewNotifier(feedRepo, logger)

	router := api.SetupRoutes(&api.RouterDeps{
		Config: cfg,
		DB:     db,
		Cache:  store,
		TaskService: service.NewTaskService(
			taskRepo, timeLogRepo, userRepo, resolver, perms, notifier,
			store, cfg.Auth.SuperAdminID, logger,
		),
		UserService: service.NewUserService(userRepo, resolver, logger),
		FeedService: service.NewFeedService(feedRepo, resolver),
		Resolver:    resolver,
	})

	return &testServer{db: db, router: router}
}

func (s *testServer) addUser(t *testing.T, id, email string) {
	now := time.Now()
	require.NoError(t, s.db.Create(&model.UserProfile{
		ID:        id,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}).Error)
}

func (s *testServer) request(t *testing.T, method, path string, body interface{}, header map[string]string) (*httptest.ResponseRecorder, *envelope) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		return rec, nil
	}
	return rec, &env
}

func TestRoutes_CreateAndGetTask(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.addUser(t, "creator", "creator@example.org")

	rec, env := srv.request(t, http.MethodPost, "/api/tasks", map[string]interface{}{
		"title":      "Drive elderly neighbor",
		"created_by": "creator@example.org",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env)
	require.True(t, env.Success)

	var task model.Task
	require.NoError(t, json.Unmarshal(env.Data, &task))
	assert.Equal(t, "Drive elderly neighbor", task.Title)
	assert.Equal(t, "creator", task.CreatedBy)

	rec, env = srv.request(t, http.MethodGet, "/api/tasks/"+task.ID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
}

func TestRoutes_FailureEnvelopeIsHTTP200(t *testing.T) {
	srv := newTestServer(t, nil)

	rec, env := srv.request(t, http.MethodGet, "/api/tasks/missing", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env)
	assert.False(t, env.Success)
	assert.Equal(t, "Task not found", env.Error)
}

func TestRoutes_HebrewErrorMessages(t *testing.T) {
	srv := newTestServer(t, nil)

	_, env := srv.request(t, http.MethodGet, "/api/tasks/missing?lang=he", nil, nil)
	require.NotNil(t, env)
	assert.False(t, env.Success)
	assert.Equal(t, "המשימה לא נמצאה", env.Error)

	// Accept-Language is honored when the query parameter is absent.
	_, env = srv.request(t, http.MethodGet, "/api/tasks/missing", nil, map[string]string{
		"Accept-Language": "he-IL,he;q=0.9,en;q=0.8",
	})
	assert.Equal(t, "המשימה לא נמצאה", env.Error)
}

func TestRoutes_HoursGateFlag(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.addUser(t, "creator", "creator@example.org")

	_, env := srv.request(t, http.MethodPost, "/api/tasks", map[string]interface{}{
		"title":      "Gated",
		"created_by": "creator",
	}, nil)
	require.True(t, env.Success)

	var task model.Task
	require.NoError(t, json.Unmarshal(env.Data, &task))

	rec, env := srv.request(t, http.MethodPatch, "/api/tasks/"+task.ID, map[string]interface{}{
		"status": "done",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, env.Success)
	assert.True(t, env.RequiresHoursLog)

	// Log hours, retry, and the flag clears.
	_, env = srv.request(t, http.MethodPost, "/api/tasks/"+task.ID+"/log-hours", map[string]interface{}{
		"user_id": "creator",
		"hours":   1.5,
	}, nil)
	require.True(t, env.Success)

	_, env = srv.request(t, http.MethodPatch, "/api/tasks/"+task.ID, map[string]interface{}{
		"status": "done",
	}, nil)
	assert.True(t, env.Success)
	assert.False(t, env.RequiresHoursLog)
}

func TestRoutes_HoursReportNotShadowedByTaskID(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.addUser(t, "manager", "manager@example.org")

	rec, env := srv.request(t, http.MethodGet, "/api/tasks/hours-report/manager", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
}

func TestRoutes_RequestIDEcho(t *testing.T) {
	srv := newTestServer(t, nil)

	rec, _ := srv.request(t, http.MethodGet, "/health", nil, map[string]string{
		"X-Request-ID": "req-123",
	})
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))

	rec, _ = srv.request(t, http.MethodGet, "/health", nil, nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRoutes_NoRoute(t *testing.T) {
	srv := newTestServer(t, nil)

	rec, env := srv.request(t, http.MethodGet, "/api/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env)
	assert.False(t, env.Success)
	assert.Equal(t, "The requested route does not exist", env.Error)
}

func TestRoutes_Health(t *testing.T) {
	srv := newTestServer(t, nil)

	rec, _ := srv.request(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoutes_UsersRequireBearerWhenConfigured(t *testing.T) {
	secret := "test-secret"
	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.Auth.JWTSecret = secret
	})

	payload := map[string]interface{}{
		"id":    "user-001",
		"email": "dana@example.org",
	}

	rec, _ := srv.request(t, http.MethodPost, "/api/users/sync", payload, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &api.ServiceClaims{
		Sub: "directory-sync",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	rec, env := srv.request(t, http.MethodPost, "/api/users/sync", payload, map[string]string{
		"Authorization": "Bearer " + signed,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
}

func TestRoutes_UserSyncAndResolve(t *testing.T) {
	srv := newTestServer(t, nil)

	_, env := srv.request(t, http.MethodPost, "/api/users/sync", map[string]interface{}{
		"id":           "user-001",
		"email":        "dana@example.org",
		"display_name": "Dana",
	}, nil)
	require.True(t, env.Success)

	_, env = srv.request(t, http.MethodGet, "/api/users/resolve/dana@example.org", nil, nil)
	require.True(t, env.Success)

	var resolved map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &resolved))
	assert.Equal(t, "user-001", resolved["id"])

	_, env = srv.request(t, http.MethodPost, "/api/users/user-001/link-firebase", map[string]interface{}{
		"firebase_uid": "fb-abc",
	}, nil)
	require.True(t, env.Success)

	_, env = srv.request(t, http.MethodGet, "/api/users/resolve/fb-abc", nil, nil)
	require.True(t, env.Success)
}

func TestRoutes_Feeds(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.addUser(t, "creator", "creator@example.org")

	_, env := srv.request(t, http.MethodPost, "/api/tasks", map[string]interface{}{
		"title":      "Feed source",
		"created_by": "creator",
	}, nil)
	require.True(t, env.Success)

	_, env = srv.request(t, http.MethodGet, "/api/notifications?recipient=creator", nil, nil)
	require.True(t, env.Success)
	var notifications []*model.Notification
	require.NoError(t, json.Unmarshal(env.Data, &notifications))
	assert.NotEmpty(t, notifications)

	_, env = srv.request(t, http.MethodGet, "/api/posts?author=creator@example.org", nil, nil)
	require.True(t, env.Success)
	var posts []*model.Post
	require.NoError(t, json.Unmarshal(env.Data, &posts))
	assert.NotEmpty(t, posts)
}

func TestRoutes_BadRequestBody(t *testing.T) {
	srv := newTestServer(t, nil)

	// Missing required fields fails binding.
	rec, env := srv.request(t, http.MethodPost, "/api/tasks", map[string]interface{}{
		"description": "no title, no creator",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Bad request", env.Error)
}
