package container

import (
	"fmt"
	"time"

	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/cache"
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/config"
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/database"
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/repository"
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/service"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Container wires the application dependencies: database, cache store,
// repositories and services.
type Container struct {
	db          *gorm.DB
	store       cache.Store
	taskService service.TaskService
	userService service.UserService
	feedService service.FeedService
	resolver    service.ResolverService
}

// NewContainer initializes all dependencies from the configuration.
func NewContainer(cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	// Retry 3 times with exponential backoff starting at 1 second.
	db, err := database.ConnectWithRetry(cfg.Database, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := database.CreateIndexes(db); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	var store cache.Store
	if cfg.Redis.Enabled {
		store = cache.NewRedisStore(cfg.Redis, logger)
	} else {
		store = cache.NewMemoryStore()
	}

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	timeLogRepo := repository.NewTimeLogRepository(db)
	feedRepo := repository.NewFeedRepository(db)

	resolver := service.NewResolverService(userRepo, store, logger)
	perms := service.NewPermissionService(userRepo, cfg.Auth.SuperAdminID, logger)
	notifier := service.NewNotifier(feedRepo, logger)

	taskService := service.NewTaskService(
		taskRepo,
		timeLogRepo,
		userRepo,
		resolver,
		perms,
		notifier,
		store,
		cfg.Auth.SuperAdminID,
		logger,
	)
	userService := service.NewUserService(userRepo, resolver, logger)
	feedService := service.NewFeedService(feedRepo, resolver)

	return &Container{
		db:          db,
		store:       store,
		taskService: taskService,
		userService: userService,
		feedService: feedService,
		resolver:    resolver,
	}, nil
}

// DB returns the database handle.
func (c *Container) DB() *gorm.DB {
	return c.db
}

// Cache returns the side-cache store.
func (c *Container) Cache() cache.Store {
	return c.store
}

// TaskService returns the task service.
func (c *Container) TaskService() service.TaskService {
	return c.taskService
}

// UserService returns the directory sync service.
func (c *Container) UserService() service.UserService {
	return c.userService
}

// FeedService returns the feed read service.
func (c *Container) FeedService() service.FeedService {
	return c.feedService
}

// Resolver returns the identifier resolver.
func (c *Container) Resolver() service.ResolverService {
	return c.resolver
}

// Close releases container resources.
func (c *Container) Close() error {
	if c.db != nil {
		sqlDB, err := c.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	return nil
}
