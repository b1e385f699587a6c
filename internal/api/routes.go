package api

import (
	"net/http"

	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/cache"
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/config"
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/service"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RouterDeps carries everything route setup needs.
type RouterDeps struct {
	Config      *config.Config
	DB          *gorm.DB
	Cache       cache.Store
	TaskService service.TaskService
	UserService service.UserService
	FeedService service.FeedService
	Resolver    service.ResolverService
}

// SetupRoutes configures middleware and the route table.
func SetupRoutes(deps *RouterDeps) *gin.Engine {
	cfg := deps.Config

	if config.IsProduction(cfg) {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(RequestIDMiddleware())
	router.Use(RequestLogMiddleware())
	router.Use(I18nMiddleware())
	router.Use(SecurityHeadersMiddleware())
	router.Use(CORSMiddleware(cfg.CORS.AllowedOrigins))
	router.Use(ErrorHandlerMiddleware())
	if cfg.RateLimit.RPS > 0 {
		router.Use(RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}
	if cfg.Tracing.Enabled {
		router.Use(TracingMiddleware())
	}

	healthController := NewHealthController(deps.DB, deps.Cache)
	router.GET("/health", healthController.Check)

	router.GET("/metrics", MetricsHandler)

	taskController := NewTaskController(deps.TaskService)
	userController := NewUserController(deps.UserService, deps.Resolver)
	feedController := NewFeedController(deps.FeedService)

	apiGroup := router.Group("/api")
	{
		tasks := apiGroup.Group("/tasks")
		{
			tasks.POST("", taskController.CreateTask)
			tasks.GET("", taskController.ListTasks)
			// Registered before /:id so "hours-report" is never read as a task id.
			tasks.GET("/hours-report/:managerId", taskController.HoursReport)
			tasks.GET("/:id", taskController.GetTask)
			tasks.PATCH("/:id", taskController.UpdateTask)
			tasks.PUT("/:id", taskController.UpdateTask)
			tasks.DELETE("/:id", taskController.DeleteTask)
			tasks.GET("/:id/subtasks", taskController.ListSubtasks)
			tasks.GET("/:id/tree", taskController.GetTaskTree)
			tasks.POST("/:id/log-hours", taskController.LogHours)
		}

		apiGroup.GET("/notifications", feedController.ListNotifications)
		apiGroup.GET("/posts", feedController.ListPosts)

		users := apiGroup.Group("/users")
		// Directory sync is machine-to-machine; it requires a service token
		// when a signing secret is configured.
		if cfg.Auth.JWTSecret != "" {
			users.Use(BearerAuthMiddleware(cfg.Auth.JWTSecret))
		}
		{
			users.POST("/sync", userController.SyncUser)
			users.GET("/resolve/:identifier", userController.ResolveIdentifier)
			users.GET("/:id", userController.GetUser)
			users.POST("/:id/link-firebase", userController.LinkFirebase)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   T(c, "error.route_not_found"),
		})
	})

	return router
}
