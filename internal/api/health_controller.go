package api

import (
	"net/http"
	"time"

	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/cache"
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/database"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HealthController reports backend health. The cache is advisory: an
// unreachable Redis degrades performance, not correctness, so it never
// flips the overall status.
type HealthController struct {
	db    *gorm.DB
	cache cache.Store
}

// NewHealthController creates a health controller.
func NewHealthController(db *gorm.DB, store cache.Store) *HealthController {
	return &HealthController{db: db, cache: store}
}

// Check handles GET /health.
func (c *HealthController) Check(ctx *gin.Context) {
	status := "healthy"
	checks := make(map[string]string)

	if c.db != nil {
		if database.CheckHealth(c.db) {
			checks["database"] = "healthy"
		} else {
			status = "unhealthy"
			checks["database"] = "unhealthy"
		}
	} else {
		checks["database"] = "not configured"
	}

	if c.cache != nil {
		probe := "health:probe"
		c.cache.Set(ctx.Request.Context(), probe, "ok", 10*time.Second)
		if _, ok := c.cache.Get(ctx.Request.Context(), probe); ok {
			checks["cache"] = "healthy"
		} else {
			checks["cache"] = "degraded"
		}
	} else {
		checks["cache"] = "not configured"
	}

	httpStatus := http.StatusOK
	if status == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	ctx.JSON(httpStatus, gin.H{
		"status":    status,
		"timestamp": time.Now().Unix(),
		"checks":    checks,
	})
}
