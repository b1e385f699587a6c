package api

import (
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/metrics"
	"github.com/gin-gonic/gin"
)

// MetricsHandler serves the Prometheus scrape endpoint.
func MetricsHandler(c *gin.Context) {
	metrics.Handler().ServeHTTP(c.Writer, c.Request)
}
