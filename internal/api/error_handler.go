package api

import (
	"github.com/gin-gonic/gin"
)

// ErrorHandlerMiddleware catches errors attached to the gin context by
// handlers that return without writing a response, and panics recovered
// by gin, translating both into the envelope.
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last().Err
			HandleServiceError(c, err)
		}
	}
}
