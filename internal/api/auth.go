package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ServiceClaims are the claims expected on service bearer tokens issued
// to the directory-sync caller.
type ServiceClaims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// BearerAuthMiddleware validates an HMAC-signed bearer token and stores
// the caller identity on the context. Protects the directory-sync surface.
func BearerAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			c.JSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   T(c, "error.unauthorized"),
			})
			c.Abort()
			return
		}

		token = strings.TrimPrefix(token, "Bearer ")

		claims := &ServiceClaims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !parsed.Valid {
			c.JSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   T(c, "error.unauthorized"),
			})
			c.Abort()
			return
		}

		c.Set("user_id", claims.Sub)
		c.Set("email", claims.Email)

		c.Next()
	}
}
