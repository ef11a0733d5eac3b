package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const bearerKey = "bearerToken"

// RequireBearer rejects requests without an "Authorization: Bearer" header
// and keeps the token for handlers that call the backend on the user's behalf.
func RequireBearer() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}
		c.Set(bearerKey, token)
		c.Next()
	}
}

// BearerToken returns the token stored by RequireBearer.
func BearerToken(c *gin.Context) string {
	return c.GetString(bearerKey)
}
