package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ridehail/internal/auth"
)

const (
	callerUIDKey  = "callerUID"
	callerRoleKey = "callerRole"
)

// Auth verifies the bearer token and stores the caller identity on the
// context. Requests without a valid token are rejected with 401.
func Auth(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated", "reason": "missing bearer token"})
			return
		}

		id, err := verifier.Verify(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated", "reason": "invalid token"})
			return
		}

		c.Set(callerUIDKey, id.UID)
		c.Set(callerRoleKey, id.Role)
		c.Next()
	}
}

// CallerUID returns the authenticated caller, or "" outside Auth.
func CallerUID(c *gin.Context) string {
	return c.GetString(callerUIDKey)
}

// CallerRole returns the role claim of the authenticated caller, if any.
func CallerRole(c *gin.Context) string {
	return c.GetString(callerRoleKey)
}
