package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/fasalvaidya/crop-health/internal/api/response"
)

// RequireRole returns middleware that enforces role-based access control
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleInterface, exists := c.Get(KeyRole)
		if !exists {
			response.Forbidden(c, "user role not found in context")
			c.Abort()
			return
		}

		userRole, ok := roleInterface.(string)
		if !ok {
			response.Forbidden(c, "invalid role format")
			c.Abort()
			return
		}

		for _, allowedRole := range allowedRoles {
			if userRole == allowedRole {
				c.Next()
				return
			}
		}

		response.Forbidden(c, "insufficient permissions")
		c.Abort()
	}
}
