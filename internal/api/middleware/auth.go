package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fasalvaidya/crop-health/internal/api/response"
	"github.com/fasalvaidya/crop-health/internal/config"
	"github.com/fasalvaidya/crop-health/pkg/auth"
)

// Context keys set by AuthMiddleware.
const (
	KeyFarmerID = "farmer_id"
	KeyUserID   = "user_id"
	KeyRole     = "role"
)

// AuthMiddleware validates JWT tokens from the Authorization header
func AuthMiddleware(cfg *config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			response.Unauthorized(c, "invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(strings.TrimPrefix(authHeader, bearerPrefix), cfg.Secret)
		if err != nil {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}

		c.Set(KeyFarmerID, claims.FarmerID)
		c.Set(KeyUserID, claims.UserID)
		c.Set(KeyRole, claims.Role)

		c.Next()
	}
}

// FarmerID returns the farmer the request is scoped to. ok is false on
// routes not behind AuthMiddleware.
func FarmerID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(KeyFarmerID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// UserID returns the authenticated user.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(KeyUserID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
