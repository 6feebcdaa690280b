package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taitanx/media-delivery-backend/internal/services/quota"
)

// AdminKeyMiddleware guards the admin route group
type AdminKeyMiddleware struct {
	quotaService *quota.Service
}

// NewAdminKeyMiddleware creates a new admin key middleware
func NewAdminKeyMiddleware(quotaService *quota.Service) *AdminKeyMiddleware {
	return &AdminKeyMiddleware{
		quotaService: quotaService,
	}
}

// RequireAdmin validates the caller's API key and requires the admin tier.
// The key is read from the X-API-Key header or the api_key query parameter.
func (m *AdminKeyMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("X-API-Key")
		if token == "" {
			token = c.Query("api_key")
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "X-API-Key header is required",
			})
			c.Abort()
			return
		}

		key, err := m.quotaService.Validate(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   err.Error(),
			})
			c.Abort()
			return
		}

		if !key.IsAdmin() {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "Admin privileges required",
			})
			c.Abort()
			return
		}

		c.Set("user_id", key.UserID)
		c.Set("is_admin", true)

		c.Next()
	}
}
