package middleware

import (
	"errors"
	"net/http"
	"strings"

	"go-jobalert-scheduler/internal/delivery/http/response"
	"go-jobalert-scheduler/internal/domain"
	"go-jobalert-scheduler/pkg/auth"
	"go-jobalert-scheduler/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestID tags every request with an id, reusing the caller's X-Request-ID when present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(string(domain.KeyRequestID), id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// AdminAuth accepts only bearer tokens issued by the scheduler with the admin role.
func AdminAuth(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		if tokenString == "" {
			response.Error(c, http.StatusUnauthorized, "Authorization header required", nil)
			c.Abort()
			return
		}

		claims, err := tokens.Verify(tokenString)
		if err != nil {
			if errors.Is(err, auth.ErrNoSecret) {
				logger.Log.Error("Admin API called but ADMIN_JWT_SECRET is not configured")
				response.Error(c, http.StatusServiceUnavailable, "Admin API is not configured", nil)
				c.Abort()
				return
			}
			logger.Log.Warn("Admin token rejected", "error", err, "path", c.FullPath())
			response.Error(c, http.StatusUnauthorized, "Invalid token", nil)
			c.Abort()
			return
		}

		if claims.Role != domain.RoleAdmin {
			response.Error(c, http.StatusForbidden, "Admin role required", nil)
			c.Abort()
			return
		}

		c.Set(string(domain.KeySubject), claims.Subject)
		c.Set(string(domain.KeyRole), claims.Role)
		c.Next()
	}
}
