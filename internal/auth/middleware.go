package auth

import (
	"net/http"
	"strings"
	"time"

	"voice-campaigns/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RequireAccessToken verifies the bearer token and stores the caller's
// Identity on the request context. The request logger gains user_id and role.
// Role checks belong to internal/rbac.
func RequireAccessToken(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, tok, found := strings.Cut(strings.TrimSpace(c.GetHeader("Authorization")), " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tok) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := m.Verify(strings.TrimSpace(tok), time.Now())
		if err != nil {
			logger.FromGin(c).Debug("token rejected", "err", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		id := Identity{UserID: claims.UserID, Role: claims.Role}
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
		logger.SetGin(c, logger.FromGin(c).With("user_id", id.UserID, "role", id.Role))
		c.Next()
	}
}
