package rbac

import (
	"net/http"

	"voice-campaigns/internal/auth"

	"github.com/gin-gonic/gin"
)

// RequireAnyRole allows access if the caller has any of the provided roles.
func RequireAnyRole(allowed ...string) gin.HandlerFunc {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		id, ok := auth.FromContext(c.Request.Context())
		if !ok || id.Role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "role required"})
			return
		}
		if _, ok := allowedSet[id.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// ReadOnlyUnlessOperator lets every known role read (GET, HEAD) and only
// operators write.
func ReadOnlyUnlessOperator() gin.HandlerFunc {
	readers := RequireAnyRole(RoleOperator, RoleViewer)
	writers := RequireAnyRole(RoleOperator)
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead:
			readers(c)
		default:
			writers(c)
		}
	}
}
