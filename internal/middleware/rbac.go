package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-help-api/internal/models"
	appErrors "github.com/noah-isme/academic-help-api/pkg/errors"
	"github.com/noah-isme/academic-help-api/pkg/response"
)

// RequireRoles rejects identities whose role is not listed. Ownership is
// checked by the services; this only guards whole route groups.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[identity.Role]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "role "+string(identity.Role)+" may not access this resource"))
			c.Abort()
			return
		}
		c.Next()
	}
}
