package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-help-api/internal/models"
	"github.com/noah-isme/academic-help-api/internal/service"
	appErrors "github.com/noah-isme/academic-help-api/pkg/errors"
	"github.com/noah-isme/academic-help-api/pkg/logger"
	"github.com/noah-isme/academic-help-api/pkg/response"
)

// ContextUserKey is the gin context key storing the resolved models.Identity.
const ContextUserKey = "currentUser"

// Authenticate resolves the bearer credential through provider and stores
// the identity on the context. Requests without a usable credential stop here.
func Authenticate(provider service.IdentityProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential, err := bearer(c.GetHeader("Authorization"))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		identity, err := provider.Resolve(c.Request.Context(), credential)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, identity)
		c.Set(logger.IdentityKey, identity.ID)
		c.Next()
	}
}

// CurrentIdentity returns the identity stored by Authenticate.
func CurrentIdentity(c *gin.Context) (models.Identity, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return models.Identity{}, false
	}
	identity, ok := value.(models.Identity)
	return identity, ok && identity.ID != ""
}

func bearer(header string) (string, error) {
	if header == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}
