package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-help-api/internal/middleware"
	"github.com/noah-isme/academic-help-api/internal/models"
	appErrors "github.com/noah-isme/academic-help-api/pkg/errors"
	"github.com/noah-isme/academic-help-api/pkg/response"
)

// actor returns the authenticated identity, writing a 401 when absent.
func actor(c *gin.Context) (models.Identity, bool) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.Identity{}, false
	}
	return identity, true
}

// queryInt parses an optional integer query parameter; absent or malformed
// values yield zero so the service applies its defaults.
func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil {
		return 0
	}
	return n
}

func bindError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
