package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-help-api/internal/service"
)

// ClientContext copies the caller's address and user agent into the request
// context so audit entries written by the services can carry them.
func ClientContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := service.ContextWithClientInfo(c.Request.Context(), service.ClientInfo{
			IP:        c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
