package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-help-api/internal/middleware"
	"github.com/noah-isme/academic-help-api/internal/models"
	"github.com/noah-isme/academic-help-api/internal/service"
)

// Handlers bundles the handlers mounted under the API prefix. Auth is nil
// when development tokens are disabled.
type Handlers struct {
	Auth          *AuthHandler
	Catalog       *CatalogHandler
	Requests      *RequestHandler
	Notifications *NotificationHandler
	Metrics       *MetricsHandler
}

// RegisterRoutes mounts the API on group. Every route except the dev token
// endpoint requires an identity resolved by identities.
func RegisterRoutes(group *gin.RouterGroup, h Handlers, identities service.IdentityProvider) {
	if h.Auth != nil {
		group.POST("/auth/dev-token", h.Auth.DevToken)
	}

	secured := group.Group("")
	secured.Use(middleware.Authenticate(identities), middleware.ClientContext(), middleware.WithResponseMeta())
	reviewers := middleware.RequireRoles(models.RoleAdmin, models.RoleReviewer)

	secured.GET("/services", h.Catalog.List)
	secured.GET("/services/:id", h.Catalog.Get)

	requests := secured.Group("/requests")
	requests.POST("", middleware.RequireRoles(models.RoleStudent), h.Requests.Create)
	requests.GET("", reviewers, h.Requests.ListAll)
	requests.GET("/mine", h.Requests.ListMine)
	requests.GET("/statistics", h.Requests.Statistics)
	requests.GET("/export", reviewers, h.Requests.Export)
	requests.GET("/:id", h.Requests.Get)
	requests.PATCH("/:id", h.Requests.UpdateContent)
	requests.DELETE("/:id", h.Requests.Delete)
	requests.PATCH("/:id/status", reviewers, h.Requests.UpdateStatus)
	requests.GET("/:id/history", h.Requests.History)

	secured.GET("/users/:userId/requests", h.Requests.ListByUser)

	notifications := secured.Group("/notifications")
	notifications.GET("", h.Notifications.List)
	notifications.GET("/unread-count", h.Notifications.UnreadCount)
	notifications.POST("/read-all", h.Notifications.MarkAllRead)
	notifications.PATCH("/:id/read", h.Notifications.MarkRead)
	notifications.DELETE("/:id", h.Notifications.Delete)

	if h.Metrics != nil {
		secured.GET("/system/metrics", middleware.RequireRoles(models.RoleAdmin), h.Metrics.Summary)
	}
}
