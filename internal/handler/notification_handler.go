package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-help-api/internal/dto"
	"github.com/noah-isme/academic-help-api/internal/models"
	"github.com/noah-isme/academic-help-api/pkg/response"
)

type notificationService interface {
	List(ctx context.Context, actor models.Identity, unreadOnly bool) ([]models.Notification, error)
	UnreadCount(ctx context.Context, actor models.Identity) (int, error)
	MarkRead(ctx context.Context, actor models.Identity, id string) (*models.Notification, error)
	MarkAllRead(ctx context.Context, actor models.Identity) (int, error)
	Delete(ctx context.Context, actor models.Identity, id string) error
}

// NotificationHandler serves the caller's notification inbox.
type NotificationHandler struct {
	service notificationService
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(svc notificationService) *NotificationHandler {
	return &NotificationHandler{service: svc}
}

// List godoc
// @Summary List notifications
// @Tags Notifications
// @Produce json
// @Param unreadOnly query bool false "Only unread"
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	identity, ok := actor(c)
	if !ok {
		return
	}
	var query dto.NotificationListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid query parameters"))
		return
	}
	items, err := h.service.List(c.Request.Context(), identity, query.UnreadOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, "")
}

// UnreadCount godoc
// @Summary Count unread notifications
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	identity, ok := actor(c)
	if !ok {
		return
	}
	count, err := h.service.UnreadCount(c.Request.Context(), identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.UnreadCountResponse{Count: count}, "")
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /notifications/{id}/read [patch]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	identity, ok := actor(c)
	if !ok {
		return
	}
	n, err := h.service.MarkRead(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, n, "")
}

// MarkAllRead godoc
// @Summary Mark every notification as read
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	identity, ok := actor(c)
	if !ok {
		return
	}
	updated, err := h.service.MarkAllRead(c.Request.Context(), identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.MarkAllReadResponse{Updated: updated}, "")
}

// Delete godoc
// @Summary Delete a notification
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 200 {object} response.Envelope
// @Router /notifications/{id} [delete]
func (h *NotificationHandler) Delete(c *gin.Context) {
	identity, ok := actor(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), identity, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"id": c.Param("id")}, "")
}
