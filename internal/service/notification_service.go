package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-help-api/internal/models"
	appErrors "github.com/noah-isme/academic-help-api/pkg/errors"
)

type notificationRepository interface {
	FindByID(ctx context.Context, id string) (*models.Notification, error)
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, id string) error
}

// NotificationService lets recipients read and manage their notifications.
type NotificationService struct {
	repo    notificationRepository
	logger  *zap.Logger
	timeout time.Duration
}

// NotificationServiceOption customises a NotificationService.
type NotificationServiceOption func(*NotificationService)

// WithNotificationTimeout bounds every notification store call.
func WithNotificationTimeout(d time.Duration) NotificationServiceOption {
	return func(s *NotificationService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(repo notificationRepository, logger *zap.Logger, opts ...NotificationServiceOption) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{repo: repo, logger: logger, timeout: defaultOperationTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the actor's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, actor models.Identity, unreadOnly bool) ([]models.Notification, error) {
	var items []models.Notification
	if err := s.call(ctx, func(ctx context.Context) (err error) {
		items, err = s.repo.List(ctx, models.NotificationFilter{UserID: actor.ID, UnreadOnly: unreadOnly})
		return err
	}); err != nil {
		return nil, s.translate(err, "failed to list notifications")
	}
	if items == nil {
		items = []models.Notification{}
	}
	return items, nil
}

// UnreadCount counts the actor's unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, actor models.Identity) (int, error) {
	var count int
	if err := s.call(ctx, func(ctx context.Context) (err error) {
		count, err = s.repo.CountUnread(ctx, actor.ID)
		return err
	}); err != nil {
		return 0, s.translate(err, "failed to count notifications")
	}
	return count, nil
}

// MarkRead flags one of the actor's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, actor models.Identity, id string) (*models.Notification, error) {
	n, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if n.IsRead {
		return n, nil
	}
	if err := s.call(ctx, func(ctx context.Context) error {
		return s.repo.MarkRead(ctx, id)
	}); err != nil {
		return nil, s.translate(err, "failed to update notification")
	}
	n.IsRead = true
	return n, nil
}

// MarkAllRead flags every unread notification of the actor and returns the count.
func (s *NotificationService) MarkAllRead(ctx context.Context, actor models.Identity) (int, error) {
	var count int
	if err := s.call(ctx, func(ctx context.Context) (err error) {
		count, err = s.repo.MarkAllRead(ctx, actor.ID)
		return err
	}); err != nil {
		return 0, s.translate(err, "failed to update notifications")
	}
	return count, nil
}

// Delete removes one of the actor's notifications.
func (s *NotificationService) Delete(ctx context.Context, actor models.Identity, id string) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.call(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, id)
	}); err != nil {
		return s.translate(err, "failed to delete notification")
	}
	return nil
}

func (s *NotificationService) owned(ctx context.Context, actor models.Identity, id string) (*models.Notification, error) {
	var n *models.Notification
	if err := s.call(ctx, func(ctx context.Context) (err error) {
		n, err = s.repo.FindByID(ctx, id)
		return err
	}); err != nil {
		return nil, s.translate(err, "failed to load notification")
	}
	if n.UserID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "notification belongs to another user")
	}
	return n, nil
}

// call runs one store operation under the operation timeout.
func (s *NotificationService) call(ctx context.Context, fn func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	err := fn(callCtx)
	if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return context.DeadlineExceeded
	}
	return err
}

func (s *NotificationService) translate(err error, message string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return appErrors.Wrap(err, appErrors.ErrTimeout.Code, appErrors.ErrTimeout.Status, "notification store did not respond in time")
	}
	s.logger.Error(message, zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
