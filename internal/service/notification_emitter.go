package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-help-api/internal/models"
	"github.com/noah-isme/academic-help-api/pkg/jobs"
)

// StatusChangeEvent describes a status change that was committed to the store.
type StatusChangeEvent struct {
	Request   models.ServiceRequest
	From      models.RequestStatus
	To        models.RequestStatus
	ChangedBy string
	At        time.Time
}

// StatusNotifier reacts to committed status changes. Implementations must
// not fail the caller; delivery problems are theirs to handle.
type StatusNotifier interface {
	StatusChanged(ctx context.Context, event StatusChangeEvent)
}

type notificationWriter interface {
	Create(ctx context.Context, n *models.Notification) error
}

type notificationPublisher interface {
	PublishUser(ctx context.Context, n models.Notification) error
}

// NotificationEmitter turns status changes into owner notifications. With a
// queue configured delivery happens on a worker pool with retries; otherwise
// it runs inline.
type NotificationEmitter struct {
	store     notificationWriter
	publisher notificationPublisher
	metrics   *MetricsService
	logger    *zap.Logger
	queue     *jobs.Queue[models.Notification]
}

// EmitterOption customises a NotificationEmitter.
type EmitterOption func(*NotificationEmitter)

// WithPublisher pushes every stored notification to a realtime channel.
func WithPublisher(p notificationPublisher) EmitterOption {
	return func(e *NotificationEmitter) { e.publisher = p }
}

// WithEmitterMetrics records delivery outcomes.
func WithEmitterMetrics(m *MetricsService) EmitterOption {
	return func(e *NotificationEmitter) { e.metrics = m }
}

// WithAsyncDelivery moves delivery onto a worker pool.
func WithAsyncDelivery(cfg jobs.QueueConfig) EmitterOption {
	return func(e *NotificationEmitter) {
		if cfg.Logger == nil {
			cfg.Logger = e.logger
		}
		e.queue = jobs.NewQueue[models.Notification]("notifications", e.handle, cfg)
	}
}

// NewNotificationEmitter constructs an emitter writing to store.
func NewNotificationEmitter(store notificationWriter, logger *zap.Logger, opts ...EmitterOption) *NotificationEmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &NotificationEmitter{store: store, logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start launches the delivery workers when async delivery is configured.
func (e *NotificationEmitter) Start(ctx context.Context) {
	if e.queue != nil {
		e.queue.Start(ctx)
	}
}

// Stop drains pending deliveries until ctx expires.
func (e *NotificationEmitter) Stop(ctx context.Context) {
	if e.queue != nil {
		e.queue.Stop(ctx)
	}
}

// StatusChanged implements StatusNotifier.
func (e *NotificationEmitter) StatusChanged(ctx context.Context, event StatusChangeEvent) {
	n := BuildStatusNotification(event)
	if e.queue != nil {
		if err := e.queue.TryEnqueue(n.ID, n); err != nil {
			e.metrics.RecordNotification(false)
			e.logger.Warn("notification dropped", zap.String("request_id", event.Request.ID), zap.Error(err))
		}
		return
	}
	if err := e.deliver(context.WithoutCancel(ctx), n); err != nil {
		e.logger.Warn("notification delivery failed", zap.String("request_id", event.Request.ID), zap.Error(err))
	}
}

func (e *NotificationEmitter) handle(ctx context.Context, job jobs.Job[models.Notification]) error {
	return e.deliver(ctx, job.Payload)
}

// deliver stores n and publishes it. Only the store write is retried; a
// failed publish is logged because the notification is already persisted.
func (e *NotificationEmitter) deliver(ctx context.Context, n models.Notification) error {
	if err := e.store.Create(ctx, &n); err != nil {
		e.metrics.RecordNotification(false)
		return fmt.Errorf("store notification: %w", err)
	}
	e.metrics.RecordNotification(true)
	if e.publisher != nil {
		if err := e.publisher.PublishUser(ctx, n); err != nil {
			e.logger.Warn("notification publish failed", zap.String("notification_id", n.ID), zap.Error(err))
		}
	}
	return nil
}

// BuildStatusNotification renders the owner notification for a status change.
func BuildStatusNotification(event StatusChangeEvent) models.Notification {
	title, kind := "Update Status Pengajuan", models.NotificationInfo
	switch event.To {
	case models.RequestStatusApproved:
		title, kind = "Pengajuan Disetujui", models.NotificationSuccess
	case models.RequestStatusRejected:
		title, kind = "Pengajuan Ditolak", models.NotificationError
	case models.RequestStatusCompleted:
		title, kind = "Pengajuan Selesai", models.NotificationSuccess
	}

	subject := event.Request.ServiceName
	if subject == "" {
		subject = event.Request.Title
	}
	message := fmt.Sprintf("Status pengajuan %s Anda berubah menjadi %q", subject, event.To.Label())
	if event.Request.Notes != nil && strings.TrimSpace(*event.Request.Notes) != "" {
		message += ". Catatan: " + *event.Request.Notes
	}

	at := event.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	requestID := event.Request.ID
	return models.Notification{
		ID:               "notif-" + uuid.NewString(),
		UserID:           event.Request.OwnerID,
		Title:            title,
		Message:          message,
		Type:             kind,
		RelatedRequestID: &requestID,
		CreatedAt:        at,
	}
}
