package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/academic-help-api/internal/models"
)

// UserChannel names the pub/sub channel carrying one user's notifications.
func UserChannel(userID string) string {
	return "notifications:user:" + userID
}

// NotificationPublisher pushes notifications onto per-user Redis channels so
// connected clients receive them without polling.
type NotificationPublisher struct {
	rdb *redis.Client
}

// NewNotificationPublisher creates a publisher; a nil client disables publishing.
func NewNotificationPublisher(rdb *redis.Client) *NotificationPublisher {
	return &NotificationPublisher{rdb: rdb}
}

// PublishUser sends the notification to its recipient's channel.
func (p *NotificationPublisher) PublishUser(ctx context.Context, n models.Notification) error {
	if p.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification %s: %w", n.ID, err)
	}
	if err := p.rdb.Publish(ctx, UserChannel(n.UserID), payload).Err(); err != nil {
		return fmt.Errorf("publish notification %s: %w", n.ID, err)
	}
	return nil
}
