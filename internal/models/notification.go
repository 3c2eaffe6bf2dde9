package models

import "time"

// NotificationType drives how a client renders a notification.
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

// Notification is a read/unread message addressed to one user.
type Notification struct {
	ID               string           `db:"id" json:"id"`
	UserID           string           `db:"user_id" json:"userId"`
	Title            string           `db:"title" json:"title"`
	Message          string           `db:"message" json:"message"`
	Type             NotificationType `db:"type" json:"type"`
	RelatedRequestID *string          `db:"related_request_id" json:"relatedRequestId,omitempty"`
	IsRead           bool             `db:"is_read" json:"isRead"`
	CreatedAt        time.Time        `db:"created_at" json:"createdAt"`
}

// NotificationFilter constrains notification listings.
type NotificationFilter struct {
	UserID     string
	UnreadOnly bool
}
