package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionRequestCreate       = "REQUEST_CREATE"
	AuditActionRequestUpdate       = "REQUEST_UPDATE"
	AuditActionRequestStatusChange = "REQUEST_STATUS_CHANGE"
	AuditActionRequestDelete       = "REQUEST_DELETE"
)

// AuditResourceRequest names service requests in audit entries.
const AuditResourceRequest = "service_request"

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"userId,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resourceId,omitempty"`
	OldValues  []byte    `db:"old_values" json:"oldValues,omitempty"`
	NewValues  []byte    `db:"new_values" json:"newValues,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ipAddress"`
	UserAgent  string    `db:"user_agent" json:"userAgent"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// StatusHistoryEntry is one effective status change of a request.
type StatusHistoryEntry struct {
	From      RequestStatus `json:"from"`
	To        RequestStatus `json:"to"`
	ChangedBy string        `json:"changedBy"`
	Notes     string        `json:"notes,omitempty"`
	ChangedAt time.Time     `json:"changedAt"`
}
