package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RequestStatus captures the lifecycle states of a service request.
type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusProcessing RequestStatus = "processing"
	RequestStatusApproved   RequestStatus = "approved"
	RequestStatusRejected   RequestStatus = "rejected"
	RequestStatusCompleted  RequestStatus = "completed"
)

// RequestStatuses lists every recognised status in lifecycle order.
var RequestStatuses = []RequestStatus{
	RequestStatusPending,
	RequestStatusProcessing,
	RequestStatusApproved,
	RequestStatusRejected,
	RequestStatusCompleted,
}

// Valid reports whether s is one of the recognised statuses.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusProcessing, RequestStatusApproved,
		RequestStatusRejected, RequestStatusCompleted:
		return true
	}
	return false
}

var statusLabels = map[RequestStatus]string{
	RequestStatusPending:    "Menunggu",
	RequestStatusProcessing: "Diproses",
	RequestStatusApproved:   "Disetujui",
	RequestStatusRejected:   "Ditolak",
	RequestStatusCompleted:  "Selesai",
}

// Label is the display name shown to students.
func (s RequestStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// ParseRequestStatus normalises raw input into a RequestStatus.
func ParseRequestStatus(raw string) (RequestStatus, bool) {
	status := RequestStatus(strings.ToLower(strings.TrimSpace(raw)))
	return status, status.Valid()
}

// RequestPriority ranks how urgent a request is.
type RequestPriority string

const (
	PriorityLow    RequestPriority = "low"
	PriorityMedium RequestPriority = "medium"
	PriorityHigh   RequestPriority = "high"
)

// Valid reports whether p is a known priority.
func (p RequestPriority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Label is the display name of the priority.
func (p RequestPriority) Label() string {
	switch p {
	case PriorityLow:
		return "Rendah"
	case PriorityMedium:
		return "Sedang"
	case PriorityHigh:
		return "Tinggi"
	}
	return string(p)
}

// ServiceCategory groups academic services.
type ServiceCategory string

const (
	CategoryActiveLetter ServiceCategory = "surat-aktif"
	CategoryLeave        ServiceCategory = "cuti"
	CategoryTranscript   ServiceCategory = "transkrip"
	CategoryTransfer     ServiceCategory = "alih-daya"
	CategoryOther        ServiceCategory = "lainnya"
)

// Valid reports whether c is a known category.
func (c ServiceCategory) Valid() bool {
	switch c {
	case CategoryActiveLetter, CategoryLeave, CategoryTranscript, CategoryTransfer, CategoryOther:
		return true
	}
	return false
}

// RequestIDPrefix prefixes every generated request identifier.
const RequestIDPrefix = "REQ-"

// FormatRequestID renders a sequence number as a request identifier, e.g. REQ-004.
func FormatRequestID(seq int64) string {
	return fmt.Sprintf("%s%03d", RequestIDPrefix, seq)
}

// RequestSequence extracts the sequence number from a request identifier.
func RequestSequence(id string) (int64, bool) {
	digits, ok := strings.CutPrefix(id, RequestIDPrefix)
	if !ok {
		return 0, false
	}
	seq, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || seq < 0 {
		return 0, false
	}
	return seq, true
}

// NewerRequestID reports whether a was issued after b. Identifiers that do
// not parse fall back to string order.
func NewerRequestID(a, b string) bool {
	sa, okA := RequestSequence(a)
	sb, okB := RequestSequence(b)
	if okA && okB {
		return sa > sb
	}
	return a > b
}

// ServiceRequest is a student-submitted academic service ticket.
type ServiceRequest struct {
	ID          string          `db:"id" json:"id"`
	OwnerID     string          `db:"owner_id" json:"ownerId"`
	ServiceID   string          `db:"service_id" json:"serviceId"`
	ServiceName string          `db:"service_name" json:"serviceName"`
	Title       string          `db:"title" json:"title"`
	Description string          `db:"description" json:"description"`
	Category    ServiceCategory `db:"category" json:"category"`
	Status      RequestStatus   `db:"status" json:"status"`
	Priority    RequestPriority `db:"priority" json:"priority"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updatedAt"`
	CompletedAt *time.Time      `db:"completed_at" json:"completedAt,omitempty"`
	Notes       *string         `db:"notes" json:"notes,omitempty"`
	ApprovedBy  *string         `db:"approved_by" json:"approvedBy,omitempty"`
	Attachments []string        `db:"-" json:"attachments"`
}

// Clone returns a deep copy so callers never share mutable state with a store.
func (r ServiceRequest) Clone() ServiceRequest {
	clone := r
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		clone.CompletedAt = &t
	}
	if r.Notes != nil {
		n := *r.Notes
		clone.Notes = &n
	}
	if r.ApprovedBy != nil {
		a := *r.ApprovedBy
		clone.ApprovedBy = &a
	}
	clone.Attachments = append([]string{}, r.Attachments...)
	return clone
}

// RequestFilter constrains listing and scan queries.
type RequestFilter struct {
	OwnerID  string
	Status   RequestStatus
	Page     int
	PageSize int
}

// RequestStatistics holds per-status counts over a request collection.
type RequestStatistics struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Approved   int `json:"approved"`
	Rejected   int `json:"rejected"`
	Completed  int `json:"completed"`
}
