package dto

import "github.com/noah-isme/academic-help-api/internal/models"

// CreateServiceRequest is the payload a student submits for a new request.
type CreateServiceRequest struct {
	ServiceID   string   `json:"serviceId" validate:"required,max=64"`
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"required,min=10,max=5000"`
	Priority    string   `json:"priority" validate:"omitempty,oneof=low medium high"`
	Attachments []string `json:"attachments" validate:"max=10,dive,required,max=255"`
}

// UpdateServiceRequest patches the owner-editable fields; omitted fields are kept.
type UpdateServiceRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,min=10,max=5000"`
	Priority    *string `json:"priority" validate:"omitempty,oneof=low medium high"`
}

// Empty reports whether the patch carries no field.
func (u UpdateServiceRequest) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Priority == nil
}

// UpdateRequestStatus asks for a lifecycle transition.
type UpdateRequestStatus struct {
	Status string `json:"status" validate:"required"`
	Notes  string `json:"notes" validate:"max=1000"`
}

// RequestListQuery captures listing query parameters.
type RequestListQuery struct {
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
	Status string `form:"status"`
	Format string `form:"format"`
	UserID string `form:"userId"`
}

// StatisticsResponse wraps statistics with the scope they were computed for.
type StatisticsResponse struct {
	models.RequestStatistics
	OwnerID string `json:"userId,omitempty"`
}
