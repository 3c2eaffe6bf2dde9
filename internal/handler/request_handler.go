package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-help-api/internal/dto"
	"github.com/noah-isme/academic-help-api/internal/middleware"
	"github.com/noah-isme/academic-help-api/internal/models"
	"github.com/noah-isme/academic-help-api/internal/service"
	appErrors "github.com/noah-isme/academic-help-api/pkg/errors"
	"github.com/noah-isme/academic-help-api/pkg/response"
)

type requestService interface {
	Create(ctx context.Context, actor models.Identity, input dto.CreateServiceRequest) (*models.ServiceRequest, error)
	Get(ctx context.Context, actor models.Identity, id string) (*models.ServiceRequest, error)
	ListByOwner(ctx context.Context, actor models.Identity, ownerID string, page, pageSize int) (models.Page[models.ServiceRequest], error)
	ListAll(ctx context.Context, actor models.Identity, page, pageSize int, status string) (models.Page[models.ServiceRequest], error)
	UpdateContent(ctx context.Context, actor models.Identity, id string, patch dto.UpdateServiceRequest) (*models.ServiceRequest, error)
	UpdateStatus(ctx context.Context, actor models.Identity, id string, input dto.UpdateRequestStatus) (*models.ServiceRequest, error)
	Delete(ctx context.Context, actor models.Identity, id string) error
	Statistics(ctx context.Context, actor models.Identity, ownerID string) (models.RequestStatistics, bool, error)
	History(ctx context.Context, actor models.Identity, id string) ([]models.StatusHistoryEntry, error)
}

type reportService interface {
	Generate(ctx context.Context, actor models.Identity, format, status string) (*service.ExportResult, error)
}

// RequestHandler exposes the service request lifecycle over HTTP.
type RequestHandler struct {
	service requestService
	reports reportService
}

// NewRequestHandler constructs the handler. A nil reports service disables exports.
func NewRequestHandler(svc requestService, reports reportService) *RequestHandler {
	return &RequestHandler{service: svc, reports: reports}
}

// Create godoc
// @Summary Submit a service request
// @Tags Requests
// @Accept json
// @Produce json
// @Param payload body dto.CreateServiceRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /requests [post]
func (h *RequestHandler) Create(c *gin.Context) {
	identity, ok := actor(c)
	if !ok {
		return
	}
	var payload dto.CreateServiceRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, bindError(err, "invalid request payload"))
		return
	}
	created, err := h.service.Create(c.Request.Context(), identity, payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created, "Pengajuan berhasil dibuat")
}

// ListAll godoc
// @Summary List all service requests
// @Tags Requests
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Param status query string false "Status filter"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /requests [get]
func (h *RequestHandler) ListAll(c *gin.Context) {
	identity, ok := actor(c)
	if !ok {
		return
	}
	page, err := h.service.ListAll(c.Request.Context(), identity, queryInt(c, "page"), queryInt(c, "limit"), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page, "")
}

// ListMine godoc
// @Summary List the caller's service requests
// @Tags Requests
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} response.Envelope
// @Router /requests/mine [get]
func (h *RequestHandler) ListMine(c *gin.Context) {
	identity, ok := actor(c)
	if !ok {
		return
	}
	h.listByOwner(c, identity, identity.ID)
}

// ListByUser godoc
// @Summary List one user's service requests
// @Tags Requests
// @Produce json
// @Param userId path string true "Owner ID"
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /users/{userId}/requests [get]
func (h *RequestHandler) ListByUser(c *gin.Context) {
	identity, ok := actor(c)
	if !ok {
		return
	}
	h.listByOwner(c, identity, c.Param("userId"))
}

func (h *RequestHandler) listByOwner(c *gin.Context, identity models.Identity, ownerID string) {
	page, err := h.service.ListByOwner(c.Request.Context(), identity, ownerID, queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page, "")
}

// Statistics godoc
// @Summary Request counts per status
// @Description Students always receive their own counts; reviewers may scope by userId.
// @Tags Requests
// @Produce json
// @Param userId query string false "Owner ID"
// @Success 200 {object} response.Envelope
// @Router /requests/statistics [get]
func (h *RequestHandler) Statistics(c *gin.Context) {
	identity, ok := actor(c)
	if !ok {
		return
	}
	stats, cacheHit, err := h.service.Statistics(c.Request.Context(), identity, c.Query("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	scope := strings.TrimSpace(c.Query("userId"))
	if identity.Role == models.RoleStudent {
		scope = identity.ID
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, dto.StatisticsResponse{RequestStatistics: stats, OwnerID: scope}, "", middleware.ExtractMeta(c))
}

// Export godoc
// @Summary Export requests as CSV or PDF
// @Tags Requests
// @Produce octet-stream
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Param status query string false "Status filter"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /requests/export [get]
func (h *RequestHandler) Export(c *gin.Context) {
	identity, ok := actor(c)
	if !ok {
		return
	}
	if h.reports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "exports are disabled"))
		return
	}
	result, err := h.reports.Generate(c.Request.Context(), identity, c.Query("format"), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, result.Filename, result.ContentType, result.Payload)
}

// Get godoc
// @Summary Get a service request
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /requests/{id} [get]
func (h *RequestHandler) Get(c *gin.Context) {
	identity, ok := actor(c)
	if !ok {
		return
	}
	req, err := h.service.Get(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, req, "")
}

// UpdateContent godoc
// @Summary Edit a pending request
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.UpdateServiceRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id} [patch]
func (h *RequestHandler) UpdateContent(c *gin.Context) {
	identity, ok := actor(c)
	if !ok {
		return
	}
	var patch dto.UpdateServiceRequest
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, bindError(err, "invalid update payload"))
		return
	}
	updated, err := h.service.UpdateContent(c.Request.Context(), identity, c.Param("id"), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, "Pengajuan berhasil diperbarui")
}

// UpdateStatus godoc
// @Summary Change a request's status
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.UpdateRequestStatus true "Target status and notes"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /requests/{id}/status [patch]
func (h *RequestHandler) UpdateStatus(c *gin.Context) {
	identity, ok := actor(c)
	if !ok {
		return
	}
	var payload dto.UpdateRequestStatus
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, bindError(err, "invalid status payload"))
		return
	}
	updated, err := h.service.UpdateStatus(c.Request.Context(), identity, c.Param("id"), payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, "Status pengajuan berhasil diperbarui")
}

// Delete godoc
// @Summary Delete a pending request
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id} [delete]
func (h *RequestHandler) Delete(c *gin.Context) {
	identity, ok := actor(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), identity, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"id": c.Param("id")}, "Pengajuan berhasil dihapus")
}

// History godoc
// @Summary Status history of a request
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /requests/{id}/history [get]
func (h *RequestHandler) History(c *gin.Context) {
	identity, ok := actor(c)
	if !ok {
		return
	}
	entries, err := h.service.History(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, "")
}
