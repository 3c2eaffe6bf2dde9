package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-help-api/internal/models"
	"github.com/noah-isme/academic-help-api/pkg/response"
)

type catalogService interface {
	List(ctx context.Context, onlyAvailable bool) []models.AcademicService
	Get(ctx context.Context, id string) (*models.AcademicService, error)
}

// CatalogHandler lists the academic services students can request.
type CatalogHandler struct {
	service catalogService
}

func NewCatalogHandler(svc catalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// List godoc
// @Summary List academic services
// @Tags Services
// @Produce json
// @Param available query bool false "Only services open for requests"
// @Success 200 {object} response.Envelope
// @Router /services [get]
func (h *CatalogHandler) List(c *gin.Context) {
	onlyAvailable := strings.EqualFold(c.Query("available"), "true")
	response.JSON(c, http.StatusOK, h.service.List(c.Request.Context(), onlyAvailable), "")
}

// Get godoc
// @Summary Get an academic service
// @Tags Services
// @Produce json
// @Param id path string true "Service ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /services/{id} [get]
func (h *CatalogHandler) Get(c *gin.Context) {
	svc, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, svc, "")
}
