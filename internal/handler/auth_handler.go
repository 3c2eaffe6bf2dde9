package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-help-api/internal/models"
	"github.com/noah-isme/academic-help-api/pkg/response"
)

type tokenIssuer interface {
	IssueDevToken(ctx context.Context, req models.DevTokenRequest) (*models.TokenResponse, error)
}

// AuthHandler issues development tokens. Real sign-in happens at the campus
// identity provider.
type AuthHandler struct {
	service tokenIssuer
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc tokenIssuer) *AuthHandler {
	return &AuthHandler{service: svc}
}

// DevToken godoc
// @Summary Issue a development access token
// @Description Only available outside production.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.DevTokenRequest true "Identity to sign"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /auth/dev-token [post]
func (h *AuthHandler) DevToken(c *gin.Context) {
	var req models.DevTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid token request"))
		return
	}
	res, err := h.service.IssueDevToken(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, "")
}
