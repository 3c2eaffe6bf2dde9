package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/academic-help-api/pkg/errors"
)

// Envelope represents the common response contract shared with the web client.
type Envelope struct {
	Success bool                   `json:"success"`
	Data    interface{}            `json:"data,omitempty"`
	Message string                 `json:"message,omitempty"`
	Errors  []string               `json:"errors,omitempty"`
	Meta    map[string]interface{} `json:"meta,omitempty"`
}

// JSON sends a success response with an optional message and metadata.
func JSON(c *gin.Context, status int, data interface{}, message string, meta ...map[string]interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	envelope := Envelope{Success: true, Data: data, Message: message}
	if len(meta) > 0 && len(meta[0]) > 0 {
		envelope.Meta = meta[0]
	}
	c.JSON(status, envelope)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}, message string) {
	JSON(c, http.StatusCreated, data, message)
}

// Error sends an error response converting the error to the common structure.
// The message and codes of typed errors reach the client verbatim.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	if appErr.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, Envelope{
		Success: false,
		Message: appErr.Message,
		Errors:  appErr.Codes(),
	})
}

// File streams a binary payload as an attachment.
func File(c *gin.Context, filename, contentType string, payload []byte) {
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, contentType, payload)
}
