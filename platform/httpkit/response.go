package httpkit

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fieldops_backend/platform/apperr"
	"fieldops_backend/platform/logger"
)

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// HandleError maps an error to the appropriate HTTP response.
// Application errors carry their own status via apperr.Kind; anything
// else is treated as an internal error and the detail is not exposed.
func HandleError(c *gin.Context, log *logger.Logger, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus()
		if status >= http.StatusInternalServerError {
			log.Error("internal error", "error", err.Error(), "path", c.Request.URL.Path)
			c.JSON(status, ErrorResponse{Error: "internal server error"})
			return
		}
		c.JSON(status, ErrorResponse{Error: appErr.Message, Details: appErr.Details})
		return
	}

	log.Error("unhandled error", "error", err.Error(), "path", c.Request.URL.Path)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// OK writes a 200 response with the given payload.
func OK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// Created writes a 201 response with the given payload.
func Created(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// NoContent writes a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
