// Package handler exposes the authentication endpoints.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fieldops_backend/internal/auth/service"
	"fieldops_backend/internal/auth/transport"
	"fieldops_backend/platform/httpkit"
	"fieldops_backend/platform/logger"
	"fieldops_backend/platform/validator"
)

// Handler handles HTTP requests for authentication.
type Handler struct {
	svc *service.Service
	log *logger.Logger
}

// New creates a new auth handler.
func New(svc *service.Service, log *logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// RegisterRoutes registers the auth routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/login", h.Login)
}

// Login authenticates a user and returns an access token.
func (h *Handler) Login(c *gin.Context) {
	var req transport.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, httpkit.ErrorResponse{
			Error:   "validation failed",
			Details: validator.Format(err),
		})
		return
	}

	result, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}

	httpkit.OK(c, transport.LoginResponse{
		AccessToken: result.AccessToken,
		TokenType:   "Bearer",
		User: transport.User{
			ID:       result.UserID,
			FullName: result.FullName,
			Role:     result.Role,
		},
	})
}
