// Package handler exposes the user directory endpoints.
package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fieldops_backend/internal/users/repository"
	"fieldops_backend/internal/visits/domain"
	"fieldops_backend/platform/httpkit"
	"fieldops_backend/platform/logger"
)

// Handler serves the users routes.
type Handler struct {
	repo *repository.Repo
	log  *logger.Logger
}

// New creates a users handler.
func New(repo *repository.Repo, log *logger.Logger) *Handler {
	return &Handler{repo: repo, log: log}
}

// RegisterRoutes mounts the user endpoints on the given group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/technicians", h.ListTechnicians)
	rg.GET("/me", h.Me)
}

// ListTechnicians lists active technicians. Supervisors only see their
// own team.
func (h *Handler) ListTechnicians(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	role, err := domain.ParseRole(identity.Role())
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}

	var supervisorID *uuid.UUID
	if role == domain.RoleSupervisor {
		id := identity.UserID()
		supervisorID = &id
	}

	technicians, err := h.repo.ListTechnicians(c.Request.Context(), supervisorID)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, technicians)
}

// Me returns the authenticated user's directory entry.
func (h *Handler) Me(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)

	user, err := h.repo.GetByID(c.Request.Context(), identity.UserID())
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, user)
}
