// Package handler exposes read-only catalog endpoints.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fieldops_backend/internal/catalog/repository"
	"fieldops_backend/platform/httpkit"
	"fieldops_backend/platform/logger"
)

// Handler handles HTTP requests for the catalog.
type Handler struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new catalog handler.
func New(repo repository.Repository, log *logger.Logger) *Handler {
	return &Handler{repo: repo, log: log}
}

// RegisterRoutes registers the catalog routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:group", h.ListGroup)
}

// ListGroup returns the entries of one catalog group.
func (h *Handler) ListGroup(c *gin.Context) {
	group := c.Param("group")
	entries, err := h.repo.ListGroup(c.Request.Context(), group)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	if entries == nil {
		entries = []repository.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"items": entries})
}
