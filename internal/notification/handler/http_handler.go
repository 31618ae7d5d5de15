// Package handler exposes the in-app notification endpoints.
package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fieldops_backend/internal/notification/inapp"
	"fieldops_backend/platform/apperr"
	"fieldops_backend/platform/httpkit"
	"fieldops_backend/platform/logger"
)

// HTTPHandler serves the notification routes.
type HTTPHandler struct {
	svc *inapp.Service
	log *logger.Logger
}

// NewHTTPHandler creates a notification handler.
func NewHTTPHandler(svc *inapp.Service, log *logger.Logger) *HTTPHandler {
	return &HTTPHandler{svc: svc, log: log}
}

// RegisterRoutes mounts the notification endpoints on the given group.
func (h *HTTPHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/unread", h.CountUnread)
	rg.PATCH("/:id/read", h.MarkRead)
	rg.PATCH("/read-all", h.MarkAllRead)
}

// List returns a page of the caller's notifications.
func (h *HTTPHandler) List(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	items, total, err := h.svc.List(c.Request.Context(), identity.UserID(), page, limit)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, gin.H{"items": items, "total": total, "page": page})
}

// CountUnread returns the caller's unread notification count.
func (h *HTTPHandler) CountUnread(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)

	count, err := h.svc.CountUnread(c.Request.Context(), identity.UserID())
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, gin.H{"count": count})
}

// MarkRead flags one notification as read.
func (h *HTTPHandler) MarkRead(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid notification id"))
		return
	}

	if err := h.svc.MarkRead(c.Request.Context(), identity.UserID(), id); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, gin.H{"status": "ok"})
}

// MarkAllRead flags all of the caller's notifications as read.
func (h *HTTPHandler) MarkAllRead(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)

	if err := h.svc.MarkAllRead(c.Request.Context(), identity.UserID()); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, gin.H{"status": "ok"})
}
