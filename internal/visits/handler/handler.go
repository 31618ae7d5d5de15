// Package handler exposes the visits HTTP endpoints.
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fieldops_backend/internal/storage"
	"fieldops_backend/internal/visits/domain"
	"fieldops_backend/internal/visits/service"
	"fieldops_backend/internal/visits/transport"
	"fieldops_backend/platform/httpkit"
	"fieldops_backend/platform/logger"
	"fieldops_backend/platform/validator"
)

const msgInvalidRequest = "invalid request"

// Handler handles HTTP requests for visits.
type Handler struct {
	svc            *service.Service
	log            *logger.Logger
	storage        storage.StorageService
	evidenceBucket string
}

// New creates a new visits handler.
func New(svc *service.Service, log *logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// RegisterRoutes registers the visit routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
	rg.POST("/:id/transition", h.Transition)
	rg.GET("/:id/history", h.History)
	rg.GET("/:id/evidence", h.ListEvidence)
	rg.POST("/:id/evidence", h.AddEvidence)
	rg.GET("/:id/observations", h.ListObservations)
	rg.POST("/:id/observations", h.AddObservation)
}

// RegisterAdminRoutes registers the administrator-only visit routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/:id/override-status", h.OverrideStatus)
	rg.POST("/:id/complete", h.Complete)
}

// actorFrom resolves the canonical role once per request.
func (h *Handler) actorFrom(c *gin.Context) (domain.Actor, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return domain.Actor{}, false
	}
	role, err := domain.ParseRole(identity.Role())
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return domain.Actor{}, false
	}
	return domain.Actor{ID: identity.UserID(), Role: role}, true
}

func (h *Handler) visitID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpkit.ErrorResponse{Error: "invalid visit id"})
		return uuid.Nil, false
	}
	return id, true
}

// List returns the scoped, filtered visit list.
func (h *Handler) List(c *gin.Context) {
	actor, ok := h.actorFrom(c)
	if !ok {
		return
	}

	input := service.ListInput{
		StatusCode: c.Query("status"),
		Search:     c.Query("search"),
	}
	if v := c.Query("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			input.From = &t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			input.To = &t
		}
	}
	if v := c.Query("clientId"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			input.ClientID = &id
		}
	}
	if v := c.Query("technicianId"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			input.TechnicianID = &id
		}
	}
	input.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	input.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	items, meta, err := h.svc.List(c.Request.Context(), actor, input)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, gin.H{"items": items, "meta": meta})
}

// Create registers a new visit.
func (h *Handler) Create(c *gin.Context) {
	actor, ok := h.actorFrom(c)
	if !ok {
		return
	}

	var req transport.CreateVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpkit.ErrorResponse{
			Error:   msgInvalidRequest,
			Details: validator.Format(err),
		})
		return
	}

	id, err := h.svc.Create(c.Request.Context(), actor, service.CreateInput{
		ClientID:     req.ClientID,
		LocationID:   req.LocationID,
		Title:        req.Title,
		Description:  req.Description,
		TechnicianID: req.TechnicianID,
		StatusCode:   req.Status,
		PriorityCode: req.Priority,
		TypeCode:     req.Type,
		ScheduledAt:  req.ScheduledAt,
		ScheduledEnd: req.ScheduledEnd,
	})
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.Created(c, gin.H{"id": id})
}

// GetByID returns the full visit projection.
func (h *Handler) GetByID(c *gin.Context) {
	actor, ok := h.actorFrom(c)
	if !ok {
		return
	}
	id, ok := h.visitID(c)
	if !ok {
		return
	}

	out, err := h.svc.GetDetail(c.Request.Context(), actor, id)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, transport.NewVisitDetail(out))
}

// Transition applies a technician-flow status change.
func (h *Handler) Transition(c *gin.Context) {
	actor, ok := h.actorFrom(c)
	if !ok {
		return
	}
	id, ok := h.visitID(c)
	if !ok {
		return
	}

	var req transport.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, httpkit.ErrorResponse{
			Error:   "validation failed",
			Details: validator.Format(err),
		})
		return
	}

	out, err := h.svc.Transition(c.Request.Context(), actor, id, service.TransitionInput{
		StatusCode: req.Status,
		Note:       req.Note,
		Reported:   req.Reported(),
	})
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, gin.H{"status": out.Status.Code, "history": out.History})
}

// OverrideStatus applies an administrative status change by id.
func (h *Handler) OverrideStatus(c *gin.Context) {
	actor, ok := h.actorFrom(c)
	if !ok {
		return
	}
	id, ok := h.visitID(c)
	if !ok {
		return
	}

	var req transport.OverrideStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpkit.ErrorResponse{
			Error:   msgInvalidRequest,
			Details: validator.Format(err),
		})
		return
	}

	err := h.svc.OverrideStatus(c.Request.Context(), actor, id, service.OverrideInput{
		StatusID: req.StatusID,
		Note:     req.Note,
	})
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, gin.H{"ok": true})
}

// History returns the visit's audit trail.
func (h *Handler) History(c *gin.Context) {
	actor, ok := h.actorFrom(c)
	if !ok {
		return
	}
	id, ok := h.visitID(c)
	if !ok {
		return
	}

	history, err := h.svc.History(c.Request.Context(), actor, id)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, gin.H{"items": history})
}

// ListEvidence returns a visit's evidence.
func (h *Handler) ListEvidence(c *gin.Context) {
	actor, ok := h.actorFrom(c)
	if !ok {
		return
	}
	id, ok := h.visitID(c)
	if !ok {
		return
	}

	items, err := h.svc.ListEvidence(c.Request.Context(), actor, id)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, gin.H{"items": transport.NewEvidenceItems(items)})
}

// AddEvidence appends an evidence reference.
func (h *Handler) AddEvidence(c *gin.Context) {
	actor, ok := h.actorFrom(c)
	if !ok {
		return
	}
	id, ok := h.visitID(c)
	if !ok {
		return
	}

	var req transport.EvidenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, httpkit.ErrorResponse{
			Error:   "validation failed",
			Details: validator.Format(err),
		})
		return
	}

	evidenceID, err := h.svc.AddEvidence(c.Request.Context(), actor, id, service.EvidenceInput{
		URL:         req.URL,
		Description: req.Description,
	})
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.Created(c, gin.H{"id": evidenceID})
}

// ListObservations returns a visit's observations.
func (h *Handler) ListObservations(c *gin.Context) {
	actor, ok := h.actorFrom(c)
	if !ok {
		return
	}
	id, ok := h.visitID(c)
	if !ok {
		return
	}

	items, err := h.svc.ListObservations(c.Request.Context(), actor, id)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, gin.H{"items": transport.NewObservationItems(items)})
}

// AddObservation appends an observation.
func (h *Handler) AddObservation(c *gin.Context) {
	actor, ok := h.actorFrom(c)
	if !ok {
		return
	}
	id, ok := h.visitID(c)
	if !ok {
		return
	}

	var req transport.ObservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, httpkit.ErrorResponse{
			Error:   "validation failed",
			Details: validator.Format(err),
		})
		return
	}

	observationID, err := h.svc.AddObservation(c.Request.Context(), actor, id, service.ObservationInput{
		Content:    req.Content,
		Visibility: req.Visibility,
	})
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.Created(c, gin.H{"id": observationID})
}

// Complete finishes a visit and attempts the client notification.
func (h *Handler) Complete(c *gin.Context) {
	actor, ok := h.actorFrom(c)
	if !ok {
		return
	}
	id, ok := h.visitID(c)
	if !ok {
		return
	}

	var req transport.CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpkit.ErrorResponse{
			Error:   msgInvalidRequest,
			Details: validator.Format(err),
		})
		return
	}

	result, err := h.svc.CompleteAndNotify(c.Request.Context(), actor, id, service.CompleteInput{
		Summary:       req.Summary,
		WorkPerformed: req.WorkPerformed,
	})
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, result)
}
