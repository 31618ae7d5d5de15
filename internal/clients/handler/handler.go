// Package handler exposes the client management HTTP endpoints.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fieldops_backend/internal/clients/repository"
	"fieldops_backend/internal/clients/service"
	"fieldops_backend/internal/clients/transport"
	"fieldops_backend/internal/visits/domain"
	"fieldops_backend/platform/apperr"
	"fieldops_backend/platform/httpkit"
	"fieldops_backend/platform/logger"
	"fieldops_backend/platform/validator"
)

// Handler serves the clients routes.
type Handler struct {
	svc *service.Service
	log *logger.Logger
}

// New creates a clients handler.
func New(svc *service.Service, log *logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// RegisterRoutes mounts the client endpoints on the given group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PATCH("/:id", h.Update)
	rg.POST("/:id/locations", h.AddLocation)
}

func actorFrom(c *gin.Context) (domain.Actor, error) {
	identity := httpkit.MustGetIdentity(c)
	role, err := domain.ParseRole(identity.Role())
	if err != nil {
		return domain.Actor{}, err
	}
	return domain.Actor{ID: identity.UserID(), Role: role}, nil
}

func clientID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.BadRequest("invalid client id")
	}
	return id, nil
}

// Create registers a new client.
func (h *Handler) Create(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}

	var req transport.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, httpkit.ErrorResponse{
			Error:   "validation failed",
			Details: validator.Format(err),
		})
		return
	}

	client, err := h.svc.Create(c.Request.Context(), actor, repository.CreateClientParams{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		Notes: req.Notes,
	})
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.Created(c, client)
}

// Update patches a client.
func (h *Handler) Update(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	id, err := clientID(c)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}

	var req transport.UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, httpkit.ErrorResponse{
			Error:   "validation failed",
			Details: validator.Format(err),
		})
		return
	}

	client, err := h.svc.Update(c.Request.Context(), actor, repository.UpdateClientParams{
		ID:    id,
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		Notes: req.Notes,
	})
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, client)
}

// Get returns one client with its locations.
func (h *Handler) Get(c *gin.Context) {
	id, err := clientID(c)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}

	client, locations, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, transport.ClientDetail{Client: client, Locations: locations})
}

// List returns a page of clients.
func (h *Handler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	search := c.Query("search")

	clients, total, err := h.svc.List(c.Request.Context(), search, page, pageSize)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	httpkit.OK(c, transport.ClientListResponse{Items: clients, Total: total, Page: page, PageSize: pageSize})
}

// AddLocation attaches a service address to a client.
func (h *Handler) AddLocation(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	id, err := clientID(c)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}

	var req transport.CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, httpkit.ErrorResponse{
			Error:   "validation failed",
			Details: validator.Format(err),
		})
		return
	}

	location, err := h.svc.AddLocation(c.Request.Context(), actor, repository.CreateLocationParams{
		ClientID:  id,
		Label:     req.Label,
		Address:   req.Address,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.Created(c, location)
}
