// Package clients wires the client management feature.
package clients

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"fieldops_backend/internal/clients/handler"
	"fieldops_backend/internal/clients/repository"
	"fieldops_backend/internal/clients/service"
	apphttp "fieldops_backend/internal/http"
	"fieldops_backend/platform/logger"
)

// Module bundles the clients feature.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule assembles the clients module.
func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo)
	return &Module{
		handler: handler.New(svc, log),
		service: svc,
	}
}

// Name identifies the module.
func (m *Module) Name() string { return "clients" }

// Service exposes the clients service for other modules.
func (m *Module) Service() *service.Service { return m.service }

// RegisterRoutes mounts the client endpoints.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/clients")
	m.handler.RegisterRoutes(group)
}
