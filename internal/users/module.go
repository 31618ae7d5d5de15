// Package users wires the user directory feature.
package users

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "fieldops_backend/internal/http"
	"fieldops_backend/internal/users/handler"
	"fieldops_backend/internal/users/repository"
	"fieldops_backend/platform/logger"
)

// Module bundles the users feature.
type Module struct {
	handler *handler.Handler
	repo    *repository.Repo
}

// NewModule assembles the users module.
func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	repo := repository.New(pool)
	return &Module{
		handler: handler.New(repo, log),
		repo:    repo,
	}
}

// Name identifies the module.
func (m *Module) Name() string { return "users" }

// Repository exposes the directory for other modules. It satisfies the
// visits team reader.
func (m *Module) Repository() *repository.Repo { return m.repo }

// RegisterRoutes mounts the user endpoints.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/users")
	m.handler.RegisterRoutes(group)
}
