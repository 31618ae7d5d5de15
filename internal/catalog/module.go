// Package catalog provides the read-only catalog module.
package catalog

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"fieldops_backend/internal/catalog/handler"
	"fieldops_backend/internal/catalog/repository"
	"fieldops_backend/internal/catalog/resolver"
	apphttp "fieldops_backend/internal/http"
	"fieldops_backend/platform/logger"
)

// Module wires the catalog repository, resolver and handler.
type Module struct {
	handler  *handler.Handler
	resolver *resolver.Resolver
}

// NewModule creates a new catalog module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	repo := repository.New(pool)
	return &Module{
		handler:  handler.New(repo, log),
		resolver: resolver.New(repo),
	}
}

// Resolver exposes the code/id resolver for other modules.
func (m *Module) Resolver() *resolver.Resolver {
	return m.resolver
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "catalog"
}

// RegisterRoutes registers the module's routes under /api/v1/catalog.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/catalog"))
}

var _ apphttp.Module = (*Module)(nil)
