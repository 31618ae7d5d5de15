// Package visits provides the visit lifecycle module: scoped listing,
// the status state machine, the audit trail and the completion flow.
package visits

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "fieldops_backend/internal/http"
	"fieldops_backend/internal/storage"
	"fieldops_backend/internal/visits/handler"
	"fieldops_backend/internal/visits/repository"
	"fieldops_backend/internal/visits/service"
	"fieldops_backend/platform/events"
	"fieldops_backend/platform/httpkit"
	"fieldops_backend/platform/logger"
)

// Module wires the visits repository, service and handler.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new visits module with all dependencies wired.
// The notifier may be nil when no transport is configured; completion
// then reports {attempted:false, delivered:false}.
func NewModule(pool *pgxpool.Pool, teams service.TeamReader, catalog service.CatalogResolver, notifier service.ClosureNotifier, bus events.Bus, log *logger.Logger, geofenceMeters float64) *Module {
	repo := repository.New(pool)
	scoper := service.NewScoper(teams)
	svc := service.New(repo, scoper, catalog, notifier, bus, log, geofenceMeters)
	return &Module{
		handler: handler.New(svc, log),
		service: svc,
	}
}

// Service exposes the visits service for other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// SetStorage injects object storage for evidence presigning.
func (m *Module) SetStorage(svc storage.StorageService, bucket string) {
	m.handler.SetStorage(svc, bucket)
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "visits"
}

// RegisterRoutes registers the module's routes under /api/v1/visits.
// Override and completion share the prefix but require the admin role.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/visits")
	m.handler.RegisterRoutes(group)
	m.handler.RegisterReportRoutes(group)
	m.handler.RegisterPresignRoutes(group)

	adminGroup := ctx.Protected.Group("/visits")
	adminGroup.Use(httpkit.RequireRole("admin"))
	m.handler.RegisterAdminRoutes(adminGroup)
}

var _ apphttp.Module = (*Module)(nil)
