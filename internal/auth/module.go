// Package auth provides the authentication module.
package auth

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"fieldops_backend/internal/auth/handler"
	"fieldops_backend/internal/auth/repository"
	"fieldops_backend/internal/auth/service"
	"fieldops_backend/internal/auth/token"
	apphttp "fieldops_backend/internal/http"
	"fieldops_backend/platform/config"
	"fieldops_backend/platform/logger"
)

// Module wires the auth repository, services and handler.
type Module struct {
	handler *handler.Handler
	tokens  *token.Service
}

// NewModule creates a new auth module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, cfg config.AuthServiceConfig, log *logger.Logger) *Module {
	repo := repository.New(pool)
	tokens := token.New(cfg)
	svc := service.New(repo, tokens, log)
	return &Module{
		handler: handler.New(svc, log),
		tokens:  tokens,
	}
}

// Tokens exposes the token service for the router's auth middleware.
func (m *Module) Tokens() *token.Service {
	return m.tokens
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "auth"
}

// RegisterRoutes registers the module's routes under /api/v1/auth.
// Login is public but rate-limited.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	authGroup := ctx.V1.Group("/auth")
	authGroup.Use(ctx.AuthRateLimiter)
	m.handler.RegisterRoutes(authGroup)
}

var _ apphttp.Module = (*Module)(nil)
