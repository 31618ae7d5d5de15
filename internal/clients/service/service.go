// Package service holds client management business rules.
package service

import (
	"context"

	"github.com/google/uuid"

	"fieldops_backend/internal/clients/repository"
	"fieldops_backend/internal/visits/domain"
	"fieldops_backend/platform/apperr"
	"fieldops_backend/platform/phone"
)

// Service manages clients and their locations.
type Service struct {
	repo repository.Repository
}

// New creates a clients service.
func New(repo repository.Repository) *Service {
	return &Service{repo: repo}
}

func requireManager(actor domain.Actor) error {
	if actor.Role != domain.RoleAdmin && actor.Role != domain.RoleSupervisor {
		return apperr.Forbidden("insufficient role")
	}
	return nil
}

func normalizePhone(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	normalized, err := phone.NormalizeE164(*raw)
	if err != nil {
		return nil, apperr.Validation("invalid phone number")
	}
	if normalized == "" {
		return nil, nil
	}
	return &normalized, nil
}

// Create registers a new client.
func (s *Service) Create(ctx context.Context, actor domain.Actor, params repository.CreateClientParams) (repository.Client, error) {
	if err := requireManager(actor); err != nil {
		return repository.Client{}, err
	}
	normalized, err := normalizePhone(params.Phone)
	if err != nil {
		return repository.Client{}, err
	}
	params.Phone = normalized
	return s.repo.Create(ctx, params)
}

// Update patches an existing client.
func (s *Service) Update(ctx context.Context, actor domain.Actor, params repository.UpdateClientParams) (repository.Client, error) {
	if err := requireManager(actor); err != nil {
		return repository.Client{}, err
	}
	normalized, err := normalizePhone(params.Phone)
	if err != nil {
		return repository.Client{}, err
	}
	params.Phone = normalized
	return s.repo.Update(ctx, params)
}

// Get returns one client with its locations.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.Client, []repository.Location, error) {
	client, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return repository.Client{}, nil, err
	}
	locations, err := s.repo.ListLocations(ctx, id)
	if err != nil {
		return repository.Client{}, nil, err
	}
	return client, locations, nil
}

// List returns a page of clients.
func (s *Service) List(ctx context.Context, search string, page, pageSize int) ([]repository.Client, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return s.repo.List(ctx, search, page, pageSize)
}

// AddLocation attaches a location to a client.
func (s *Service) AddLocation(ctx context.Context, actor domain.Actor, params repository.CreateLocationParams) (repository.Location, error) {
	if err := requireManager(actor); err != nil {
		return repository.Location{}, err
	}
	if (params.Latitude == nil) != (params.Longitude == nil) {
		return repository.Location{}, apperr.Validation("latitude and longitude must be provided together")
	}
	if _, err := s.repo.GetByID(ctx, params.ClientID); err != nil {
		return repository.Location{}, err
	}
	return s.repo.AddLocation(ctx, params)
}
