package service

import (
	"context"

	"github.com/google/uuid"

	"fieldops_backend/internal/visits/domain"
	"fieldops_backend/internal/visits/repository"
	"fieldops_backend/platform/apperr"
)

// TeamReader resolves a supervisor's active technicians.
type TeamReader interface {
	ActiveTechnicianIDs(ctx context.Context, supervisorID uuid.UUID) ([]uuid.UUID, error)
}

// Scoper computes the visit visibility scope for an actor.
type Scoper struct {
	teams TeamReader
}

// NewScoper creates a scoper backed by the team reader.
func NewScoper(teams TeamReader) *Scoper {
	return &Scoper{teams: teams}
}

// ScopeFor returns the actor's scope: admins see everything,
// supervisors see their active team's visits, technicians see only
// visits assigned to themselves.
func (s *Scoper) ScopeFor(ctx context.Context, actor domain.Actor) (repository.Scope, error) {
	switch actor.Role {
	case domain.RoleAdmin:
		return repository.Scope{All: true}, nil
	case domain.RoleSupervisor:
		team, err := s.teams.ActiveTechnicianIDs(ctx, actor.ID)
		if err != nil {
			return repository.Scope{}, err
		}
		return repository.Scope{TechnicianIDs: team}, nil
	case domain.RoleTechnician:
		return repository.Scope{TechnicianIDs: []uuid.UUID{actor.ID}}, nil
	default:
		return repository.Scope{}, apperr.Forbidden("unknown role")
	}
}
