// Package repository persists visits, their audit trail and closures.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fieldops_backend/internal/visits/domain"
)

// CreateParams holds the fields for a new visit.
type CreateParams struct {
	ClientID     uuid.UUID
	LocationID   *uuid.UUID
	Title        string
	Description  *string
	TechnicianID *uuid.UUID
	CreatedBy    uuid.UUID
	StatusID     int
	PriorityID   *int
	TypeID       *int
	ScheduledAt  *time.Time
	ScheduledEnd *time.Time
}

// Scope restricts which visits an actor may see or touch.
// All=true means unrestricted; otherwise TechnicianIDs is the allowed
// set of assigned-technician ids (a single element for a technician,
// the active team for a supervisor).
type Scope struct {
	All           bool
	TechnicianIDs []uuid.UUID
}

// Allows evaluates the scope against a single visit.
func (s Scope) Allows(v domain.Visit) bool {
	if s.All {
		return true
	}
	if v.TechnicianID == nil {
		return false
	}
	for _, id := range s.TechnicianIDs {
		if *v.TechnicianID == id {
			return true
		}
	}
	return false
}

// ListFilters narrows the visit list.
type ListFilters struct {
	StatusID     *int
	From         *time.Time
	To           *time.Time
	Search       string
	ClientID     *uuid.UUID
	TechnicianID *uuid.UUID
	Page         int
	PageSize     int
}

// ListItem is one row of the visit list projection.
type ListItem struct {
	ID             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	ClientID       uuid.UUID  `json:"clientId"`
	ClientName     string     `json:"clientName"`
	TechnicianID   *uuid.UUID `json:"technicianId,omitempty"`
	TechnicianName *string    `json:"technicianName,omitempty"`
	StatusID       int        `json:"-"`
	PriorityID     *int       `json:"-"`
	ScheduledAt    *time.Time `json:"scheduledAt,omitempty"`
	ScheduledEnd   *time.Time `json:"scheduledEnd,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Detail is the full visit projection with joined names and counts.
type Detail struct {
	Visit            domain.Visit
	ClientName       string
	ClientEmail      *string
	LocationLabel    *string
	LocationCoords   *domain.Coordinates
	TechnicianName   *string
	EvidenceCount    int
	ObservationCount int
}

// TransitionParams applies one status change plus its audit entry as a
// single atomic unit. ExpectedStatusID guards against lost updates:
// the write succeeds only if the visit still has that status.
type TransitionParams struct {
	VisitID          uuid.UUID
	ExpectedStatusID int
	NewStatusID      int
	AuthorID         uuid.UUID
	Note             *string
	SetActualStart   bool
	SetActualEnd     bool
}

// ClosureParams upserts the closure summary alongside a completion.
type ClosureParams struct {
	Summary       string
	WorkPerformed string
}

// AddEvidenceParams appends an evidence reference.
type AddEvidenceParams struct {
	VisitID     uuid.UUID
	UploadedBy  uuid.UUID
	URL         string
	Description *string
}

// AddObservationParams appends an observation.
type AddObservationParams struct {
	VisitID    uuid.UUID
	AuthorID   uuid.UUID
	Content    string
	Visibility domain.ObservationVisibility
}

// ClientContact is the notification destination projection.
type ClientContact struct {
	Name  string
	Email *string
}

// Repository is the persistence port of the visits bounded context.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Visit, error)
	GetDetail(ctx context.Context, id uuid.UUID) (Detail, error)
	List(ctx context.Context, scope Scope, filters ListFilters) ([]ListItem, int, error)

	// ApplyTransition updates the status and appends the audit entry in
	// one transaction. Returns apperr.Conflict when the conditional
	// write matches no row. A non-nil closure is upserted in the same
	// transaction (completion path).
	ApplyTransition(ctx context.Context, params TransitionParams, closure *ClosureParams) (domain.TransitionLogEntry, error)

	ListTransitions(ctx context.Context, visitID uuid.UUID) ([]domain.TransitionLogEntry, error)
	AddEvidence(ctx context.Context, params AddEvidenceParams) (uuid.UUID, error)
	ListEvidence(ctx context.Context, visitID uuid.UUID) ([]domain.Evidence, error)
	AddObservation(ctx context.Context, params AddObservationParams) (uuid.UUID, error)
	ListObservations(ctx context.Context, visitID uuid.UUID) ([]domain.Observation, error)

	GetClosure(ctx context.Context, visitID uuid.UUID) (domain.ClosureSummary, error)
	MarkClosureNotified(ctx context.Context, visitID uuid.UUID, destination string, at time.Time) error
	GetClientContact(ctx context.Context, visitID uuid.UUID) (ClientContact, error)
}
