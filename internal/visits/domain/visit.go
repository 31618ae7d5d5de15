package domain

import (
	"time"

	"github.com/google/uuid"
)

// Visit is the aggregate root of the visits bounded context.
// StatusID always references a member of the visit_status catalog
// group. ActualStart and ActualEnd are written once by the engine and
// never cleared.
type Visit struct {
	ID           uuid.UUID
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
	ActualStart  *time.Time
	ActualEnd    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TransitionLogEntry is one immutable row of a visit's status history.
// PreviousStatusID is nil only for the very first entry.
type TransitionLogEntry struct {
	ID               uuid.UUID
	VisitID          uuid.UUID
	AuthorID         uuid.UUID
	PreviousStatusID *int
	NewStatusID      int
	Note             *string
	CreatedAt        time.Time
}

// HistoryEntry is a log entry with catalog codes resolved for display.
type HistoryEntry struct {
	ID           uuid.UUID `json:"id"`
	AuthorID     uuid.UUID `json:"authorId"`
	PreviousCode *string   `json:"previousStatus,omitempty"`
	NewCode      string    `json:"newStatus"`
	NewLabel     string    `json:"newStatusLabel"`
	Note         *string   `json:"note,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Evidence is an append-only attachment reference owned by a visit.
type Evidence struct {
	ID          uuid.UUID
	VisitID     uuid.UUID
	UploadedBy  uuid.UUID
	URL         string
	Description *string
	CreatedAt   time.Time
}

// ObservationVisibility tags who may see an observation.
type ObservationVisibility string

const (
	VisibilityInternal ObservationVisibility = "internal"
	VisibilityPublic   ObservationVisibility = "public"
	VisibilityClient   ObservationVisibility = "client"
)

// ParseObservationVisibility validates a raw visibility tag.
func ParseObservationVisibility(raw string) (ObservationVisibility, bool) {
	switch ObservationVisibility(raw) {
	case VisibilityInternal, VisibilityPublic, VisibilityClient:
		return ObservationVisibility(raw), true
	default:
		return "", false
	}
}

// Observation is an append-only note owned by a visit.
type Observation struct {
	ID         uuid.UUID
	VisitID    uuid.UUID
	AuthorID   uuid.UUID
	Content    string
	Visibility ObservationVisibility
	CreatedAt  time.Time
}

// ClosureSummary holds the mandatory completion content for a visit.
// At most one exists per visit; completion upserts it.
type ClosureSummary struct {
	VisitID       uuid.UUID
	Summary       string
	WorkPerformed string
	StartedAt     *time.Time
	EndedAt       *time.Time
	NotifiedTo    *string
	NotifiedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
