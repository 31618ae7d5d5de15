// Package events defines the domain events for the visits lifecycle.
package events

import (
	"time"

	"github.com/google/uuid"

	"fieldops_backend/platform/events"
)

// Event names.
const (
	VisitCreatedName      = "visit.created"
	VisitTransitionedName = "visit.transitioned"
	VisitCompletedName    = "visit.completed"
	VisitReminderDueName  = "visit.reminder_due"
)

// VisitCreated is published after a visit is persisted.
type VisitCreated struct {
	events.BaseEvent
	VisitID      uuid.UUID
	Title        string
	TechnicianID *uuid.UUID
	CreatedBy    uuid.UUID
}

// EventName returns the event identifier.
func (e VisitCreated) EventName() string { return VisitCreatedName }

// VisitTransitioned is published after a status change commits.
type VisitTransitioned struct {
	events.BaseEvent
	VisitID      uuid.UUID
	AuthorID     uuid.UUID
	FromCode     string
	ToCode       string
	TechnicianID *uuid.UUID
}

// EventName returns the event identifier.
func (e VisitTransitioned) EventName() string { return VisitTransitionedName }

// VisitCompleted is published after the completion transaction commits.
type VisitCompleted struct {
	events.BaseEvent
	VisitID      uuid.UUID
	AuthorID     uuid.UUID
	TechnicianID *uuid.UUID
	Summary      string
}

// EventName returns the event identifier.
func (e VisitCompleted) EventName() string { return VisitCompletedName }

// VisitReminderDue is published by the scheduler worker when an
// upcoming visit's reminder fires.
type VisitReminderDue struct {
	events.BaseEvent
	VisitID      uuid.UUID
	Title        string
	TechnicianID *uuid.UUID
	ScheduledAt  *time.Time
}

// EventName returns the event identifier.
func (e VisitReminderDue) EventName() string { return VisitReminderDueName }
