package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	domainevents "fieldops_backend/internal/events"
	"fieldops_backend/internal/visits/domain"
	"fieldops_backend/internal/visits/repository"
	"fieldops_backend/platform/apperr"
	"fieldops_backend/platform/events"
)

// ClosureNotification is the payload handed to the notification
// transport when a visit closes.
type ClosureNotification struct {
	To            string
	ClientName    string
	VisitTitle    string
	Summary       string
	WorkPerformed string
	StartedAt     *time.Time
	EndedAt       *time.Time
	Evidence      []domain.Evidence
}

// ClosureNotifier delivers the closure notification. Implementations
// own their timeout and retry behavior; the engine treats delivery as
// fire-and-forget with a captured outcome.
type ClosureNotifier interface {
	NotifyClosure(ctx context.Context, n ClosureNotification) error
}

// CompleteInput is the administrative completion payload.
type CompleteInput struct {
	Summary       string
	WorkPerformed string
}

// NotificationOutcome reports the best-effort delivery result.
type NotificationOutcome struct {
	Attempted bool `json:"attempted"`
	Delivered bool `json:"delivered"`
}

// CompleteResult is the completion response.
type CompleteResult struct {
	OK           bool                `json:"ok"`
	Notification NotificationOutcome `json:"notification"`
}

// CompleteAndNotify runs the completion transition and the closure
// upsert in one transaction, then attempts the client notification
// after commit. Delivery failure is reported in the result but never
// rolls back the completion.
func (s *Service) CompleteAndNotify(ctx context.Context, actor domain.Actor, visitID uuid.UUID, input CompleteInput) (CompleteResult, error) {
	if actor.Role != domain.RoleAdmin {
		return CompleteResult{}, apperr.Forbidden("administrator role required")
	}

	detail, err := s.repo.GetDetail(ctx, visitID)
	if err != nil {
		return CompleteResult{}, err
	}
	visit := detail.Visit

	if err := domain.ValidateClosingNote(input.Summary); err != nil {
		return CompleteResult{}, err
	}

	currentEntry, err := s.catalog.ResolveCode(ctx, visit.StatusID)
	if err != nil {
		return CompleteResult{}, err
	}
	if err := domain.ValidateTransition(currentEntry.Code, domain.StatusCompleted); err != nil {
		return CompleteResult{}, err
	}
	completedID, err := s.catalog.ResolveID(ctx, domain.GroupStatus, domain.StatusCompleted)
	if err != nil {
		return CompleteResult{}, err
	}

	note := input.Summary
	effects := domain.FlowEffects(domain.StatusCompleted, visit.ActualStart != nil)
	_, err = s.repo.ApplyTransition(ctx, repository.TransitionParams{
		VisitID:          visitID,
		ExpectedStatusID: visit.StatusID,
		NewStatusID:      completedID,
		AuthorID:         actor.ID,
		Note:             &note,
		SetActualStart:   effects.SetActualStart,
		SetActualEnd:     effects.SetActualEnd,
	}, &repository.ClosureParams{
		Summary:       input.Summary,
		WorkPerformed: input.WorkPerformed,
	})
	if err != nil {
		return CompleteResult{}, err
	}

	s.log.VisitTransition(visitID.String(), actor.ID.String(), currentEntry.Code, domain.StatusCompleted)
	s.bus.Publish(ctx, domainevents.VisitCompleted{
		BaseEvent:    events.NewBaseEvent(),
		VisitID:      visitID,
		AuthorID:     actor.ID,
		TechnicianID: visit.TechnicianID,
		Summary:      input.Summary,
	})

	outcome := s.notifyClosure(ctx, visitID, detail, input)
	return CompleteResult{OK: true, Notification: outcome}, nil
}

// Closure returns the closure summary when one exists, nil otherwise.
// Used by read-only projections that tolerate its absence.
func (s *Service) Closure(ctx context.Context, visitID uuid.UUID) *domain.ClosureSummary {
	cs, err := s.repo.GetClosure(ctx, visitID)
	if err != nil {
		return nil
	}
	return &cs
}

// notifyClosure runs after the completion commit: it gathers the
// notification projection, attempts delivery, and records the outcome
// in an independent update. Every failure here is non-fatal.
func (s *Service) notifyClosure(ctx context.Context, visitID uuid.UUID, detail repository.Detail, input CompleteInput) NotificationOutcome {
	if s.notifier == nil {
		return NotificationOutcome{}
	}

	var contact repository.ClientContact
	var evidence []domain.Evidence
	var closure domain.ClosureSummary

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		contact, err = s.repo.GetClientContact(gctx, visitID)
		return err
	})
	g.Go(func() error {
		var err error
		evidence, err = s.repo.ListEvidence(gctx, visitID)
		return err
	})
	g.Go(func() error {
		var err error
		closure, err = s.repo.GetClosure(gctx, visitID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.NotificationFailure(visitID.String(), "", err)
		return NotificationOutcome{}
	}

	if contact.Email == nil || *contact.Email == "" {
		s.log.Debug("closure notification skipped, client has no email", "visit_id", visitID.String())
		return NotificationOutcome{}
	}

	destination := *contact.Email
	err := s.notifier.NotifyClosure(ctx, ClosureNotification{
		To:            destination,
		ClientName:    contact.Name,
		VisitTitle:    detail.Visit.Title,
		Summary:       input.Summary,
		WorkPerformed: input.WorkPerformed,
		StartedAt:     closure.StartedAt,
		EndedAt:       closure.EndedAt,
		Evidence:      evidence,
	})
	if err != nil {
		s.log.NotificationFailure(visitID.String(), destination, err)
		return NotificationOutcome{Attempted: true, Delivered: false}
	}

	if err := s.repo.MarkClosureNotified(ctx, visitID, destination, time.Now()); err != nil {
		s.log.Warn("failed to record notification delivery", "visit_id", visitID.String(), "error", err.Error())
	}
	return NotificationOutcome{Attempted: true, Delivered: true}
}
