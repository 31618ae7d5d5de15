// Package service implements the visit lifecycle use cases.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	catalogrepo "fieldops_backend/internal/catalog/repository"
	domainevents "fieldops_backend/internal/events"
	"fieldops_backend/internal/visits/domain"
	"fieldops_backend/internal/visits/repository"
	"fieldops_backend/platform/apperr"
	"fieldops_backend/platform/events"
	"fieldops_backend/platform/logger"
)

// CatalogResolver translates status/priority/type codes and ids.
type CatalogResolver interface {
	ResolveID(ctx context.Context, group, code string) (int, error)
	ResolveCode(ctx context.Context, id int) (catalogrepo.Entry, error)
	DefaultFor(ctx context.Context, group string) (int, error)
}

// ReminderScheduler enqueues a delayed reminder for an upcoming visit.
type ReminderScheduler interface {
	ScheduleVisitReminder(ctx context.Context, visitID uuid.UUID, runAt time.Time) error
}

// Service orchestrates visit operations: scoping, catalog resolution,
// the state machine and the audit trail.
type Service struct {
	repo           repository.Repository
	scoper         *Scoper
	catalog        CatalogResolver
	notifier       ClosureNotifier
	bus            events.Bus
	log            *logger.Logger
	reminders      ReminderScheduler
	geofenceMeters float64
}

// New creates a new visits service.
func New(repo repository.Repository, scoper *Scoper, catalog CatalogResolver, notifier ClosureNotifier, bus events.Bus, log *logger.Logger, geofenceMeters float64) *Service {
	if geofenceMeters <= 0 {
		geofenceMeters = domain.DefaultGeofenceThresholdMeters
	}
	return &Service{
		repo:           repo,
		scoper:         scoper,
		catalog:        catalog,
		notifier:       notifier,
		bus:            bus,
		log:            log,
		geofenceMeters: geofenceMeters,
	}
}

// SetReminderScheduler injects the reminder queue. When absent no
// reminders are scheduled.
func (s *Service) SetReminderScheduler(reminders ReminderScheduler) {
	s.reminders = reminders
}

// CreateInput holds the fields for a new visit.
type CreateInput struct {
	ClientID     uuid.UUID
	LocationID   *uuid.UUID
	Title        string
	Description  *string
	TechnicianID *uuid.UUID
	StatusCode   *string
	PriorityCode *string
	TypeCode     *string
	ScheduledAt  *time.Time
	ScheduledEnd *time.Time
}

// Create persists a new visit. Only admins and supervisors may create;
// the status defaults to the catalog group's configured default unless
// the creator names one explicitly.
func (s *Service) Create(ctx context.Context, actor domain.Actor, input CreateInput) (uuid.UUID, error) {
	if actor.Role != domain.RoleAdmin && actor.Role != domain.RoleSupervisor {
		return uuid.Nil, apperr.Forbidden("only admins and supervisors may create visits")
	}
	if err := domain.ValidateScheduleWindow(input.ScheduledAt, input.ScheduledEnd); err != nil {
		return uuid.Nil, err
	}

	statusID, err := s.resolveCreateStatus(ctx, input.StatusCode)
	if err != nil {
		return uuid.Nil, err
	}
	priorityID, err := s.resolveOptional(ctx, domain.GroupPriority, input.PriorityCode)
	if err != nil {
		return uuid.Nil, err
	}
	typeID, err := s.resolveOptional(ctx, domain.GroupType, input.TypeCode)
	if err != nil {
		return uuid.Nil, err
	}

	id, err := s.repo.Create(ctx, repository.CreateParams{
		ClientID:     input.ClientID,
		LocationID:   input.LocationID,
		Title:        input.Title,
		Description:  input.Description,
		TechnicianID: input.TechnicianID,
		CreatedBy:    actor.ID,
		StatusID:     statusID,
		PriorityID:   priorityID,
		TypeID:       typeID,
		ScheduledAt:  input.ScheduledAt,
		ScheduledEnd: input.ScheduledEnd,
	})
	if err != nil {
		return uuid.Nil, err
	}

	s.bus.Publish(ctx, domainevents.VisitCreated{
		BaseEvent:    events.NewBaseEvent(),
		VisitID:      id,
		Title:        input.Title,
		TechnicianID: input.TechnicianID,
		CreatedBy:    actor.ID,
	})
	s.scheduleReminder(ctx, id, input.ScheduledAt)
	return id, nil
}

// scheduleReminder enqueues a best-effort reminder one hour before the
// visit starts. Failures are logged, never surfaced to the creator.
func (s *Service) scheduleReminder(ctx context.Context, visitID uuid.UUID, scheduledAt *time.Time) {
	if s.reminders == nil || scheduledAt == nil {
		return
	}
	runAt := scheduledAt.Add(-time.Hour)
	if runAt.Before(time.Now()) {
		return
	}
	if err := s.reminders.ScheduleVisitReminder(ctx, visitID, runAt); err != nil {
		s.log.Warn("failed to schedule visit reminder", "visitId", visitID, "error", err)
	}
}

func (s *Service) resolveCreateStatus(ctx context.Context, code *string) (int, error) {
	if code == nil || *code == "" {
		return s.catalog.DefaultFor(ctx, domain.GroupStatus)
	}
	id, err := s.catalog.ResolveID(ctx, domain.GroupStatus, *code)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return 0, apperr.BadRequest("unknown status code")
		}
		return 0, err
	}
	return id, nil
}

func (s *Service) resolveOptional(ctx context.Context, group string, code *string) (*int, error) {
	if code == nil || *code == "" {
		return nil, nil
	}
	id, err := s.catalog.ResolveID(ctx, group, *code)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.BadRequest("unknown " + group + " code")
		}
		return nil, err
	}
	return &id, nil
}

// ListInput narrows the scoped visit list.
type ListInput struct {
	StatusCode   string
	From         *time.Time
	To           *time.Time
	Search       string
	ClientID     *uuid.UUID
	TechnicianID *uuid.UUID
	Page         int
	PageSize     int
}

// ListMeta is the pagination envelope.
type ListMeta struct {
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// ListItem is one visit row with resolved catalog codes.
type ListItem struct {
	repository.ListItem
	Status   string `json:"status"`
	Priority string `json:"priority,omitempty"`
}

// List returns the visits visible to the actor, filtered and paginated.
func (s *Service) List(ctx context.Context, actor domain.Actor, input ListInput) ([]ListItem, ListMeta, error) {
	scope, err := s.scoper.ScopeFor(ctx, actor)
	if err != nil {
		return nil, ListMeta{}, err
	}

	if input.Page < 1 {
		input.Page = 1
	}
	if input.PageSize < 1 || input.PageSize > 100 {
		input.PageSize = 20
	}

	filters := repository.ListFilters{
		From:         input.From,
		To:           input.To,
		Search:       input.Search,
		ClientID:     input.ClientID,
		TechnicianID: input.TechnicianID,
		Page:         input.Page,
		PageSize:     input.PageSize,
	}
	if input.StatusCode != "" {
		statusID, err := s.catalog.ResolveID(ctx, domain.GroupStatus, input.StatusCode)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				return nil, ListMeta{}, apperr.BadRequest("unknown status code")
			}
			return nil, ListMeta{}, err
		}
		filters.StatusID = &statusID
	}

	rows, total, err := s.repo.List(ctx, scope, filters)
	if err != nil {
		return nil, ListMeta{}, err
	}

	items := make([]ListItem, 0, len(rows))
	for _, row := range rows {
		item := ListItem{ListItem: row}
		if entry, err := s.catalog.ResolveCode(ctx, row.StatusID); err == nil {
			item.Status = entry.Code
		}
		if row.PriorityID != nil {
			if entry, err := s.catalog.ResolveCode(ctx, *row.PriorityID); err == nil {
				item.Priority = entry.Code
			}
		}
		items = append(items, item)
	}
	return items, ListMeta{Total: total, Page: input.Page, PageSize: input.PageSize}, nil
}

// DetailOutput is the full visit projection with resolved codes.
type DetailOutput struct {
	Detail   repository.Detail
	Status   catalogrepo.Entry
	Priority *catalogrepo.Entry
	Type     *catalogrepo.Entry
}

// GetDetail returns the visit if it exists and the actor's scope
// allows it. Absence wins over scope: a visit that does not exist is
// 404 for everyone.
func (s *Service) GetDetail(ctx context.Context, actor domain.Actor, id uuid.UUID) (DetailOutput, error) {
	detail, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		return DetailOutput{}, err
	}

	if err := s.authorize(ctx, actor, detail.Visit); err != nil {
		return DetailOutput{}, err
	}

	out := DetailOutput{Detail: detail}
	out.Status, err = s.catalog.ResolveCode(ctx, detail.Visit.StatusID)
	if err != nil {
		return DetailOutput{}, err
	}
	if detail.Visit.PriorityID != nil {
		if entry, err := s.catalog.ResolveCode(ctx, *detail.Visit.PriorityID); err == nil {
			out.Priority = &entry
		}
	}
	if detail.Visit.TypeID != nil {
		if entry, err := s.catalog.ResolveCode(ctx, *detail.Visit.TypeID); err == nil {
			out.Type = &entry
		}
	}
	return out, nil
}

// authorize evaluates the actor's scope predicate against one visit.
func (s *Service) authorize(ctx context.Context, actor domain.Actor, visit domain.Visit) error {
	scope, err := s.scoper.ScopeFor(ctx, actor)
	if err != nil {
		return err
	}
	if !scope.Allows(visit) {
		return apperr.Forbidden("visit is out of scope")
	}
	return nil
}

// TransitionInput is a technician-flow status change request.
type TransitionInput struct {
	StatusCode string
	Note       *string
	Reported   *domain.Coordinates
}

// TransitionOutput carries the new status and the refreshed history.
type TransitionOutput struct {
	Status  catalogrepo.Entry
	History []domain.HistoryEntry
}

// Transition applies a technician-flow status change: ownership check,
// catalog resolution, sequence rule, geofence gate for the on-site
// step, derived timestamps, then the atomic update + audit append.
func (s *Service) Transition(ctx context.Context, actor domain.Actor, visitID uuid.UUID, input TransitionInput) (TransitionOutput, error) {
	detail, err := s.repo.GetDetail(ctx, visitID)
	if err != nil {
		return TransitionOutput{}, err
	}
	visit := detail.Visit

	if actor.Role != domain.RoleTechnician || visit.TechnicianID == nil || *visit.TechnicianID != actor.ID {
		return TransitionOutput{}, apperr.Forbidden("only the assigned technician may transition this visit")
	}

	targetID, err := s.catalog.ResolveID(ctx, domain.GroupStatus, input.StatusCode)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return TransitionOutput{}, apperr.Validation("unknown status")
		}
		return TransitionOutput{}, err
	}
	targetEntry, err := s.catalog.ResolveCode(ctx, targetID)
	if err != nil {
		return TransitionOutput{}, err
	}
	currentEntry, err := s.catalog.ResolveCode(ctx, visit.StatusID)
	if err != nil {
		return TransitionOutput{}, err
	}

	if err := domain.ValidateTransition(currentEntry.Code, targetEntry.Code); err != nil {
		return TransitionOutput{}, err
	}

	if targetEntry.Code == domain.StatusOnSite {
		if err := s.checkGeofence(visitID, input.Reported, detail.LocationCoords); err != nil {
			return TransitionOutput{}, err
		}
	}

	var note *string
	if input.Note != nil && *input.Note != "" {
		note = input.Note
	}

	var closure *repository.ClosureParams
	if domain.RequiresClosingNote(targetEntry.Code) {
		raw := ""
		if input.Note != nil {
			raw = *input.Note
		}
		if err := domain.ValidateClosingNote(raw); err != nil {
			return TransitionOutput{}, err
		}
		closure = &repository.ClosureParams{Summary: raw}
	}

	effects := domain.FlowEffects(targetEntry.Code, visit.ActualStart != nil)
	_, err = s.repo.ApplyTransition(ctx, repository.TransitionParams{
		VisitID:          visitID,
		ExpectedStatusID: visit.StatusID,
		NewStatusID:      targetID,
		AuthorID:         actor.ID,
		Note:             note,
		SetActualStart:   effects.SetActualStart,
		SetActualEnd:     effects.SetActualEnd,
	}, closure)
	if err != nil {
		return TransitionOutput{}, err
	}

	s.log.VisitTransition(visitID.String(), actor.ID.String(), currentEntry.Code, targetEntry.Code)
	s.publishTransitioned(ctx, visit, actor, currentEntry.Code, targetEntry.Code)

	history, err := s.History(ctx, actor, visitID)
	if err != nil {
		return TransitionOutput{}, err
	}
	return TransitionOutput{Status: targetEntry, History: history}, nil
}

// checkGeofence gates the on-site check-in. When either position is
// missing the check is skipped: verification is best-effort, and an
// unverifiable position does not block the transition.
func (s *Service) checkGeofence(visitID uuid.UUID, reported, target *domain.Coordinates) error {
	if reported == nil || target == nil {
		s.log.Debug("geofence check skipped", "visit_id", visitID.String(),
			"reported_present", reported != nil, "target_present", target != nil)
		return nil
	}
	if !domain.WithinGeofence(*reported, *target, s.geofenceMeters) {
		distance := domain.DistanceMeters(*reported, *target)
		return apperr.GeofenceViolation(distance, s.geofenceMeters)
	}
	return nil
}

// OverrideInput is an administrative status change addressed by id.
type OverrideInput struct {
	StatusID int
	Note     string
}

// OverrideStatus changes a visit's status without the sequence check.
// It writes the same audit entry as the technician flow but derives
// timestamps from the override vocabulary, which is intentionally
// distinct from the flow vocabulary.
func (s *Service) OverrideStatus(ctx context.Context, actor domain.Actor, visitID uuid.UUID, input OverrideInput) error {
	if actor.Role != domain.RoleAdmin {
		return apperr.Forbidden("administrator role required")
	}

	visit, err := s.repo.GetByID(ctx, visitID)
	if err != nil {
		return err
	}

	targetEntry, err := s.catalog.ResolveCode(ctx, input.StatusID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return apperr.BadRequest("unknown status id")
		}
		return err
	}
	if targetEntry.GroupCode != domain.GroupStatus {
		return apperr.BadRequest("status id is not in the status group")
	}
	currentEntry, err := s.catalog.ResolveCode(ctx, visit.StatusID)
	if err != nil {
		return err
	}

	var note *string
	if input.Note != "" {
		note = &input.Note
	}

	effects := domain.OverrideEffects(targetEntry.Code, visit.ActualStart != nil)
	_, err = s.repo.ApplyTransition(ctx, repository.TransitionParams{
		VisitID:          visitID,
		ExpectedStatusID: visit.StatusID,
		NewStatusID:      input.StatusID,
		AuthorID:         actor.ID,
		Note:             note,
		SetActualStart:   effects.SetActualStart,
		SetActualEnd:     effects.SetActualEnd,
	}, nil)
	if err != nil {
		return err
	}

	s.log.VisitTransition(visitID.String(), actor.ID.String(), currentEntry.Code, targetEntry.Code)
	s.publishTransitioned(ctx, visit, actor, currentEntry.Code, targetEntry.Code)
	return nil
}

func (s *Service) publishTransitioned(ctx context.Context, visit domain.Visit, actor domain.Actor, fromCode, toCode string) {
	s.bus.Publish(ctx, domainevents.VisitTransitioned{
		BaseEvent:    events.NewBaseEvent(),
		VisitID:      visit.ID,
		AuthorID:     actor.ID,
		FromCode:     fromCode,
		ToCode:       toCode,
		TechnicianID: visit.TechnicianID,
	})
}

// History returns the visit's audit trail with resolved status labels.
func (s *Service) History(ctx context.Context, actor domain.Actor, visitID uuid.UUID) ([]domain.HistoryEntry, error) {
	visit, err := s.repo.GetByID(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, visit); err != nil {
		return nil, err
	}

	entries, err := s.repo.ListTransitions(ctx, visitID)
	if err != nil {
		return nil, err
	}

	history := make([]domain.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		h := domain.HistoryEntry{
			ID:        e.ID,
			AuthorID:  e.AuthorID,
			Note:      e.Note,
			CreatedAt: e.CreatedAt,
		}
		if e.PreviousStatusID != nil {
			if entry, err := s.catalog.ResolveCode(ctx, *e.PreviousStatusID); err == nil {
				code := entry.Code
				h.PreviousCode = &code
			}
		}
		if entry, err := s.catalog.ResolveCode(ctx, e.NewStatusID); err == nil {
			h.NewCode = entry.Code
			h.NewLabel = entry.Label
		}
		history = append(history, h)
	}
	return history, nil
}

// EvidenceInput is an evidence append request.
type EvidenceInput struct {
	URL         string
	Description *string
}

// AddEvidence appends an evidence reference to a scoped visit.
// Evidence stays appendable after a terminal status for historical
// documentation.
func (s *Service) AddEvidence(ctx context.Context, actor domain.Actor, visitID uuid.UUID, input EvidenceInput) (uuid.UUID, error) {
	visit, err := s.repo.GetByID(ctx, visitID)
	if err != nil {
		return uuid.Nil, err
	}
	if err := s.authorize(ctx, actor, visit); err != nil {
		return uuid.Nil, err
	}
	return s.repo.AddEvidence(ctx, repository.AddEvidenceParams{
		VisitID:     visitID,
		UploadedBy:  actor.ID,
		URL:         input.URL,
		Description: input.Description,
	})
}

// ListEvidence returns a scoped visit's evidence in creation order.
func (s *Service) ListEvidence(ctx context.Context, actor domain.Actor, visitID uuid.UUID) ([]domain.Evidence, error) {
	visit, err := s.repo.GetByID(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, visit); err != nil {
		return nil, err
	}
	return s.repo.ListEvidence(ctx, visitID)
}

// ObservationInput is an observation append request.
type ObservationInput struct {
	Content    string
	Visibility string
}

// AddObservation appends an observation to a scoped visit.
func (s *Service) AddObservation(ctx context.Context, actor domain.Actor, visitID uuid.UUID, input ObservationInput) (uuid.UUID, error) {
	visit, err := s.repo.GetByID(ctx, visitID)
	if err != nil {
		return uuid.Nil, err
	}
	if err := s.authorize(ctx, actor, visit); err != nil {
		return uuid.Nil, err
	}

	visibility := domain.VisibilityInternal
	if input.Visibility != "" {
		parsed, ok := domain.ParseObservationVisibility(input.Visibility)
		if !ok {
			return uuid.Nil, apperr.Validation("invalid visibility tag")
		}
		visibility = parsed
	}

	return s.repo.AddObservation(ctx, repository.AddObservationParams{
		VisitID:    visitID,
		AuthorID:   actor.ID,
		Content:    input.Content,
		Visibility: visibility,
	})
}

// ListObservations returns a scoped visit's observations in creation order.
func (s *Service) ListObservations(ctx context.Context, actor domain.Actor, visitID uuid.UUID) ([]domain.Observation, error) {
	visit, err := s.repo.GetByID(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, visit); err != nil {
		return nil, err
	}
	return s.repo.ListObservations(ctx, visitID)
}
