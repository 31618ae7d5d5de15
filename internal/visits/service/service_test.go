package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	catalogrepo "fieldops_backend/internal/catalog/repository"
	"fieldops_backend/internal/visits/domain"
	"fieldops_backend/internal/visits/repository"
	"fieldops_backend/platform/apperr"
	"fieldops_backend/platform/events"
	"fieldops_backend/platform/logger"
)

// Status ids mirror the seeded visit_status catalog group.
const (
	statusScheduledID = 1
	statusEnRouteID   = 2
	statusOnSiteID    = 3
	statusCompletedID = 4
	statusCancelledID = 5
	priorityMediumID  = 10
)

type fakeCatalog struct {
	entries map[int]catalogrepo.Entry
}

func newFakeCatalog() *fakeCatalog {
	entries := map[int]catalogrepo.Entry{
		statusScheduledID: {ID: statusScheduledID, GroupCode: domain.GroupStatus, Code: domain.StatusScheduled, Label: "Programada", IsDefault: true},
		statusEnRouteID:   {ID: statusEnRouteID, GroupCode: domain.GroupStatus, Code: domain.StatusEnRoute, Label: "En ruta"},
		statusOnSiteID:    {ID: statusOnSiteID, GroupCode: domain.GroupStatus, Code: domain.StatusOnSite, Label: "En sitio"},
		statusCompletedID: {ID: statusCompletedID, GroupCode: domain.GroupStatus, Code: domain.StatusCompleted, Label: "Completada"},
		statusCancelledID: {ID: statusCancelledID, GroupCode: domain.GroupStatus, Code: domain.StatusCancelled, Label: "Cancelada"},
		priorityMediumID:  {ID: priorityMediumID, GroupCode: domain.GroupPriority, Code: "MEDIA", Label: "Media", IsDefault: true},
	}
	return &fakeCatalog{entries: entries}
}

func (c *fakeCatalog) ResolveID(_ context.Context, group, code string) (int, error) {
	for _, e := range c.entries {
		if e.GroupCode == group && e.Code == code {
			return e.ID, nil
		}
	}
	return 0, apperr.NotFound("unknown catalog code")
}

func (c *fakeCatalog) ResolveCode(_ context.Context, id int) (catalogrepo.Entry, error) {
	e, ok := c.entries[id]
	if !ok {
		return catalogrepo.Entry{}, apperr.NotFound("unknown catalog code")
	}
	return e, nil
}

func (c *fakeCatalog) DefaultFor(_ context.Context, group string) (int, error) {
	for _, e := range c.entries {
		if e.GroupCode == group && e.IsDefault {
			return e.ID, nil
		}
	}
	return 0, apperr.Configuration("no default entry for catalog group " + group)
}

type fakeTeams struct {
	team []uuid.UUID
}

func (f *fakeTeams) ActiveTechnicianIDs(_ context.Context, _ uuid.UUID) ([]uuid.UUID, error) {
	return f.team, nil
}

type appliedTransition struct {
	params  repository.TransitionParams
	closure *repository.ClosureParams
}

type fakeRepo struct {
	visits        map[uuid.UUID]domain.Visit
	details       map[uuid.UUID]repository.Detail
	transitions   []appliedTransition
	log           []domain.TransitionLogEntry
	created       []repository.CreateParams
	closures      map[uuid.UUID]domain.ClosureSummary
	contact       repository.ClientContact
	evidence      []domain.Evidence
	notifiedTo    string
	forceConflict bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		visits:   map[uuid.UUID]domain.Visit{},
		details:  map[uuid.UUID]repository.Detail{},
		closures: map[uuid.UUID]domain.ClosureSummary{},
	}
}

func (r *fakeRepo) addVisit(v domain.Visit, coords *domain.Coordinates) {
	r.visits[v.ID] = v
	r.details[v.ID] = repository.Detail{Visit: v, ClientName: "Cliente Uno", LocationCoords: coords}
}

func (r *fakeRepo) Create(_ context.Context, params repository.CreateParams) (uuid.UUID, error) {
	r.created = append(r.created, params)
	return uuid.New(), nil
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Visit, error) {
	v, ok := r.visits[id]
	if !ok {
		return domain.Visit{}, apperr.NotFound("visit not found")
	}
	return v, nil
}

func (r *fakeRepo) GetDetail(_ context.Context, id uuid.UUID) (repository.Detail, error) {
	d, ok := r.details[id]
	if !ok {
		return repository.Detail{}, apperr.NotFound("visit not found")
	}
	return d, nil
}

func (r *fakeRepo) List(_ context.Context, _ repository.Scope, _ repository.ListFilters) ([]repository.ListItem, int, error) {
	return nil, 0, nil
}

func (r *fakeRepo) ApplyTransition(_ context.Context, params repository.TransitionParams, closure *repository.ClosureParams) (domain.TransitionLogEntry, error) {
	if r.forceConflict {
		return domain.TransitionLogEntry{}, apperr.Conflict("visit status changed concurrently")
	}
	v, ok := r.visits[params.VisitID]
	if !ok || v.StatusID != params.ExpectedStatusID {
		return domain.TransitionLogEntry{}, apperr.Conflict("visit status changed concurrently")
	}

	prev := v.StatusID
	v.StatusID = params.NewStatusID
	now := time.Now()
	if params.SetActualStart && v.ActualStart == nil {
		v.ActualStart = &now
	}
	if params.SetActualEnd && v.ActualEnd == nil {
		v.ActualEnd = &now
	}
	r.visits[params.VisitID] = v
	d := r.details[params.VisitID]
	d.Visit = v
	r.details[params.VisitID] = d

	entry := domain.TransitionLogEntry{
		ID:               uuid.New(),
		VisitID:          params.VisitID,
		AuthorID:         params.AuthorID,
		PreviousStatusID: &prev,
		NewStatusID:      params.NewStatusID,
		Note:             params.Note,
		CreatedAt:        now,
	}
	r.log = append(r.log, entry)
	r.transitions = append(r.transitions, appliedTransition{params: params, closure: closure})

	if closure != nil {
		r.closures[params.VisitID] = domain.ClosureSummary{
			VisitID:       params.VisitID,
			Summary:       closure.Summary,
			WorkPerformed: closure.WorkPerformed,
			StartedAt:     v.ActualStart,
			EndedAt:       v.ActualEnd,
		}
	}
	return entry, nil
}

func (r *fakeRepo) ListTransitions(_ context.Context, visitID uuid.UUID) ([]domain.TransitionLogEntry, error) {
	var out []domain.TransitionLogEntry
	for _, e := range r.log {
		if e.VisitID == visitID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeRepo) AddEvidence(_ context.Context, _ repository.AddEvidenceParams) (uuid.UUID, error) {
	return uuid.New(), nil
}

func (r *fakeRepo) ListEvidence(_ context.Context, _ uuid.UUID) ([]domain.Evidence, error) {
	return r.evidence, nil
}

func (r *fakeRepo) AddObservation(_ context.Context, _ repository.AddObservationParams) (uuid.UUID, error) {
	return uuid.New(), nil
}

func (r *fakeRepo) ListObservations(_ context.Context, _ uuid.UUID) ([]domain.Observation, error) {
	return nil, nil
}

func (r *fakeRepo) GetClosure(_ context.Context, visitID uuid.UUID) (domain.ClosureSummary, error) {
	cs, ok := r.closures[visitID]
	if !ok {
		return domain.ClosureSummary{}, apperr.NotFound("closure not found")
	}
	return cs, nil
}

func (r *fakeRepo) MarkClosureNotified(_ context.Context, _ uuid.UUID, destination string, _ time.Time) error {
	r.notifiedTo = destination
	return nil
}

func (r *fakeRepo) GetClientContact(_ context.Context, _ uuid.UUID) (repository.ClientContact, error) {
	return r.contact, nil
}

type fakeNotifier struct {
	calls []ClosureNotification
	err   error
}

func (n *fakeNotifier) NotifyClosure(_ context.Context, notification ClosureNotification) error {
	n.calls = append(n.calls, notification)
	return n.err
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(_ string, _ events.Handler) {}

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.EventName())
	}
	return out
}

type fixture struct {
	svc      *Service
	repo     *fakeRepo
	notifier *fakeNotifier
	bus      *recordingBus
	teams    *fakeTeams
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	bus := &recordingBus{}
	teams := &fakeTeams{}
	svc := New(repo, NewScoper(teams), newFakeCatalog(), notifier, bus, logger.New("development"), 0)
	return &fixture{svc: svc, repo: repo, notifier: notifier, bus: bus, teams: teams}
}

func scheduledVisit(technicianID *uuid.UUID, statusID int) domain.Visit {
	return domain.Visit{
		ID:           uuid.New(),
		ClientID:     uuid.New(),
		Title:        "Mantenimiento preventivo",
		TechnicianID: technicianID,
		CreatedBy:    uuid.New(),
		StatusID:     statusID,
		CreatedAt:    time.Now(),
	}
}

func admin() domain.Actor      { return domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin} }
func supervisor() domain.Actor { return domain.Actor{ID: uuid.New(), Role: domain.RoleSupervisor} }
func technician() domain.Actor { return domain.Actor{ID: uuid.New(), Role: domain.RoleTechnician} }

func TestCreateRequiresManagerRole(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), technician(), CreateInput{ClientID: uuid.New(), Title: "x"})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("Create by technician = %v, want forbidden", err)
	}
}

func TestCreateDefaultsStatusFromCatalog(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), supervisor(), CreateInput{ClientID: uuid.New(), Title: "Instalación"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(f.repo.created) != 1 {
		t.Fatalf("created %d visits, want 1", len(f.repo.created))
	}
	if got := f.repo.created[0].StatusID; got != statusScheduledID {
		t.Fatalf("StatusID = %d, want default %d", got, statusScheduledID)
	}
	if names := f.bus.names(); len(names) != 1 || names[0] != "visit.created" {
		t.Fatalf("published %v, want [visit.created]", names)
	}
}

func TestCreateRejectsUnknownStatusCode(t *testing.T) {
	f := newFixture(t)
	bad := "NO_EXISTE"
	_, err := f.svc.Create(context.Background(), admin(), CreateInput{ClientID: uuid.New(), Title: "x", StatusCode: &bad})
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("unknown status code = %v, want bad request", err)
	}
}

func TestCreateRejectsInvertedScheduleWindow(t *testing.T) {
	f := newFixture(t)
	start := time.Now().Add(2 * time.Hour)
	end := start.Add(-time.Hour)
	_, err := f.svc.Create(context.Background(), admin(), CreateInput{ClientID: uuid.New(), Title: "x", ScheduledAt: &start, ScheduledEnd: &end})
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("inverted window = %v, want bad request", err)
	}
}

func TestTransitionHappyPath(t *testing.T) {
	f := newFixture(t)
	actor := technician()
	visit := scheduledVisit(&actor.ID, statusScheduledID)
	f.repo.addVisit(visit, nil)

	out, err := f.svc.Transition(context.Background(), actor, visit.ID, TransitionInput{StatusCode: domain.StatusEnRoute})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if out.Status.Code != domain.StatusEnRoute {
		t.Fatalf("new status = %s, want EN_RUTA", out.Status.Code)
	}
	if len(f.repo.transitions) != 1 {
		t.Fatalf("applied %d transitions, want 1", len(f.repo.transitions))
	}
	applied := f.repo.transitions[0]
	if !applied.params.SetActualStart {
		t.Fatal("EN_RUTA must set actual_start")
	}
	if applied.params.SetActualEnd {
		t.Fatal("EN_RUTA must not set actual_end")
	}
	if applied.params.ExpectedStatusID != statusScheduledID {
		t.Fatalf("conditional guard = %d, want %d", applied.params.ExpectedStatusID, statusScheduledID)
	}
	if len(out.History) != 1 {
		t.Fatalf("history has %d entries, want 1", len(out.History))
	}
}

func TestTransitionOnlyAssignedTechnician(t *testing.T) {
	f := newFixture(t)
	assigned := uuid.New()
	visit := scheduledVisit(&assigned, statusScheduledID)
	f.repo.addVisit(visit, nil)

	other := technician()
	_, err := f.svc.Transition(context.Background(), other, visit.ID, TransitionInput{StatusCode: domain.StatusEnRoute})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("unassigned technician = %v, want forbidden", err)
	}

	boss := admin()
	_, err = f.svc.Transition(context.Background(), boss, visit.ID, TransitionInput{StatusCode: domain.StatusEnRoute})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("admin on technician flow = %v, want forbidden", err)
	}
}

func TestTransitionInvalidSequence(t *testing.T) {
	f := newFixture(t)
	actor := technician()
	visit := scheduledVisit(&actor.ID, statusScheduledID)
	f.repo.addVisit(visit, nil)

	_, err := f.svc.Transition(context.Background(), actor, visit.ID, TransitionInput{StatusCode: domain.StatusCompleted})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("skipping steps = %v, want validation", err)
	}
	if len(f.repo.transitions) != 0 {
		t.Fatal("rejected transition must not be applied")
	}
}

func TestTransitionUnknownStatusIsValidation(t *testing.T) {
	f := newFixture(t)
	actor := technician()
	visit := scheduledVisit(&actor.ID, statusScheduledID)
	f.repo.addVisit(visit, nil)

	_, err := f.svc.Transition(context.Background(), actor, visit.ID, TransitionInput{StatusCode: "NO_EXISTE"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("unknown status = %v, want validation", err)
	}
}

func TestTransitionGeofenceViolation(t *testing.T) {
	f := newFixture(t)
	actor := technician()
	visit := scheduledVisit(&actor.ID, statusEnRouteID)
	site := domain.Coordinates{Lat: 19.4326, Lng: -99.1332}
	f.repo.addVisit(visit, &site)

	// Roughly 500m north of the site.
	far := domain.Coordinates{Lat: site.Lat + 0.0045, Lng: site.Lng}
	_, err := f.svc.Transition(context.Background(), actor, visit.ID, TransitionInput{
		StatusCode: domain.StatusOnSite,
		Reported:   &far,
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("far check-in = %v, want validation", err)
	}
	if len(f.repo.transitions) != 0 {
		t.Fatal("geofence violation must block the transition")
	}
}

func TestTransitionGeofenceWithinThreshold(t *testing.T) {
	f := newFixture(t)
	actor := technician()
	visit := scheduledVisit(&actor.ID, statusEnRouteID)
	site := domain.Coordinates{Lat: 19.4326, Lng: -99.1332}
	f.repo.addVisit(visit, &site)

	near := domain.Coordinates{Lat: site.Lat + 0.00045, Lng: site.Lng}
	if _, err := f.svc.Transition(context.Background(), actor, visit.ID, TransitionInput{
		StatusCode: domain.StatusOnSite,
		Reported:   &near,
	}); err != nil {
		t.Fatalf("near check-in rejected: %v", err)
	}
}

func TestTransitionGeofenceSkippedWhenPositionMissing(t *testing.T) {
	f := newFixture(t)
	actor := technician()

	// No reported position.
	visit := scheduledVisit(&actor.ID, statusEnRouteID)
	site := domain.Coordinates{Lat: 19.4326, Lng: -99.1332}
	f.repo.addVisit(visit, &site)
	if _, err := f.svc.Transition(context.Background(), actor, visit.ID, TransitionInput{StatusCode: domain.StatusOnSite}); err != nil {
		t.Fatalf("missing reported position must skip the check: %v", err)
	}

	// No target coordinates.
	other := scheduledVisit(&actor.ID, statusEnRouteID)
	f.repo.addVisit(other, nil)
	far := domain.Coordinates{Lat: 20.0, Lng: -100.0}
	if _, err := f.svc.Transition(context.Background(), actor, other.ID, TransitionInput{
		StatusCode: domain.StatusOnSite,
		Reported:   &far,
	}); err != nil {
		t.Fatalf("missing target coordinates must skip the check: %v", err)
	}
}

func TestTransitionCompletionRequiresNote(t *testing.T) {
	f := newFixture(t)
	actor := technician()
	visit := scheduledVisit(&actor.ID, statusOnSiteID)
	f.repo.addVisit(visit, nil)

	blank := "   "
	_, err := f.svc.Transition(context.Background(), actor, visit.ID, TransitionInput{
		StatusCode: domain.StatusCompleted,
		Note:       &blank,
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("blank closing note = %v, want validation", err)
	}
}

func TestTransitionCompletionUpsertsClosure(t *testing.T) {
	f := newFixture(t)
	actor := technician()
	visit := scheduledVisit(&actor.ID, statusOnSiteID)
	f.repo.addVisit(visit, nil)

	note := "se reemplazó el compresor"
	_, err := f.svc.Transition(context.Background(), actor, visit.ID, TransitionInput{
		StatusCode: domain.StatusCompleted,
		Note:       &note,
	})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}

	applied := f.repo.transitions[0]
	if applied.closure == nil || applied.closure.Summary != note {
		t.Fatalf("closure = %+v, want summary %q", applied.closure, note)
	}
	if !applied.params.SetActualEnd {
		t.Fatal("completion must set actual_end")
	}
	if !applied.params.SetActualStart {
		t.Fatal("completion without a recorded start must backfill actual_start")
	}
}

func TestTransitionConflict(t *testing.T) {
	f := newFixture(t)
	actor := technician()
	visit := scheduledVisit(&actor.ID, statusScheduledID)
	f.repo.addVisit(visit, nil)
	f.repo.forceConflict = true

	_, err := f.svc.Transition(context.Background(), actor, visit.ID, TransitionInput{StatusCode: domain.StatusEnRoute})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("lost race = %v, want conflict", err)
	}
}

func TestOverrideStatusRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	visit := scheduledVisit(nil, statusScheduledID)
	f.repo.addVisit(visit, nil)

	err := f.svc.OverrideStatus(context.Background(), supervisor(), visit.ID, OverrideInput{StatusID: statusCancelledID, Note: "x"})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("supervisor override = %v, want forbidden", err)
	}
}

func TestOverrideStatusSkipsSequenceCheck(t *testing.T) {
	f := newFixture(t)
	visit := scheduledVisit(nil, statusCompletedID)
	f.repo.addVisit(visit, nil)

	err := f.svc.OverrideStatus(context.Background(), admin(), visit.ID, OverrideInput{StatusID: statusScheduledID, Note: "reabierta"})
	if err != nil {
		t.Fatalf("override out of terminal state: %v", err)
	}
	if got := f.repo.visits[visit.ID].StatusID; got != statusScheduledID {
		t.Fatalf("status after override = %d, want %d", got, statusScheduledID)
	}
}

func TestOverrideStatusDoesNotUseFlowTimestamps(t *testing.T) {
	f := newFixture(t)
	visit := scheduledVisit(nil, statusEnRouteID)
	f.repo.addVisit(visit, nil)

	// COMPLETADA is flow vocabulary; the override path derives
	// timestamps only from its own lowercase codes.
	err := f.svc.OverrideStatus(context.Background(), admin(), visit.ID, OverrideInput{StatusID: statusCompletedID, Note: "cerrada"})
	if err != nil {
		t.Fatalf("OverrideStatus: %v", err)
	}
	applied := f.repo.transitions[0]
	if applied.params.SetActualStart || applied.params.SetActualEnd {
		t.Fatalf("override with flow code set timestamps: %+v", applied.params)
	}
	if applied.closure != nil {
		t.Fatal("override must not write a closure")
	}
}

func TestOverrideStatusUnknownID(t *testing.T) {
	f := newFixture(t)
	visit := scheduledVisit(nil, statusScheduledID)
	f.repo.addVisit(visit, nil)

	err := f.svc.OverrideStatus(context.Background(), admin(), visit.ID, OverrideInput{StatusID: 999, Note: "x"})
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("unknown status id = %v, want bad request", err)
	}
}

func TestOverrideStatusRejectsForeignGroup(t *testing.T) {
	f := newFixture(t)
	visit := scheduledVisit(nil, statusScheduledID)
	f.repo.addVisit(visit, nil)

	err := f.svc.OverrideStatus(context.Background(), admin(), visit.ID, OverrideInput{StatusID: priorityMediumID, Note: "x"})
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("priority id on status override = %v, want bad request", err)
	}
}

func TestGetDetailAbsenceWinsOverScope(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetDetail(context.Background(), technician(), uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("missing visit = %v, want not found", err)
	}
}

func TestGetDetailOutOfScope(t *testing.T) {
	f := newFixture(t)
	assigned := uuid.New()
	visit := scheduledVisit(&assigned, statusScheduledID)
	f.repo.addVisit(visit, nil)

	_, err := f.svc.GetDetail(context.Background(), technician(), visit.ID)
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("out-of-scope visit = %v, want forbidden", err)
	}
}

func TestCompleteAndNotifyRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	visit := scheduledVisit(nil, statusOnSiteID)
	f.repo.addVisit(visit, nil)

	_, err := f.svc.CompleteAndNotify(context.Background(), supervisor(), visit.ID, CompleteInput{Summary: "listo"})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("supervisor completion = %v, want forbidden", err)
	}
}

func TestCompleteAndNotifyDelivers(t *testing.T) {
	f := newFixture(t)
	visit := scheduledVisit(nil, statusOnSiteID)
	f.repo.addVisit(visit, nil)
	email := "cliente@example.com"
	f.repo.contact = repository.ClientContact{Name: "Cliente Uno", Email: &email}

	result, err := f.svc.CompleteAndNotify(context.Background(), admin(), visit.ID, CompleteInput{
		Summary:       "se reparó la fuga",
		WorkPerformed: "cambio de empaque",
	})
	if err != nil {
		t.Fatalf("CompleteAndNotify: %v", err)
	}
	if !result.OK {
		t.Fatal("completion must report ok")
	}
	if !result.Notification.Attempted || !result.Notification.Delivered {
		t.Fatalf("outcome = %+v, want attempted and delivered", result.Notification)
	}
	if len(f.notifier.calls) != 1 || f.notifier.calls[0].To != email {
		t.Fatalf("notifier calls = %+v", f.notifier.calls)
	}
	if f.repo.notifiedTo != email {
		t.Fatalf("notified destination = %q, want %q", f.repo.notifiedTo, email)
	}
	if got := f.repo.visits[visit.ID].StatusID; got != statusCompletedID {
		t.Fatalf("status = %d, want %d", got, statusCompletedID)
	}
}

func TestCompleteAndNotifyDeliveryFailureDoesNotRollBack(t *testing.T) {
	f := newFixture(t)
	visit := scheduledVisit(nil, statusOnSiteID)
	f.repo.addVisit(visit, nil)
	email := "cliente@example.com"
	f.repo.contact = repository.ClientContact{Name: "Cliente Uno", Email: &email}
	f.notifier.err = errors.New("smtp timeout")

	result, err := f.svc.CompleteAndNotify(context.Background(), admin(), visit.ID, CompleteInput{Summary: "listo"})
	if err != nil {
		t.Fatalf("CompleteAndNotify: %v", err)
	}
	if !result.OK {
		t.Fatal("completion must survive a failed notification")
	}
	if !result.Notification.Attempted || result.Notification.Delivered {
		t.Fatalf("outcome = %+v, want attempted but not delivered", result.Notification)
	}
	if f.repo.notifiedTo != "" {
		t.Fatal("failed delivery must not be recorded as notified")
	}
	if got := f.repo.visits[visit.ID].StatusID; got != statusCompletedID {
		t.Fatalf("status = %d, want %d", got, statusCompletedID)
	}
}

func TestCompleteAndNotifySkipsClientsWithoutEmail(t *testing.T) {
	f := newFixture(t)
	visit := scheduledVisit(nil, statusOnSiteID)
	f.repo.addVisit(visit, nil)
	f.repo.contact = repository.ClientContact{Name: "Cliente Uno"}

	result, err := f.svc.CompleteAndNotify(context.Background(), admin(), visit.ID, CompleteInput{Summary: "listo"})
	if err != nil {
		t.Fatalf("CompleteAndNotify: %v", err)
	}
	if result.Notification.Attempted {
		t.Fatalf("outcome = %+v, want no attempt without an email", result.Notification)
	}
	if len(f.notifier.calls) != 0 {
		t.Fatal("notifier must not be called without a destination")
	}
}

func TestCompleteAndNotifyRejectsBlankSummary(t *testing.T) {
	f := newFixture(t)
	visit := scheduledVisit(nil, statusOnSiteID)
	f.repo.addVisit(visit, nil)

	_, err := f.svc.CompleteAndNotify(context.Background(), admin(), visit.ID, CompleteInput{Summary: "  "})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("blank summary = %v, want validation", err)
	}
}

func TestCompleteAndNotifyEnforcesSequence(t *testing.T) {
	f := newFixture(t)
	visit := scheduledVisit(nil, statusScheduledID)
	f.repo.addVisit(visit, nil)

	_, err := f.svc.CompleteAndNotify(context.Background(), admin(), visit.ID, CompleteInput{Summary: "listo"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("completing a scheduled visit = %v, want validation", err)
	}
}
