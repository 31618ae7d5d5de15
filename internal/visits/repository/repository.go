package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fieldops_backend/internal/visits/domain"
	"fieldops_backend/platform/apperr"
)

const visitNotFoundMessage = "visit not found"

// Repo implements Repository against Postgres.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new visits repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

// Create inserts a new visit together with the first audit entry
// (previous status null), so replaying the log always reconstructs the
// current status.
func (r *Repo) Create(ctx context.Context, params CreateParams) (uuid.UUID, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin create visit: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO visits (client_id, location_id, title, description, technician_id,
			created_by, status_id, priority_id, type_id, scheduled_at, scheduled_end)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`

	var id uuid.UUID
	err = tx.QueryRow(ctx, query,
		params.ClientID, params.LocationID, params.Title, params.Description,
		params.TechnicianID, params.CreatedBy, params.StatusID, params.PriorityID,
		params.TypeID, params.ScheduledAt, params.ScheduledEnd,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("create visit: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO visit_transitions (visit_id, author_id, previous_status_id, new_status_id, note)
		VALUES ($1, $2, NULL, $3, NULL)`,
		id, params.CreatedBy, params.StatusID,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("append initial transition: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("commit create visit: %w", err)
	}
	return id, nil
}

const visitColumns = `id, client_id, location_id, title, description, technician_id,
	created_by, status_id, priority_id, type_id, scheduled_at, scheduled_end,
	actual_start, actual_end, created_at, updated_at`

func scanVisit(row pgx.Row) (domain.Visit, error) {
	var v domain.Visit
	err := row.Scan(
		&v.ID, &v.ClientID, &v.LocationID, &v.Title, &v.Description, &v.TechnicianID,
		&v.CreatedBy, &v.StatusID, &v.PriorityID, &v.TypeID, &v.ScheduledAt, &v.ScheduledEnd,
		&v.ActualStart, &v.ActualEnd, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Visit{}, apperr.NotFound(visitNotFoundMessage)
		}
		return domain.Visit{}, fmt.Errorf("scan visit: %w", err)
	}
	return v, nil
}

// GetByID returns the visit row.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (domain.Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM visits WHERE id = $1`
	return scanVisit(r.pool.QueryRow(ctx, query, id))
}

// GetDetailQuery is exported for query-shape tests.
const GetDetailQuery = `
	SELECT v.id, v.client_id, v.location_id, v.title, v.description, v.technician_id,
		v.created_by, v.status_id, v.priority_id, v.type_id, v.scheduled_at, v.scheduled_end,
		v.actual_start, v.actual_end, v.created_at, v.updated_at,
		c.name, c.email,
		l.label, l.latitude, l.longitude,
		t.full_name,
		(SELECT count(*) FROM visit_evidence e WHERE e.visit_id = v.id),
		(SELECT count(*) FROM visit_observations o WHERE o.visit_id = v.id)
	FROM visits v
	JOIN clients c ON c.id = v.client_id
	LEFT JOIN client_locations l ON l.id = v.location_id
	LEFT JOIN users t ON t.id = v.technician_id
	WHERE v.id = $1`

// GetDetail returns the visit with joined client, location and
// technician projections plus evidence/observation counts.
func (r *Repo) GetDetail(ctx context.Context, id uuid.UUID) (Detail, error) {
	var d Detail
	var lat, lng *float64
	err := r.pool.QueryRow(ctx, GetDetailQuery, id).Scan(
		&d.Visit.ID, &d.Visit.ClientID, &d.Visit.LocationID, &d.Visit.Title,
		&d.Visit.Description, &d.Visit.TechnicianID, &d.Visit.CreatedBy,
		&d.Visit.StatusID, &d.Visit.PriorityID, &d.Visit.TypeID,
		&d.Visit.ScheduledAt, &d.Visit.ScheduledEnd, &d.Visit.ActualStart,
		&d.Visit.ActualEnd, &d.Visit.CreatedAt, &d.Visit.UpdatedAt,
		&d.ClientName, &d.ClientEmail,
		&d.LocationLabel, &lat, &lng,
		&d.TechnicianName,
		&d.EvidenceCount, &d.ObservationCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Detail{}, apperr.NotFound(visitNotFoundMessage)
		}
		return Detail{}, fmt.Errorf("get visit detail: %w", err)
	}
	if lat != nil && lng != nil {
		d.LocationCoords = &domain.Coordinates{Lat: *lat, Lng: *lng}
	}
	return d, nil
}

// List returns scoped, filtered visits with the total count.
func (r *Repo) List(ctx context.Context, scope Scope, filters ListFilters) ([]ListItem, int, error) {
	var conds []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !scope.All {
		if len(scope.TechnicianIDs) == 0 {
			return []ListItem{}, 0, nil
		}
		conds = append(conds, "v.technician_id = ANY("+arg(scope.TechnicianIDs)+")")
	}
	if filters.StatusID != nil {
		conds = append(conds, "v.status_id = "+arg(*filters.StatusID))
	}
	if filters.From != nil {
		conds = append(conds, "v.scheduled_at >= "+arg(*filters.From))
	}
	if filters.To != nil {
		conds = append(conds, "v.scheduled_at <= "+arg(*filters.To))
	}
	if filters.Search != "" {
		p := arg("%" + filters.Search + "%")
		conds = append(conds, "(v.title ILIKE "+p+" OR v.description ILIKE "+p+" OR c.name ILIKE "+p+")")
	}
	if filters.ClientID != nil {
		conds = append(conds, "v.client_id = "+arg(*filters.ClientID))
	}
	if filters.TechnicianID != nil {
		conds = append(conds, "v.technician_id = "+arg(*filters.TechnicianID))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	base := ` FROM visits v
		JOIN clients c ON c.id = v.client_id
		LEFT JOIN users t ON t.id = v.technician_id` + where

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*)"+base, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count visits: %w", err)
	}

	limit := arg(filters.PageSize)
	offset := arg((filters.Page - 1) * filters.PageSize)
	query := `SELECT v.id, v.title, v.client_id, c.name, v.technician_id, t.full_name,
		v.status_id, v.priority_id, v.scheduled_at, v.scheduled_end, v.created_at` +
		base + ` ORDER BY v.scheduled_at DESC NULLS LAST, v.created_at DESC LIMIT ` + limit + ` OFFSET ` + offset

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list visits: %w", err)
	}
	defer rows.Close()

	items := []ListItem{}
	for rows.Next() {
		var it ListItem
		if err := rows.Scan(
			&it.ID, &it.Title, &it.ClientID, &it.ClientName, &it.TechnicianID,
			&it.TechnicianName, &it.StatusID, &it.PriorityID, &it.ScheduledAt,
			&it.ScheduledEnd, &it.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan visit row: %w", err)
		}
		items = append(items, it)
	}
	return items, total, rows.Err()
}

// UpdateStatusQuery is the conditional write guarding against lost
// updates: the row is touched only while it still carries the status
// the caller computed against. Exported for query-shape tests.
const UpdateStatusQuery = `
	UPDATE visits
	SET status_id = $2,
		actual_start = CASE WHEN $3 THEN COALESCE(actual_start, now()) ELSE actual_start END,
		actual_end = CASE WHEN $4 THEN COALESCE(actual_end, now()) ELSE actual_end END,
		updated_at = now()
	WHERE id = $1 AND status_id = $5
	RETURNING actual_start, actual_end`

// InsertTransitionQuery is exported for query-shape tests.
const InsertTransitionQuery = `
	INSERT INTO visit_transitions (visit_id, author_id, previous_status_id, new_status_id, note)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, created_at`

// UpsertClosureQuery is exported for query-shape tests.
const UpsertClosureQuery = `
	INSERT INTO visit_closures (visit_id, summary, work_performed, started_at, ended_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (visit_id) DO UPDATE
	SET summary = EXCLUDED.summary,
		work_performed = EXCLUDED.work_performed,
		started_at = EXCLUDED.started_at,
		ended_at = EXCLUDED.ended_at,
		updated_at = now()`

// ApplyTransition performs the status update, the audit append and the
// optional closure upsert in one transaction. The conditional update
// returning no row means another transition won the race; the caller
// sees apperr.Conflict and nothing is written.
func (r *Repo) ApplyTransition(ctx context.Context, params TransitionParams, closure *ClosureParams) (domain.TransitionLogEntry, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.TransitionLogEntry{}, fmt.Errorf("begin transition: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var actualStart, actualEnd *time.Time
	err = tx.QueryRow(ctx, UpdateStatusQuery,
		params.VisitID, params.NewStatusID, params.SetActualStart,
		params.SetActualEnd, params.ExpectedStatusID,
	).Scan(&actualStart, &actualEnd)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.TransitionLogEntry{}, apperr.Conflict("visit status changed concurrently")
		}
		return domain.TransitionLogEntry{}, fmt.Errorf("update visit status: %w", err)
	}

	entry := domain.TransitionLogEntry{
		VisitID:          params.VisitID,
		AuthorID:         params.AuthorID,
		PreviousStatusID: &params.ExpectedStatusID,
		NewStatusID:      params.NewStatusID,
		Note:             params.Note,
	}
	err = tx.QueryRow(ctx, InsertTransitionQuery,
		params.VisitID, params.AuthorID, params.ExpectedStatusID,
		params.NewStatusID, params.Note,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return domain.TransitionLogEntry{}, fmt.Errorf("append transition log: %w", err)
	}

	if closure != nil {
		_, err = tx.Exec(ctx, UpsertClosureQuery,
			params.VisitID, closure.Summary, closure.WorkPerformed, actualStart, actualEnd,
		)
		if err != nil {
			return domain.TransitionLogEntry{}, fmt.Errorf("upsert closure: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.TransitionLogEntry{}, fmt.Errorf("commit transition: %w", err)
	}
	return entry, nil
}

// ListTransitionsQuery is exported for query-shape tests.
const ListTransitionsQuery = `
	SELECT id, visit_id, author_id, previous_status_id, new_status_id, note, created_at
	FROM visit_transitions
	WHERE visit_id = $1
	ORDER BY created_at ASC, id ASC`

// ListTransitions returns the visit's audit trail in replay order.
func (r *Repo) ListTransitions(ctx context.Context, visitID uuid.UUID) ([]domain.TransitionLogEntry, error) {
	rows, err := r.pool.Query(ctx, ListTransitionsQuery, visitID)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	defer rows.Close()

	var entries []domain.TransitionLogEntry
	for rows.Next() {
		var e domain.TransitionLogEntry
		if err := rows.Scan(&e.ID, &e.VisitID, &e.AuthorID, &e.PreviousStatusID,
			&e.NewStatusID, &e.Note, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// AddEvidence appends an evidence reference.
func (r *Repo) AddEvidence(ctx context.Context, params AddEvidenceParams) (uuid.UUID, error) {
	query := `
		INSERT INTO visit_evidence (visit_id, uploaded_by, url, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	var id uuid.UUID
	err := r.pool.QueryRow(ctx, query, params.VisitID, params.UploadedBy, params.URL, params.Description).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("add evidence: %w", err)
	}
	return id, nil
}

// ListEvidence returns a visit's evidence ordered by creation.
func (r *Repo) ListEvidence(ctx context.Context, visitID uuid.UUID) ([]domain.Evidence, error) {
	query := `
		SELECT id, visit_id, uploaded_by, url, description, created_at
		FROM visit_evidence
		WHERE visit_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, visitID)
	if err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}
	defer rows.Close()

	var items []domain.Evidence
	for rows.Next() {
		var e domain.Evidence
		if err := rows.Scan(&e.ID, &e.VisitID, &e.UploadedBy, &e.URL, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan evidence: %w", err)
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

// AddObservation appends an observation.
func (r *Repo) AddObservation(ctx context.Context, params AddObservationParams) (uuid.UUID, error) {
	query := `
		INSERT INTO visit_observations (visit_id, author_id, content, visibility)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	var id uuid.UUID
	err := r.pool.QueryRow(ctx, query, params.VisitID, params.AuthorID, params.Content, string(params.Visibility)).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("add observation: %w", err)
	}
	return id, nil
}

// ListObservations returns a visit's observations ordered by creation.
func (r *Repo) ListObservations(ctx context.Context, visitID uuid.UUID) ([]domain.Observation, error) {
	query := `
		SELECT id, visit_id, author_id, content, visibility, created_at
		FROM visit_observations
		WHERE visit_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, visitID)
	if err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}
	defer rows.Close()

	var items []domain.Observation
	for rows.Next() {
		var o domain.Observation
		var visibility string
		if err := rows.Scan(&o.ID, &o.VisitID, &o.AuthorID, &o.Content, &visibility, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		o.Visibility = domain.ObservationVisibility(visibility)
		items = append(items, o)
	}
	return items, rows.Err()
}

// GetClosure returns a visit's closure summary.
func (r *Repo) GetClosure(ctx context.Context, visitID uuid.UUID) (domain.ClosureSummary, error) {
	query := `
		SELECT visit_id, summary, work_performed, started_at, ended_at,
			notified_to, notified_at, created_at, updated_at
		FROM visit_closures
		WHERE visit_id = $1`

	var cs domain.ClosureSummary
	err := r.pool.QueryRow(ctx, query, visitID).Scan(
		&cs.VisitID, &cs.Summary, &cs.WorkPerformed, &cs.StartedAt, &cs.EndedAt,
		&cs.NotifiedTo, &cs.NotifiedAt, &cs.CreatedAt, &cs.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ClosureSummary{}, apperr.NotFound("closure not found")
		}
		return domain.ClosureSummary{}, fmt.Errorf("get closure: %w", err)
	}
	return cs, nil
}

// MarkClosureNotified records the delivery outcome in a separate,
// independent update after the completion transaction has committed.
func (r *Repo) MarkClosureNotified(ctx context.Context, visitID uuid.UUID, destination string, at time.Time) error {
	query := `
		UPDATE visit_closures
		SET notified_to = $2, notified_at = $3, updated_at = now()
		WHERE visit_id = $1`

	_, err := r.pool.Exec(ctx, query, visitID, destination, at)
	if err != nil {
		return fmt.Errorf("mark closure notified: %w", err)
	}
	return nil
}

// GetClientContact returns the notification destination for a visit.
func (r *Repo) GetClientContact(ctx context.Context, visitID uuid.UUID) (ClientContact, error) {
	query := `
		SELECT c.name, c.email
		FROM visits v
		JOIN clients c ON c.id = v.client_id
		WHERE v.id = $1`

	var contact ClientContact
	err := r.pool.QueryRow(ctx, query, visitID).Scan(&contact.Name, &contact.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ClientContact{}, apperr.NotFound(visitNotFoundMessage)
		}
		return ClientContact{}, fmt.Errorf("get client contact: %w", err)
	}
	return contact, nil
}
