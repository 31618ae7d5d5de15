// Package repository persists clients and their locations.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fieldops_backend/platform/apperr"
)

const clientNotFoundMessage = "client not found"

// Client is a serviced customer.
type Client struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Location is a client service address, optionally geocoded.
type Location struct {
	ID        uuid.UUID `json:"id"`
	ClientID  uuid.UUID `json:"clientId"`
	Label     string    `json:"label"`
	Address   *string   `json:"address,omitempty"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateClientParams holds the fields for a new client.
type CreateClientParams struct {
	Name  string
	Email *string
	Phone *string
	Notes *string
}

// UpdateClientParams holds the mutable client fields; nil leaves a
// field unchanged.
type UpdateClientParams struct {
	ID    uuid.UUID
	Name  *string
	Email *string
	Phone *string
	Notes *string
}

// CreateLocationParams holds the fields for a new location.
type CreateLocationParams struct {
	ClientID  uuid.UUID
	Label     string
	Address   *string
	Latitude  *float64
	Longitude *float64
}

// Repository is the clients persistence port.
type Repository interface {
	Create(ctx context.Context, params CreateClientParams) (Client, error)
	Update(ctx context.Context, params UpdateClientParams) (Client, error)
	GetByID(ctx context.Context, id uuid.UUID) (Client, error)
	List(ctx context.Context, search string, page, pageSize int) ([]Client, int, error)
	AddLocation(ctx context.Context, params CreateLocationParams) (Location, error)
	ListLocations(ctx context.Context, clientID uuid.UUID) ([]Location, error)
}

// Repo implements Repository against Postgres.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new clients repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

const clientColumns = "id, name, email, phone, notes, created_at, updated_at"

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, apperr.NotFound(clientNotFoundMessage)
		}
		return Client{}, fmt.Errorf("scan client: %w", err)
	}
	return c, nil
}

// Create inserts a new client.
func (r *Repo) Create(ctx context.Context, params CreateClientParams) (Client, error) {
	query := `
		INSERT INTO clients (name, email, phone, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + clientColumns
	return scanClient(r.pool.QueryRow(ctx, query, params.Name, params.Email, params.Phone, params.Notes))
}

// Update patches a client's fields.
func (r *Repo) Update(ctx context.Context, params UpdateClientParams) (Client, error) {
	query := `
		UPDATE clients
		SET name = COALESCE($2, name),
			email = COALESCE($3, email),
			phone = COALESCE($4, phone),
			notes = COALESCE($5, notes),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + clientColumns
	return scanClient(r.pool.QueryRow(ctx, query, params.ID, params.Name, params.Email, params.Phone, params.Notes))
}

// GetByID returns one client.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`
	return scanClient(r.pool.QueryRow(ctx, query, id))
}

// List returns clients matched by name/email with the total count.
func (r *Repo) List(ctx context.Context, search string, page, pageSize int) ([]Client, int, error) {
	where := ""
	args := []any{}
	if search != "" {
		where = " WHERE name ILIKE $1 OR email ILIKE $1"
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM clients"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count clients: %w", err)
	}

	args = append(args, pageSize, (page-1)*pageSize)
	query := fmt.Sprintf("SELECT %s FROM clients%s ORDER BY name ASC LIMIT $%d OFFSET $%d",
		clientColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	clients := []Client{}
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, total, rows.Err()
}

// AddLocation inserts a client location.
func (r *Repo) AddLocation(ctx context.Context, params CreateLocationParams) (Location, error) {
	query := `
		INSERT INTO client_locations (client_id, label, address, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, client_id, label, address, latitude, longitude, created_at`

	var l Location
	err := r.pool.QueryRow(ctx, query,
		params.ClientID, params.Label, params.Address, params.Latitude, params.Longitude,
	).Scan(&l.ID, &l.ClientID, &l.Label, &l.Address, &l.Latitude, &l.Longitude, &l.CreatedAt)
	if err != nil {
		return Location{}, fmt.Errorf("add location: %w", err)
	}
	return l, nil
}

// ListLocations returns a client's locations.
func (r *Repo) ListLocations(ctx context.Context, clientID uuid.UUID) ([]Location, error) {
	query := `
		SELECT id, client_id, label, address, latitude, longitude, created_at
		FROM client_locations
		WHERE client_id = $1
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	locations := []Location{}
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.ID, &l.ClientID, &l.Label, &l.Address, &l.Latitude, &l.Longitude, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}
