// Package repository reads the user directory.
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

// User is a directory entry.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	FullName     string     `json:"fullName"`
	Role         string     `json:"role"`
	SupervisorID *uuid.UUID `json:"supervisorId,omitempty"`
	IsActive     bool       `json:"isActive"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
}

// Repo reads users from Postgres.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a users repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const userColumns = "id, email, full_name, role, supervisor_id, is_active, last_login_at"

// GetByID returns one user.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var u User
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.Email, &u.FullName, &u.Role, &u.SupervisorID, &u.IsActive, &u.LastLoginAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, apperr.NotFound("user not found")
		}
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// ListTechnicians returns active technicians, optionally restricted to
// one supervisor's team.
func (r *Repo) ListTechnicians(ctx context.Context, supervisorID *uuid.UUID) ([]User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE role = 'technician' AND is_active
		  AND ($1::uuid IS NULL OR supervisor_id = $1)
		ORDER BY full_name ASC`

	rows, err := r.pool.Query(ctx, query, supervisorID)
	if err != nil {
		return nil, fmt.Errorf("list technicians: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.SupervisorID, &u.IsActive, &u.LastLoginAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ActiveTechnicianIDs returns the ids of a supervisor's active
// technicians.
func (r *Repo) ActiveTechnicianIDs(ctx context.Context, supervisorID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT id FROM users
		WHERE role = 'technician' AND is_active AND supervisor_id = $1`

	rows, err := r.pool.Query(ctx, query, supervisorID)
	if err != nil {
		return nil, fmt.Errorf("list team technicians: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan technician id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
