// Package repository provides credential lookup for authentication.
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

// Credential is the authentication projection of a user row.
type Credential struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FullName     string
	Role         string
	IsActive     bool
	LastLoginAt  *time.Time
}

// Repository looks up credentials by email.
type Repository interface {
	GetByEmail(ctx context.Context, email string) (Credential, error)
	TouchLastLogin(ctx context.Context, userID uuid.UUID) error
}

// Repo implements Repository against Postgres.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new auth repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

// GetByEmailQuery is exported for query-shape tests.
const GetByEmailQuery = `
	SELECT id, email, password_hash, full_name, role, is_active, last_login_at
	FROM users
	WHERE lower(email) = lower($1)`

// GetByEmail returns the credential row for an email address.
func (r *Repo) GetByEmail(ctx context.Context, email string) (Credential, error) {
	var cred Credential
	err := r.pool.QueryRow(ctx, GetByEmailQuery, email).Scan(
		&cred.ID, &cred.Email, &cred.PasswordHash, &cred.FullName,
		&cred.Role, &cred.IsActive, &cred.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Credential{}, apperr.NotFound("user not found")
		}
		return Credential{}, fmt.Errorf("get user by email: %w", err)
	}
	return cred, nil
}

// TouchLastLogin records a successful login timestamp.
func (r *Repo) TouchLastLogin(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login_at = now() WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}
