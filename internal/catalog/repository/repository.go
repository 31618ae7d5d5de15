// Package repository provides read access to the catalog tables.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is one catalog row: a symbolic code within a named group.
type Entry struct {
	ID        int    `json:"id"`
	GroupCode string `json:"group"`
	Code      string `json:"code"`
	Label     string `json:"label"`
	IsDefault bool   `json:"isDefault"`
}

// Repository reads catalog entries. The engine never writes the
// catalog; administration happens elsewhere.
type Repository interface {
	ListAll(ctx context.Context) ([]Entry, error)
	ListGroup(ctx context.Context, group string) ([]Entry, error)
}

// Repo implements Repository against Postgres.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new catalog repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

// ListAllQuery is exported for query-shape tests.
const ListAllQuery = `
	SELECT id, group_code, code, label, is_default
	FROM catalog_items
	ORDER BY group_code, sort_order, id`

// ListAll returns every catalog entry across all groups.
func (r *Repo) ListAll(ctx context.Context) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, ListAllQuery)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.GroupCode, &e.Code, &e.Label, &e.IsDefault); err != nil {
			return nil, fmt.Errorf("scan catalog entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListGroupQuery is exported for query-shape tests.
const ListGroupQuery = `
	SELECT id, group_code, code, label, is_default
	FROM catalog_items
	WHERE group_code = $1
	ORDER BY sort_order, id`

// ListGroup returns the entries of a single catalog group.
func (r *Repo) ListGroup(ctx context.Context, group string) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, ListGroupQuery, group)
	if err != nil {
		return nil, fmt.Errorf("list catalog group: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.GroupCode, &e.Code, &e.Label, &e.IsDefault); err != nil {
			return nil, fmt.Errorf("scan catalog entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
