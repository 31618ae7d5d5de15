// Package resolver translates symbolic catalog codes to ids and back.
// The catalog is read-only from the engine's perspective, so entries
// are cached per process after the first load.
package resolver

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"fieldops_backend/internal/catalog/repository"
	"fieldops_backend/platform/apperr"
)

// Resolver answers code/id lookups scoped by catalog group.
type Resolver struct {
	repo repository.Repository

	mu       sync.RWMutex
	loaded   bool
	byKey    map[string]repository.Entry // group + "\x00" + lowercase code
	byID     map[int]repository.Entry
	defaults map[string]repository.Entry // group -> default entry
}

// New creates a resolver backed by the catalog repository.
func New(repo repository.Repository) *Resolver {
	return &Resolver{repo: repo}
}

func key(group, code string) string {
	return group + "\x00" + strings.ToLower(code)
}

// ensureLoaded populates the cache on first use.
func (r *Resolver) ensureLoaded(ctx context.Context) error {
	r.mu.RLock()
	loaded := r.loaded
	r.mu.RUnlock()
	if loaded {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		return nil
	}

	entries, err := r.repo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	r.byKey = make(map[string]repository.Entry, len(entries))
	r.byID = make(map[int]repository.Entry, len(entries))
	r.defaults = make(map[string]repository.Entry)
	for _, e := range entries {
		r.byKey[key(e.GroupCode, e.Code)] = e
		r.byID[e.ID] = e
		if e.IsDefault {
			r.defaults[e.GroupCode] = e
		}
	}
	r.loaded = true
	return nil
}

// ResolveID returns the id of a code within a group. Matching is
// case-insensitive.
func (r *Resolver) ResolveID(ctx context.Context, group, code string) (int, error) {
	if err := r.ensureLoaded(ctx); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.byKey[key(group, code)]
	if !ok {
		return 0, apperr.NotFound("unknown catalog code")
	}
	return entry.ID, nil
}

// ResolveCode returns the full entry for an id.
func (r *Resolver) ResolveCode(ctx context.Context, id int) (repository.Entry, error) {
	if err := r.ensureLoaded(ctx); err != nil {
		return repository.Entry{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.byID[id]
	if !ok {
		return repository.Entry{}, apperr.NotFound("unknown catalog id")
	}
	return entry, nil
}

// DefaultFor returns the id of a group's configured default entry.
// A missing default is a deployment misconfiguration, not a user error.
func (r *Resolver) DefaultFor(ctx context.Context, group string) (int, error) {
	if err := r.ensureLoaded(ctx); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.defaults[group]
	if !ok {
		return 0, apperr.Configuration("no default entry for catalog group " + group)
	}
	return entry.ID, nil
}
