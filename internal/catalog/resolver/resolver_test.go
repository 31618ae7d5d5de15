package resolver

import (
	"context"
	"testing"

	"fieldops_backend/internal/catalog/repository"
	"fieldops_backend/platform/apperr"
)

type stubRepo struct {
	entries []repository.Entry
	loads   int
}

func (r *stubRepo) ListAll(_ context.Context) ([]repository.Entry, error) {
	r.loads++
	return r.entries, nil
}

func (r *stubRepo) ListGroup(_ context.Context, group string) ([]repository.Entry, error) {
	var out []repository.Entry
	for _, e := range r.entries {
		if e.GroupCode == group {
			out = append(out, e)
		}
	}
	return out, nil
}

func seededRepo() *stubRepo {
	return &stubRepo{entries: []repository.Entry{
		{ID: 1, GroupCode: "visit_status", Code: "PROGRAMADA", Label: "Programada", IsDefault: true},
		{ID: 2, GroupCode: "visit_status", Code: "EN_RUTA", Label: "En ruta"},
		{ID: 10, GroupCode: "visit_priority", Code: "MEDIA", Label: "Media", IsDefault: true},
		{ID: 20, GroupCode: "visit_type", Code: "MANTENIMIENTO", Label: "Mantenimiento"},
	}}
}

func TestResolveIDCaseInsensitive(t *testing.T) {
	r := New(seededRepo())
	ctx := context.Background()

	for _, code := range []string{"PROGRAMADA", "programada", "Programada"} {
		id, err := r.ResolveID(ctx, "visit_status", code)
		if err != nil {
			t.Fatalf("ResolveID(%q): %v", code, err)
		}
		if id != 1 {
			t.Fatalf("ResolveID(%q) = %d, want 1", code, id)
		}
	}
}

func TestResolveIDScopedByGroup(t *testing.T) {
	r := New(seededRepo())

	_, err := r.ResolveID(context.Background(), "visit_priority", "PROGRAMADA")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("cross-group lookup = %v, want not found", err)
	}
}

func TestResolveCode(t *testing.T) {
	r := New(seededRepo())

	entry, err := r.ResolveCode(context.Background(), 2)
	if err != nil {
		t.Fatalf("ResolveCode: %v", err)
	}
	if entry.Code != "EN_RUTA" || entry.GroupCode != "visit_status" {
		t.Fatalf("ResolveCode(2) = %+v", entry)
	}

	if _, err := r.ResolveCode(context.Background(), 999); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("unknown id = %v, want not found", err)
	}
}

func TestDefaultFor(t *testing.T) {
	r := New(seededRepo())

	id, err := r.DefaultFor(context.Background(), "visit_status")
	if err != nil {
		t.Fatalf("DefaultFor: %v", err)
	}
	if id != 1 {
		t.Fatalf("DefaultFor(visit_status) = %d, want 1", id)
	}
}

func TestDefaultForMissingIsConfigurationError(t *testing.T) {
	r := New(seededRepo())

	_, err := r.DefaultFor(context.Background(), "visit_type")
	if !apperr.Is(err, apperr.KindConfiguration) {
		t.Fatalf("group without default = %v, want configuration error", err)
	}
}

func TestCatalogLoadedOnce(t *testing.T) {
	repo := seededRepo()
	r := New(repo)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := r.ResolveID(ctx, "visit_status", "EN_RUTA"); err != nil {
			t.Fatalf("ResolveID: %v", err)
		}
		if _, err := r.ResolveCode(ctx, 10); err != nil {
			t.Fatalf("ResolveCode: %v", err)
		}
	}
	if repo.loads != 1 {
		t.Fatalf("catalog loaded %d times, want 1", repo.loads)
	}
}
