package repository

import (
	"strings"
	"testing"
)

// The conditional update is the lost-update guard: it must only match
// when the status is still what the caller observed, and it must
// return the timestamps the closure upsert reuses.
func TestUpdateStatusQueryShape(t *testing.T) {
	for _, fragment := range []string{
		"status_id = $5",
		"RETURNING actual_start, actual_end",
		"COALESCE(actual_start, now())",
		"COALESCE(actual_end, now())",
		"updated_at = now()",
	} {
		if !strings.Contains(UpdateStatusQuery, fragment) {
			t.Fatalf("update query missing %q:\n%s", fragment, UpdateStatusQuery)
		}
	}
}

func TestInsertTransitionQueryShape(t *testing.T) {
	for _, fragment := range []string{"visit_transitions", "previous_status_id", "new_status_id", "note"} {
		if !strings.Contains(InsertTransitionQuery, fragment) {
			t.Fatalf("transition insert missing %q", fragment)
		}
	}
}

func TestUpsertClosureQueryShape(t *testing.T) {
	if !strings.Contains(UpsertClosureQuery, "ON CONFLICT (visit_id) DO UPDATE") {
		t.Fatalf("closure upsert must be idempotent per visit:\n%s", UpsertClosureQuery)
	}
}

// Replaying the log must reconstruct the status in insertion order, so
// the query needs a deterministic tiebreak.
func TestListTransitionsQueryOrder(t *testing.T) {
	if !strings.Contains(ListTransitionsQuery, "ORDER BY created_at ASC, id ASC") {
		t.Fatalf("transition list must be ordered deterministically:\n%s", ListTransitionsQuery)
	}
}
