package domain

import (
	"testing"
	"time"

	"fieldops_backend/platform/apperr"
)

func TestValidateTransitionSequence(t *testing.T) {
	cases := []struct {
		name    string
		current string
		target  string
		wantErr bool
	}{
		{"scheduled to en route", StatusScheduled, StatusEnRoute, false},
		{"en route to on site", StatusEnRoute, StatusOnSite, false},
		{"on site to completed", StatusOnSite, StatusCompleted, false},
		{"skip en route", StatusScheduled, StatusOnSite, true},
		{"skip to completed", StatusScheduled, StatusCompleted, true},
		{"backwards", StatusOnSite, StatusEnRoute, true},
		{"same status", StatusEnRoute, StatusEnRoute, true},
		{"cancel from scheduled", StatusScheduled, StatusCancelled, false},
		{"cancel from en route", StatusEnRoute, StatusCancelled, false},
		{"cancel from on site", StatusOnSite, StatusCancelled, false},
		{"out of completed", StatusCompleted, StatusEnRoute, true},
		{"cancel completed", StatusCompleted, StatusCancelled, true},
		{"out of cancelled", StatusCancelled, StatusScheduled, true},
		{"unknown current", "FOREIGN", StatusEnRoute, true},
		{"unknown target", StatusScheduled, "FOREIGN", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateTransition(tc.current, tc.target)
			if tc.wantErr && err == nil {
				t.Fatalf("ValidateTransition(%q, %q) = nil, want error", tc.current, tc.target)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("ValidateTransition(%q, %q) = %v, want nil", tc.current, tc.target, err)
			}
			if tc.wantErr && !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("ValidateTransition(%q, %q) kind = %v, want validation", tc.current, tc.target, apperr.GetKind(err))
			}
		})
	}
}

func TestFlowEffects(t *testing.T) {
	cases := []struct {
		name           string
		target         string
		hasActualStart bool
		want           TransitionEffects
	}{
		{"en route sets start", StatusEnRoute, false, TransitionEffects{SetActualStart: true}},
		{"en route keeps existing start", StatusEnRoute, true, TransitionEffects{}},
		{"on site sets nothing", StatusOnSite, false, TransitionEffects{}},
		{"completed sets end", StatusCompleted, true, TransitionEffects{SetActualEnd: true}},
		{"completed backfills start", StatusCompleted, false, TransitionEffects{SetActualStart: true, SetActualEnd: true}},
		{"cancelled sets nothing", StatusCancelled, false, TransitionEffects{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FlowEffects(tc.target, tc.hasActualStart)
			if got != tc.want {
				t.Fatalf("FlowEffects(%q, %v) = %+v, want %+v", tc.target, tc.hasActualStart, got, tc.want)
			}
		})
	}
}

func TestOverrideEffectsUsesItsOwnVocabulary(t *testing.T) {
	cases := []struct {
		name           string
		target         string
		hasActualStart bool
		want           TransitionEffects
	}{
		{"en_progreso sets start", "en_progreso", false, TransitionEffects{SetActualStart: true}},
		{"en_progreso keeps existing start", "en_progreso", true, TransitionEffects{}},
		{"resuelta sets end", "resuelta", false, TransitionEffects{SetActualEnd: true}},
		{"resuelta sets end even with start", "resuelta", true, TransitionEffects{SetActualEnd: true}},
		{"cancelada sets nothing", "cancelada", false, TransitionEffects{}},
		{"case insensitive", "RESUELTA", false, TransitionEffects{SetActualEnd: true}},
		// The flow vocabulary must not leak into the override path.
		{"flow code EN_RUTA ignored", StatusEnRoute, false, TransitionEffects{}},
		{"flow code COMPLETADA ignored", StatusCompleted, false, TransitionEffects{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := OverrideEffects(tc.target, tc.hasActualStart)
			if got != tc.want {
				t.Fatalf("OverrideEffects(%q, %v) = %+v, want %+v", tc.target, tc.hasActualStart, got, tc.want)
			}
		})
	}
}

func TestValidateClosingNote(t *testing.T) {
	if err := ValidateClosingNote("se reemplazó la bomba"); err != nil {
		t.Fatalf("valid note rejected: %v", err)
	}
	for _, note := range []string{"", "   ", "\t\n"} {
		err := ValidateClosingNote(note)
		if !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("ValidateClosingNote(%q) = %v, want validation error", note, err)
		}
	}
}

func TestRequiresClosingNote(t *testing.T) {
	if !RequiresClosingNote(StatusCompleted) {
		t.Fatal("completion must require a note")
	}
	for _, code := range []string{StatusScheduled, StatusEnRoute, StatusOnSite, StatusCancelled} {
		if RequiresClosingNote(code) {
			t.Fatalf("%s must not require a note", code)
		}
	}
}

func TestValidateScheduleWindow(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	if err := ValidateScheduleWindow(&start, &end); err != nil {
		t.Fatalf("valid window rejected: %v", err)
	}
	if err := ValidateScheduleWindow(nil, &end); err != nil {
		t.Fatalf("open start rejected: %v", err)
	}
	if err := ValidateScheduleWindow(&start, nil); err != nil {
		t.Fatalf("open end rejected: %v", err)
	}
	if err := ValidateScheduleWindow(&end, &start); !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("inverted window = %v, want bad request", err)
	}
	if err := ValidateScheduleWindow(&start, &start); !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("zero-length window = %v, want bad request", err)
	}
}
