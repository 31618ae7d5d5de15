// Package domain provides core business rules for the visits bounded context.
package domain

import (
	"strings"
	"time"

	"fieldops_backend/platform/apperr"
)

// Catalog group codes the engine depends on.
const (
	GroupStatus   = "visit_status"
	GroupPriority = "visit_priority"
	GroupType     = "visit_type"
)

// Technician-flow status codes (visit_status catalog group).
const (
	StatusScheduled = "PROGRAMADA"
	StatusEnRoute   = "EN_RUTA"
	StatusOnSite    = "EN_SITIO"
	StatusCompleted = "COMPLETADA"
	StatusCancelled = "CANCELADA"
)

// flowPositions fixes each status's index in the linear progression.
// CANCELADA has no position: it is reachable from any non-terminal
// state and never part of the sequence check.
var flowPositions = map[string]int{
	StatusScheduled: 0,
	StatusEnRoute:   1,
	StatusOnSite:    2,
	StatusCompleted: 3,
}

// terminalStatuses are states with no outgoing transitions.
var terminalStatuses = map[string]bool{
	StatusCompleted: true,
	StatusCancelled: true,
}

// FlowPosition returns a status code's index in the linear flow.
// The second return is false for codes outside the flow (CANCELADA
// or any foreign status the catalog may carry).
func FlowPosition(code string) (int, bool) {
	pos, ok := flowPositions[code]
	return pos, ok
}

// IsTerminal returns true if the status admits no further transitions.
func IsTerminal(code string) bool {
	return terminalStatuses[code]
}

// ValidateTransition checks the technician-flow sequence rule: the
// target must be CANCELADA (allowed from any non-terminal state) or
// sit exactly one position after the current status.
func ValidateTransition(currentCode, targetCode string) error {
	if IsTerminal(currentCode) {
		return apperr.Validation("invalid sequence")
	}
	if targetCode == StatusCancelled {
		return nil
	}
	currentPos, currentOK := FlowPosition(currentCode)
	targetPos, targetOK := FlowPosition(targetCode)
	if !currentOK || !targetOK || targetPos != currentPos+1 {
		return apperr.Validation("invalid sequence")
	}
	return nil
}

// TransitionEffects captures the derived timestamp writes a status
// change produces. Timestamps are set at most once and never cleared.
type TransitionEffects struct {
	SetActualStart bool
	SetActualEnd   bool
}

// FlowEffects derives timestamp effects for the technician flow:
// EN_RUTA starts the clock, COMPLETADA stops it. A completion with no
// recorded start backfills actual_start so actual_end never exists
// without it.
func FlowEffects(targetCode string, hasActualStart bool) TransitionEffects {
	var e TransitionEffects
	switch targetCode {
	case StatusEnRoute:
		e.SetActualStart = !hasActualStart
	case StatusCompleted:
		e.SetActualStart = !hasActualStart
		e.SetActualEnd = true
	}
	return e
}

// OverrideEffects derives timestamp effects for the administrative
// override path. It matches a distinct lowercase vocabulary and must
// stay separate from FlowEffects even though both feed the same audit
// mechanics; the divergence is intentional pending product review.
func OverrideEffects(targetCode string, hasActualStart bool) TransitionEffects {
	var e TransitionEffects
	switch strings.ToLower(targetCode) {
	case "en_progreso":
		e.SetActualStart = !hasActualStart
	case "resuelta":
		e.SetActualEnd = true
	}
	return e
}

// RequiresClosingNote reports whether the transition demands a
// non-blank note.
func RequiresClosingNote(targetCode string) bool {
	return targetCode == StatusCompleted
}

// ValidateClosingNote enforces the non-blank note rule for completion.
func ValidateClosingNote(note string) error {
	if strings.TrimSpace(note) == "" {
		return apperr.Validation("closing note required")
	}
	return nil
}

// ValidateScheduleWindow rejects inverted schedule windows.
func ValidateScheduleWindow(start, end *time.Time) error {
	if start != nil && end != nil && !end.After(*start) {
		return apperr.BadRequest("schedule end must be after start")
	}
	return nil
}
