// Package transport defines the visits request/response DTOs.
package transport

import (
	"time"

	"github.com/google/uuid"

	"fieldops_backend/internal/visits/domain"
	"fieldops_backend/internal/visits/service"
)

// CreateVisitRequest is the visit creation payload.
type CreateVisitRequest struct {
	ClientID     uuid.UUID  `json:"clientId" binding:"required"`
	LocationID   *uuid.UUID `json:"locationId"`
	Title        string     `json:"title" binding:"required,max=200"`
	Description  *string    `json:"description"`
	TechnicianID *uuid.UUID `json:"technicianId"`
	Status       *string    `json:"status"`
	Priority     *string    `json:"priority"`
	Type         *string    `json:"type"`
	ScheduledAt  *time.Time `json:"scheduledAt"`
	ScheduledEnd *time.Time `json:"scheduledEnd"`
}

// TransitionRequest is the technician-flow transition payload.
type TransitionRequest struct {
	Status string   `json:"status" binding:"required"`
	Note   *string  `json:"note"`
	Lat    *float64 `json:"lat" binding:"omitempty,latitude_opt"`
	Lng    *float64 `json:"lng" binding:"omitempty,longitude_opt"`
}

// Reported returns the reported position, or nil when either
// coordinate is missing.
func (r TransitionRequest) Reported() *domain.Coordinates {
	if r.Lat == nil || r.Lng == nil {
		return nil
	}
	return &domain.Coordinates{Lat: *r.Lat, Lng: *r.Lng}
}

// OverrideStatusRequest is the administrative override payload.
type OverrideStatusRequest struct {
	StatusID int    `json:"statusId" binding:"required"`
	Note     string `json:"note" binding:"required"`
}

// EvidenceRequest appends an evidence reference.
type EvidenceRequest struct {
	URL         string  `json:"url" binding:"required,url"`
	Description *string `json:"description"`
}

// ObservationRequest appends an observation.
type ObservationRequest struct {
	Content    string `json:"content" binding:"required"`
	Visibility string `json:"visibility" binding:"omitempty,oneof=internal public client"`
}

// CompleteRequest is the administrative completion payload.
type CompleteRequest struct {
	Summary       string `json:"summary" binding:"required"`
	WorkPerformed string `json:"workPerformed"`
}

// VisitDetail is the full visit projection returned to clients.
type VisitDetail struct {
	ID               uuid.UUID  `json:"id"`
	ClientID         uuid.UUID  `json:"clientId"`
	ClientName       string     `json:"clientName"`
	LocationID       *uuid.UUID `json:"locationId,omitempty"`
	LocationLabel    *string    `json:"locationLabel,omitempty"`
	Title            string     `json:"title"`
	Description      *string    `json:"description,omitempty"`
	TechnicianID     *uuid.UUID `json:"technicianId,omitempty"`
	TechnicianName   *string    `json:"technicianName,omitempty"`
	Status           string     `json:"status"`
	StatusLabel      string     `json:"statusLabel"`
	Priority         *string    `json:"priority,omitempty"`
	Type             *string    `json:"type,omitempty"`
	ScheduledAt      *time.Time `json:"scheduledAt,omitempty"`
	ScheduledEnd     *time.Time `json:"scheduledEnd,omitempty"`
	ActualStart      *time.Time `json:"actualStart,omitempty"`
	ActualEnd        *time.Time `json:"actualEnd,omitempty"`
	EvidenceCount    int        `json:"evidenceCount"`
	ObservationCount int        `json:"observationCount"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// NewVisitDetail maps the service projection to the response DTO.
func NewVisitDetail(out service.DetailOutput) VisitDetail {
	v := out.Detail.Visit
	d := VisitDetail{
		ID:               v.ID,
		ClientID:         v.ClientID,
		ClientName:       out.Detail.ClientName,
		LocationID:       v.LocationID,
		LocationLabel:    out.Detail.LocationLabel,
		Title:            v.Title,
		Description:      v.Description,
		TechnicianID:     v.TechnicianID,
		TechnicianName:   out.Detail.TechnicianName,
		Status:           out.Status.Code,
		StatusLabel:      out.Status.Label,
		ScheduledAt:      v.ScheduledAt,
		ScheduledEnd:     v.ScheduledEnd,
		ActualStart:      v.ActualStart,
		ActualEnd:        v.ActualEnd,
		EvidenceCount:    out.Detail.EvidenceCount,
		ObservationCount: out.Detail.ObservationCount,
		CreatedAt:        v.CreatedAt,
		UpdatedAt:        v.UpdatedAt,
	}
	if out.Priority != nil {
		d.Priority = &out.Priority.Code
	}
	if out.Type != nil {
		d.Type = &out.Type.Code
	}
	return d
}

// EvidenceItem is one evidence row.
type EvidenceItem struct {
	ID          uuid.UUID `json:"id"`
	UploadedBy  uuid.UUID `json:"uploadedBy"`
	URL         string    `json:"url"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewEvidenceItems maps domain evidence to response DTOs.
func NewEvidenceItems(items []domain.Evidence) []EvidenceItem {
	out := make([]EvidenceItem, 0, len(items))
	for _, e := range items {
		out = append(out, EvidenceItem{
			ID:          e.ID,
			UploadedBy:  e.UploadedBy,
			URL:         e.URL,
			Description: e.Description,
			CreatedAt:   e.CreatedAt,
		})
	}
	return out
}

// ObservationItem is one observation row.
type ObservationItem struct {
	ID         uuid.UUID `json:"id"`
	AuthorID   uuid.UUID `json:"authorId"`
	Content    string    `json:"content"`
	Visibility string    `json:"visibility"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewObservationItems maps domain observations to response DTOs.
func NewObservationItems(items []domain.Observation) []ObservationItem {
	out := make([]ObservationItem, 0, len(items))
	for _, o := range items {
		out = append(out, ObservationItem{
			ID:         o.ID,
			AuthorID:   o.AuthorID,
			Content:    o.Content,
			Visibility: string(o.Visibility),
			CreatedAt:  o.CreatedAt,
		})
	}
	return out
}
