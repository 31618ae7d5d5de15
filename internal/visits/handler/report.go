package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fieldops_backend/internal/pdf"
	"fieldops_backend/internal/visits/domain"
	"fieldops_backend/platform/apperr"
	"fieldops_backend/platform/httpkit"
)

// RegisterReportRoutes registers the PDF report endpoint.
func (h *Handler) RegisterReportRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id/report.pdf", h.Report)
}

// Report renders the visit report PDF for admins and supervisors.
func (h *Handler) Report(c *gin.Context) {
	actor, ok := h.actorFrom(c)
	if !ok {
		return
	}
	if actor.Role != domain.RoleAdmin && actor.Role != domain.RoleSupervisor {
		httpkit.HandleError(c, h.log, apperr.Forbidden("report access is limited to admins and supervisors"))
		return
	}
	id, ok := h.visitID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	detail, err := h.svc.GetDetail(ctx, actor, id)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	observations, err := h.svc.ListObservations(ctx, actor, id)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	evidence, err := h.svc.ListEvidence(ctx, actor, id)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	history, err := h.svc.History(ctx, actor, id)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	closure := h.svc.Closure(ctx, id)

	data := pdf.VisitReportData{
		VisitID:      detail.Detail.Visit.ID.String(),
		Title:        detail.Detail.Visit.Title,
		ClientName:   detail.Detail.ClientName,
		StatusLabel:  detail.Status.Label,
		ScheduledAt:  detail.Detail.Visit.ScheduledAt,
		ScheduledEnd: detail.Detail.Visit.ScheduledEnd,
		ActualStart:  detail.Detail.Visit.ActualStart,
		ActualEnd:    detail.Detail.Visit.ActualEnd,
	}
	if detail.Detail.Visit.Description != nil {
		data.Description = *detail.Detail.Visit.Description
	}
	if detail.Detail.LocationLabel != nil {
		data.LocationLabel = *detail.Detail.LocationLabel
	}
	if detail.Detail.TechnicianName != nil {
		data.TechnicianName = *detail.Detail.TechnicianName
	}
	if detail.Priority != nil {
		data.Priority = detail.Priority.Label
	}
	if detail.Type != nil {
		data.Type = detail.Type.Label
	}
	if closure != nil {
		data.Summary = closure.Summary
		data.WorkPerformed = closure.WorkPerformed
	}
	for _, o := range observations {
		data.Observations = append(data.Observations, pdf.ObservationLine{
			Content:    o.Content,
			Visibility: string(o.Visibility),
			CreatedAt:  o.CreatedAt,
		})
	}
	for _, e := range evidence {
		line := pdf.EvidenceLine{URL: e.URL, CreatedAt: e.CreatedAt}
		if e.Description != nil {
			line.Description = *e.Description
		}
		data.Evidence = append(data.Evidence, line)
	}
	for _, entry := range history {
		line := pdf.HistoryLine{To: entry.NewLabel, CreatedAt: entry.CreatedAt}
		if entry.PreviousCode != nil {
			line.From = *entry.PreviousCode
		}
		if entry.Note != nil {
			line.Note = *entry.Note
		}
		data.History = append(data.History, line)
	}

	doc, err := pdf.GenerateVisitReport(data)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="visit-report.pdf"`)
	c.Data(http.StatusOK, "application/pdf", doc)
}
