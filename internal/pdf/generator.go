// Package pdf renders the visit report document using maroto/v2.
// The report is a read-only projection: visit header, schedule and
// status data, ordered observations, the evidence list and the closure
// summary when present.
package pdf

import (
	"fmt"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var (
	colorPrimary   = &props.Color{Red: 17, Green: 24, Blue: 39}    // near-black
	colorSecondary = &props.Color{Red: 107, Green: 114, Blue: 128} // gray-500
	colorAccent    = &props.Color{Red: 31, Green: 58, Blue: 95}    // navy
	colorTableHead = &props.Color{Red: 241, Green: 245, Blue: 249} // slate-100
	colorBorder    = &props.Color{Red: 226, Green: 232, Blue: 240} // slate-200
)

// ObservationLine is one observation row on the report.
type ObservationLine struct {
	Content    string
	Visibility string
	CreatedAt  time.Time
}

// EvidenceLine is one evidence row on the report.
type EvidenceLine struct {
	URL         string
	Description string
	CreatedAt   time.Time
}

// HistoryLine is one audit-trail row on the report.
type HistoryLine struct {
	From      string
	To        string
	Note      string
	CreatedAt time.Time
}

// VisitReportData holds all data needed to render a visit report.
type VisitReportData struct {
	VisitID        string
	Title          string
	Description    string
	ClientName     string
	LocationLabel  string
	TechnicianName string
	StatusLabel    string
	Priority       string
	Type           string
	ScheduledAt    *time.Time
	ScheduledEnd   *time.Time
	ActualStart    *time.Time
	ActualEnd      *time.Time

	Summary       string
	WorkPerformed string

	Observations []ObservationLine
	Evidence     []EvidenceLine
	History      []HistoryLine
}

// GenerateVisitReport renders the visit report PDF.
func GenerateVisitReport(data VisitReportData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithLeftMargin(15).
		WithTopMargin(12).
		WithRightMargin(15).
		Build()

	m := maroto.New(cfg)

	if err := m.RegisterFooter(buildFooter(data)); err != nil {
		return nil, fmt.Errorf("register footer: %w", err)
	}

	m.AddRows(buildHeader(data)...)
	m.AddRows(separator(), row.New(4))
	m.AddRows(buildMetaBlock(data)...)
	m.AddRows(row.New(4))

	if data.Summary != "" || data.WorkPerformed != "" {
		m.AddRows(buildClosureBlock(data)...)
		m.AddRows(row.New(4))
	}
	if len(data.Observations) > 0 {
		m.AddRows(buildObservationsTable(data)...)
		m.AddRows(row.New(4))
	}
	if len(data.Evidence) > 0 {
		m.AddRows(buildEvidenceTable(data)...)
		m.AddRows(row.New(4))
	}
	if len(data.History) > 0 {
		m.AddRows(buildHistoryTable(data)...)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

func buildHeader(data VisitReportData) []core.Row {
	return []core.Row{
		row.New(18).Add(
			col.New(7).Add(
				text.New("REPORTE DE VISITA", props.Text{
					Size:  20,
					Style: fontstyle.Bold,
					Color: colorAccent,
				}),
				text.New(data.Title, props.Text{
					Size:  11,
					Color: colorPrimary,
					Top:   10,
				}),
			),
			col.New(5).Add(
				text.New(data.StatusLabel, props.Text{
					Size:  12,
					Style: fontstyle.Bold,
					Align: align.Right,
					Color: colorAccent,
				}),
				text.New(data.VisitID, props.Text{
					Size:  7,
					Align: align.Right,
					Color: colorSecondary,
					Top:   10,
				}),
			),
		),
	}
}

func separator() core.Row {
	return row.New(1).WithStyle(&props.Cell{
		BorderType:  border.Bottom,
		BorderColor: colorBorder,
	})
}

func metaRow(label, value string) core.Row {
	return row.New(6).Add(
		col.New(3).Add(text.New(label, props.Text{Size: 8, Style: fontstyle.Bold, Color: colorSecondary})),
		col.New(9).Add(text.New(value, props.Text{Size: 9, Color: colorPrimary})),
	)
}

func buildMetaBlock(data VisitReportData) []core.Row {
	rows := []core.Row{
		metaRow("Cliente", data.ClientName),
	}
	if data.LocationLabel != "" {
		rows = append(rows, metaRow("Ubicación", data.LocationLabel))
	}
	if data.TechnicianName != "" {
		rows = append(rows, metaRow("Técnico", data.TechnicianName))
	}
	if data.Priority != "" {
		rows = append(rows, metaRow("Prioridad", data.Priority))
	}
	if data.Type != "" {
		rows = append(rows, metaRow("Tipo", data.Type))
	}
	rows = append(rows,
		metaRow("Programada", formatWindow(data.ScheduledAt, data.ScheduledEnd)),
		metaRow("Ejecutada", formatWindow(data.ActualStart, data.ActualEnd)),
	)
	if data.Description != "" {
		rows = append(rows, metaRow("Descripción", data.Description))
	}
	return rows
}

func buildClosureBlock(data VisitReportData) []core.Row {
	rows := []core.Row{sectionTitle("Cierre")}
	if data.Summary != "" {
		rows = append(rows, metaRow("Resumen", data.Summary))
	}
	if data.WorkPerformed != "" {
		rows = append(rows, metaRow("Trabajo realizado", data.WorkPerformed))
	}
	return rows
}

func sectionTitle(title string) core.Row {
	return row.New(8).Add(
		col.New(12).Add(
			text.New(title, props.Text{
				Size:  11,
				Style: fontstyle.Bold,
				Color: colorAccent,
				Top:   2,
			}),
		),
	).WithStyle(&props.Cell{BackgroundColor: colorTableHead})
}

func buildObservationsTable(data VisitReportData) []core.Row {
	rows := []core.Row{sectionTitle("Observaciones")}
	for _, o := range data.Observations {
		rows = append(rows, row.New(7).Add(
			col.New(2).Add(text.New(o.CreatedAt.Format("02/01 15:04"), props.Text{Size: 7, Color: colorSecondary})),
			col.New(2).Add(text.New(o.Visibility, props.Text{Size: 7, Color: colorSecondary})),
			col.New(8).Add(text.New(o.Content, props.Text{Size: 8, Color: colorPrimary})),
		))
	}
	return rows
}

func buildEvidenceTable(data VisitReportData) []core.Row {
	rows := []core.Row{sectionTitle("Evidencias")}
	for _, e := range data.Evidence {
		label := e.URL
		if e.Description != "" {
			label = e.Description + " - " + e.URL
		}
		rows = append(rows, row.New(6).Add(
			col.New(2).Add(text.New(e.CreatedAt.Format("02/01 15:04"), props.Text{Size: 7, Color: colorSecondary})),
			col.New(10).Add(text.New(label, props.Text{Size: 8, Color: colorPrimary})),
		))
	}
	return rows
}

func buildHistoryTable(data VisitReportData) []core.Row {
	rows := []core.Row{sectionTitle("Historial de estados")}
	for _, h := range data.History {
		transition := h.To
		if h.From != "" {
			transition = h.From + " -> " + h.To
		}
		rows = append(rows, row.New(6).Add(
			col.New(3).Add(text.New(h.CreatedAt.Format("02/01/2006 15:04"), props.Text{Size: 7, Color: colorSecondary})),
			col.New(4).Add(text.New(transition, props.Text{Size: 8, Color: colorPrimary})),
			col.New(5).Add(text.New(h.Note, props.Text{Size: 7, Color: colorSecondary})),
		))
	}
	return rows
}

func buildFooter(data VisitReportData) core.Row {
	return row.New(10).Add(
		col.New(12).Add(
			text.New(fmt.Sprintf("Visita %s · generado %s", data.VisitID, time.Now().Format("02/01/2006 15:04")), props.Text{
				Size:  6.5,
				Color: colorSecondary,
				Align: align.Center,
				Top:   4,
			}),
		),
	).WithStyle(&props.Cell{
		BorderType:  border.Top,
		BorderColor: colorBorder,
	})
}

func formatWindow(start, end *time.Time) string {
	format := func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.Format("02/01/2006 15:04")
	}
	return format(start) + " a " + format(end)
}
