// Package notification reacts to visit lifecycle events and delivers
// in-app notifications, inverting the dependency so the visits module
// does not need to know who gets told about what.
package notification

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	domainevents "fieldops_backend/internal/events"
	apphttp "fieldops_backend/internal/http"
	notifhandler "fieldops_backend/internal/notification/handler"
	"fieldops_backend/internal/notification/inapp"
	"fieldops_backend/platform/events"
	"fieldops_backend/platform/logger"
)

// Module bundles the notification feature.
type Module struct {
	handler *notifhandler.HTTPHandler
	service *inapp.Service
	log     *logger.Logger
}

// NewModule assembles the notification module.
func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	repo := inapp.NewRepository(pool)
	svc := inapp.NewService(repo, log)
	return &Module{
		handler: notifhandler.NewHTTPHandler(svc, log),
		service: svc,
		log:     log,
	}
}

// Name identifies the module.
func (m *Module) Name() string { return "notification" }

// RegisterRoutes mounts the notification endpoints.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/notifications")
	m.handler.RegisterRoutes(group)
}

// RegisterHandlers subscribes the module to the visit lifecycle events.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(domainevents.VisitCreatedName, events.HandlerFunc(m.onVisitCreated))
	bus.Subscribe(domainevents.VisitTransitionedName, events.HandlerFunc(m.onVisitTransitioned))
	bus.Subscribe(domainevents.VisitCompletedName, events.HandlerFunc(m.onVisitCompleted))
	bus.Subscribe(domainevents.VisitReminderDueName, events.HandlerFunc(m.onVisitReminderDue))
}

func (m *Module) onVisitCreated(ctx context.Context, event events.Event) error {
	e, ok := event.(domainevents.VisitCreated)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	if e.TechnicianID == nil {
		return nil
	}

	visitID := e.VisitID
	return m.service.Send(ctx, inapp.SendParams{
		UserID:   *e.TechnicianID,
		Title:    "Nueva visita asignada",
		Content:  fmt.Sprintf("Se te asignó la visita %q.", e.Title),
		VisitID:  &visitID,
		Category: "info",
	})
}

func (m *Module) onVisitTransitioned(ctx context.Context, event events.Event) error {
	e, ok := event.(domainevents.VisitTransitioned)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	// The author already knows; only tell the technician when someone
	// else moved their visit.
	if e.TechnicianID == nil || *e.TechnicianID == e.AuthorID {
		return nil
	}

	visitID := e.VisitID
	return m.service.Send(ctx, inapp.SendParams{
		UserID:   *e.TechnicianID,
		Title:    "Visita actualizada",
		Content:  fmt.Sprintf("Tu visita cambió de %s a %s.", e.FromCode, e.ToCode),
		VisitID:  &visitID,
		Category: "info",
	})
}

func (m *Module) onVisitCompleted(ctx context.Context, event events.Event) error {
	e, ok := event.(domainevents.VisitCompleted)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	if e.TechnicianID == nil || *e.TechnicianID == e.AuthorID {
		return nil
	}

	visitID := e.VisitID
	return m.service.Send(ctx, inapp.SendParams{
		UserID:   *e.TechnicianID,
		Title:    "Visita completada",
		Content:  "Una de tus visitas fue cerrada por un administrador.",
		VisitID:  &visitID,
		Category: "success",
	})
}

func (m *Module) onVisitReminderDue(ctx context.Context, event events.Event) error {
	e, ok := event.(domainevents.VisitReminderDue)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	if e.TechnicianID == nil {
		return nil
	}

	content := fmt.Sprintf("Tu visita %q está por comenzar.", e.Title)
	if e.ScheduledAt != nil {
		content = fmt.Sprintf("Tu visita %q está programada para las %s.",
			e.Title, e.ScheduledAt.Format("15:04"))
	}

	visitID := e.VisitID
	return m.service.Send(ctx, inapp.SendParams{
		UserID:   *e.TechnicianID,
		Title:    "Recordatorio de visita",
		Content:  content,
		VisitID:  &visitID,
		Category: "warning",
	})
}
