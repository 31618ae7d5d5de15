package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	catalogrepo "fieldops_backend/internal/catalog/repository"
	"fieldops_backend/internal/catalog/resolver"
	domainevents "fieldops_backend/internal/events"
	"fieldops_backend/internal/visits/domain"
	visitsrepo "fieldops_backend/internal/visits/repository"
	"fieldops_backend/platform/apperr"
	"fieldops_backend/platform/config"
	"fieldops_backend/platform/events"
	"fieldops_backend/platform/logger"
)

// Worker consumes reminder tasks and republishes them as domain events.
type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	visits  *visitsrepo.Repo
	catalog *resolver.Resolver
	bus     events.Bus
	log     *logger.Logger
}

// NewWorker builds the asynq worker from the scheduler config.
func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		visits:  visitsrepo.New(pool),
		catalog: resolver.New(catalogrepo.New(pool)),
		bus:     bus,
		log:     log,
	}

	mux.HandleFunc(TaskVisitReminder, w.handleVisitReminder)

	return w, nil
}

func (w *Worker) handleVisitReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseVisitReminderPayload(task)
	if err != nil {
		return err
	}

	visitID, err := uuid.Parse(payload.VisitID)
	if err != nil {
		return err
	}

	visit, err := w.visits.GetByID(ctx, visitID)
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) && appErr.Kind == apperr.KindNotFound {
			return nil
		}
		return err
	}

	entry, err := w.catalog.ResolveCode(ctx, visit.StatusID)
	if err != nil {
		return err
	}

	// Reminders only matter while the visit is still waiting to start.
	if entry.Code != domain.StatusScheduled {
		return nil
	}

	if w.bus == nil {
		return nil
	}

	w.bus.Publish(ctx, domainevents.VisitReminderDue{
		BaseEvent:    events.NewBaseEvent(),
		VisitID:      visit.ID,
		Title:        visit.Title,
		TechnicianID: visit.TechnicianID,
		ScheduledAt:  visit.ScheduledAt,
	})

	return nil
}

// Run serves tasks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
