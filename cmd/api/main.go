package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"fieldops_backend/internal/adapters"
	"fieldops_backend/internal/auth"
	"fieldops_backend/internal/catalog"
	"fieldops_backend/internal/clients"
	"fieldops_backend/internal/email"
	apphttp "fieldops_backend/internal/http"
	"fieldops_backend/internal/http/router"
	"fieldops_backend/internal/notification"
	"fieldops_backend/internal/scheduler"
	"fieldops_backend/internal/storage"
	"fieldops_backend/internal/users"
	"fieldops_backend/internal/visits"
	visitsservice "fieldops_backend/internal/visits/service"
	"fieldops_backend/migrations"
	"fieldops_backend/platform/config"
	"fieldops_backend/platform/db"
	"fieldops_backend/platform/events"
	"fieldops_backend/platform/logger"
	"fieldops_backend/platform/validator"
)

// ensureBucket wraps the retry logic for verifying a MinIO bucket exists.
func ensureBucket(ctx context.Context, log *logger.Logger, storageSvc storage.StorageService, name, bucket string) {
	if err := withRetry(ctx, log, "ensure "+name+" bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := validator.Init(); err != nil {
		log.Error("failed to register validators", "error", err)
		panic("failed to register validators: " + err.Error())
	}

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS, ".")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	eventBus := events.NewInMemoryBus(log)

	reminderScheduler, closeScheduler := initReminderScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	sender, err := email.NewSender(cfg, log)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	// Object storage for visit evidence uploads. Optional: without
	// MinIO the presign endpoint reports the feature unavailable.
	var storageSvc storage.StorageService
	if cfg.IsMinIOEnabled() {
		svc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		ensureBucket(ctx, log, svc, "evidence", cfg.GetMinioBucketEvidence())
		storageSvc = svc
		log.Info("storage service initialized", "evidenceBucket", cfg.GetMinioBucketEvidence())
	} else {
		log.Warn("MINIO_ENDPOINT not configured; evidence uploads disabled")
	}

	notificationModule := notification.NewModule(pool, log)
	notificationModule.RegisterHandlers(eventBus)

	authModule := auth.NewModule(pool, cfg, log)
	catalogModule := catalog.NewModule(pool, log)
	usersModule := users.NewModule(pool, log)
	clientsModule := clients.NewModule(pool, log)

	closureNotifier := adapters.NewEmailClosureNotifier(sender)
	visitsModule := visits.NewModule(
		pool,
		usersModule.Repository(),
		catalogModule.Resolver(),
		closureNotifier,
		eventBus,
		log,
		cfg.GetGeofenceThresholdMeters(),
	)
	if storageSvc != nil {
		visitsModule.SetStorage(storageSvc, cfg.GetMinioBucketEvidence())
	}
	if reminderScheduler != nil {
		visitsModule.Service().SetReminderScheduler(reminderScheduler)
	}

	app := &apphttp.App{
		Config:        cfg,
		Logger:        log,
		Health:        db.NewPoolAdapter(pool),
		EventBus:      eventBus,
		TokenVerifier: authModule.Tokens(),
		Modules: []apphttp.Module{
			authModule,
			usersModule,
			clientsModule,
			catalogModule,
			visitsModule,
			notificationModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initReminderScheduler(cfg config.SchedulerConfig, log *logger.Logger) (visitsservice.ReminderScheduler, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; visit reminders disabled")
		return nil, nil
	}

	reminderClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize reminder scheduler client", "error", err)
		return nil, nil
	}

	return reminderClient, func() {
		_ = reminderClient.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
