package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	batchoperations "warden/contexts/trust-safety/batch-operations-service"
	batchmemory "warden/contexts/trust-safety/batch-operations-service/adapters/memory"
	batchpostgres "warden/contexts/trust-safety/batch-operations-service/adapters/postgres"
	"warden/contexts/trust-safety/batch-operations-service/application"
	workerapp "warden/contexts/trust-safety/batch-operations-service/application/workers"
	"warden/contexts/trust-safety/batch-operations-service/domain/entities"
	batchports "warden/contexts/trust-safety/batch-operations-service/ports"
	moderation "warden/contexts/trust-safety/moderation-service"
	"warden/internal/platform/config"
	"warden/internal/platform/db"
	"warden/internal/platform/httpserver"
	"warden/internal/platform/messaging"
	"warden/internal/shared/events"

	"github.com/robfig/cron/v3"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	bus      *messaging.Kafka
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres  *db.Postgres
	retention workerapp.RetentionJob
	cronSpec  string
	logger    *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")

	var (
		pg      *db.Postgres
		history batchports.HistoryRepository
		audit   batchports.AuditRepository
	)
	if strings.TrimSpace(cfg.PostgresDSN) != "" {
		pg, err = db.Connect(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		repo := batchpostgres.NewRepository(pg.DB, logger)
		if err := repo.Migrate(); err != nil {
			_ = pg.Close()
			return nil, fmt.Errorf("migrate batch history tables: %w", err)
		}
		history = repo
		audit = repo
	} else {
		store := batchmemory.NewStore()
		history = store
		audit = store
	}

	bus, err := messaging.NewKafka(nil, logger)
	if err != nil {
		return nil, err
	}

	moderationModule := moderation.NewInMemoryModule(logger)
	batchModule := batchoperations.NewModule(batchoperations.Dependencies{
		History:     history,
		Audit:       audit,
		Publisher:   bus,
		Actions:     moderationModule.Service,
		Clock:       batchpostgres.SystemClock{},
		IDGenerator: batchpostgres.UUIDGenerator{},
		DefaultRateLimit: entities.RateLimitPolicy{
			MaxRequests: cfg.BatchMaxRequests,
			TimeWindow:  cfg.BatchTimeWindow(),
			Enabled:     true,
		},
		DefaultRetry: entities.RetryConfig{
			MaxRetries: cfg.BatchMaxRetries,
			RetryDelay: cfg.BatchRetryDelay(),
		},
		ServiceName: cfg.ServiceName,
		Logger:      logger,
	})

	// Notification panel feed: surface finished operations on the log until
	// the push channel is wired.
	err = bus.Subscribe(context.Background(), application.TopicOperationFinished, "dashboard-notifier-cg",
		func(_ context.Context, event events.Envelope) error {
			logger.Info("batch operation finished notification",
				"event", "batch_finished_notification",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"operation_id", event.EntityID,
			)
			return nil
		})
	if err != nil {
		return nil, err
	}

	server := httpserver.New(batchModule, moderationModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		bus:      bus,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	repo := batchpostgres.NewRepository(pg.DB, logger)
	if err := repo.Migrate(); err != nil {
		_ = pg.Close()
		return nil, fmt.Errorf("migrate batch history tables: %w", err)
	}

	return &WorkerApp{
		postgres: pg,
		retention: workerapp.RetentionJob{
			History:       repo,
			Clock:         batchpostgres.SystemClock{},
			RetentionDays: cfg.RetentionDays,
			Logger:        logger,
		},
		cronSpec: cfg.RetentionCron,
		logger:   logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(w.cronSpec, func() {
		runCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		_ = w.retention.RunOnce(runCtx)
	}); err != nil {
		return fmt.Errorf("schedule retention job: %w", err)
	}

	// One pass at startup so a long cron interval cannot defer the first prune.
	if err := w.retention.RunOnce(ctx); err != nil {
		return err
	}

	scheduler.Start()
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"retention_cron", w.cronSpec,
	)

	<-ctx.Done()
	<-scheduler.Stop().Done()
	return nil
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
