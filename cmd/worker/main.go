package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/welfaredesk/welfaredesk/internal/app"
	"github.com/welfaredesk/welfaredesk/internal/backend"
	jobmetrics "github.com/welfaredesk/welfaredesk/internal/jobs"
	"github.com/welfaredesk/welfaredesk/internal/lookup"
	"github.com/welfaredesk/welfaredesk/internal/platform/cache"
	"github.com/welfaredesk/welfaredesk/internal/platform/db"
	"github.com/welfaredesk/welfaredesk/internal/records"
	"github.com/welfaredesk/welfaredesk/internal/shared"
	"github.com/welfaredesk/welfaredesk/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg).With(slog.String("process", "worker"))

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	if cfg.BackendServiceToken == "" {
		logger.Warn("BACKEND_SERVICE_TOKEN is empty, lookup warmup will call the backend anonymously")
	}

	backendClient := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, nil)
	lookupService := lookup.NewService(
		backendClient,
		lookup.NewCache(redisClient, cfg.LookupCacheTTL),
		lookup.Config{Entities: records.LookupEntities, TTL: cfg.LookupCacheTTL, Size: cfg.LookupCacheSize},
		nil,
		logger,
	)

	metrics := jobmetrics.NewMetrics(nil)
	warmupJob := jobs.NewLookupWarmupJob(lookupService, cfg.BackendServiceToken, logger, metrics)
	cleanupJob := jobs.NewIdempotencyCleanupJob(shared.NewIdempotencyStore(pool), cfg.IdempotencyRetention, logger, metrics)

	warmupTask, err := jobs.NewLookupWarmupTask()
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}
	cleanupTask, err := jobs.NewIdempotencyCleanupTask(0)
	if err != nil {
		logger.Error("build cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLookupWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/10 * * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 2 * * *", Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
