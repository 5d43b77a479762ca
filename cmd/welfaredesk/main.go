package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/welfaredesk/welfaredesk/internal/app"
	"github.com/welfaredesk/welfaredesk/internal/audit"
	audithttp "github.com/welfaredesk/welfaredesk/internal/audit/http"
	"github.com/welfaredesk/welfaredesk/internal/auth"
	"github.com/welfaredesk/welfaredesk/internal/backend"
	"github.com/welfaredesk/welfaredesk/internal/lookup"
	"github.com/welfaredesk/welfaredesk/internal/observability"
	"github.com/welfaredesk/welfaredesk/internal/pages"
	"github.com/welfaredesk/welfaredesk/internal/platform/cache"
	"github.com/welfaredesk/welfaredesk/internal/platform/db"
	"github.com/welfaredesk/welfaredesk/internal/records"
	"github.com/welfaredesk/welfaredesk/internal/shared"
	"github.com/welfaredesk/welfaredesk/internal/view"
	"github.com/welfaredesk/welfaredesk/jobs"
	"github.com/welfaredesk/welfaredesk/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if err := db.Migrate(cfg.PGDSN, logger); err != nil {
		logger.Error("migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	metrics := observability.NewMetrics()

	sessionManager := shared.NewSessionManager(redisClient, "welfaredesk_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine(csrfManager, navigation())
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	backendClient := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, metrics.Registerer())

	lookupService := lookup.NewService(
		backendClient,
		lookup.NewCache(redisClient, cfg.LookupCacheTTL),
		lookup.Config{Entities: records.LookupEntities, TTL: cfg.LookupCacheTTL, Size: cfg.LookupCacheSize},
		metrics.Registerer(),
		logger,
	)
	lookupService.Listen(ctx)

	authService := auth.NewService(backendClient, cfg.SessionTTL)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	auditService := audit.NewService(audit.NewRepository(dbpool), logger)
	auditHandler := audithttp.NewHandler(logger, auditService, templates)

	reportClient := report.NewClient(cfg.GotenbergURL, 0)

	deps := pages.Deps{
		Logger:      logger,
		Templates:   templates,
		CSRF:        csrfManager,
		Idempotency: shared.NewIdempotencyStore(dbpool),
		Audit:       auditService,
		Lookups:     lookupService,
		PageSize:    cfg.DefaultPageSize,
		ExportMax:   cfg.ExportMaxRows,
	}
	if reportClient.Enabled() {
		deps.PDF = reportClient
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	if _, err := jobClient.EnqueueLookupWarmup(ctx); err != nil {
		logger.Warn("enqueue lookup warmup", slog.Any("error", err))
	}

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Templates:      templates,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		AuthService:    authService,
		AuthHandler:    authHandler,
		AuditHandler:   auditHandler,
		LookupHandler:  lookup.NewHandler(lookupService, records.LookupAccess(), logger),
		Records:        recordPages(backendClient, deps),
		JobHandler:     jobs.NewHandler(inspector, logger),
		Metrics:        metrics,
		Ready: map[string]app.Pinger{
			"postgres": dbpool,
			"redis":    redisPinger{client: redisClient},
			"backend":  backendClient,
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("backend", cfg.BackendURL))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
