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

	"github.com/khandaa/adminbase/internal/access"
	"github.com/khandaa/adminbase/internal/activity"
	"github.com/khandaa/adminbase/internal/app"
	"github.com/khandaa/adminbase/internal/attendance"
	"github.com/khandaa/adminbase/internal/auth"
	"github.com/khandaa/adminbase/internal/features"
	"github.com/khandaa/adminbase/internal/observability"
	"github.com/khandaa/adminbase/internal/payments"
	"github.com/khandaa/adminbase/internal/platform/cache"
	"github.com/khandaa/adminbase/internal/platform/db"
	"github.com/khandaa/adminbase/internal/rbac"
	"github.com/khandaa/adminbase/internal/users"
	"github.com/khandaa/adminbase/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
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

	metrics := observability.NewMetrics()

	queueClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()

	activityRepo := activity.NewRepository(pool)
	activityService := activity.NewService(activityRepo)

	toggleRepo := features.NewRepository(pool)
	toggleCache := features.NewCache(toggleRepo, cfg.ToggleDefaultAllow, logger)
	if err := toggleCache.Refresh(ctx); err != nil {
		logger.Warn("initial toggle load", slog.Any("error", err))
	}
	toggleService := features.NewService(toggleRepo, toggleCache, toggleRefreshQueue{queueClient}, activityService, logger)

	guard := access.Guard{Toggles: toggleCache, Logger: logger, Metrics: metrics}

	rbacRepo := rbac.NewRepository(pool)
	rbacService := rbac.NewService(rbacRepo, activityService, logger)
	if err := rbacService.EnsureCorePermissions(ctx); err != nil {
		logger.Error("seed core permissions", slog.Any("error", err))
		os.Exit(1)
	}

	tokens, err := auth.NewTokenManager(cfg.TokenSecret, cfg.TokenTTL)
	if err != nil {
		logger.Error("token manager", slog.Any("error", err))
		os.Exit(1)
	}
	revoked := auth.NewRevocationStore(redisClient)
	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, rbacService, tokens, revoked, activityService, logger)
	authMiddleware := &auth.Middleware{Tokens: tokens, Service: authService, Logger: logger}

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo, rbacService, activityService, logger)

	paymentsRepo := payments.NewRepository(pool)
	paymentsService := payments.NewService(paymentsRepo, activityService, logger)

	attendanceRepo := attendance.NewRepository(pool)
	attendanceService := attendance.NewService(attendanceRepo, activityService, logger)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Auth:              authMiddleware,
		AuthHandler:       auth.NewHandler(logger, authService),
		UsersHandler:      users.NewHandler(logger, usersService, guard),
		RBACHandler:       rbac.NewHandler(logger, rbacService, guard),
		FeaturesHandler:   features.NewHandler(logger, toggleService, toggleCache, guard),
		PaymentsHandler:   payments.NewHandler(logger, paymentsService, guard),
		AttendanceHandler: attendance.NewHandler(logger, attendanceService, guard),
		ActivityHandler:   activity.NewHandler(logger, activityService, activitySweepQueue{client: queueClient, retention: cfg.ActivityRetention}, guard),
		JobHandler:        jobs.NewHandler(inspector, logger),
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			os.Exit(1)
		}
	}
}

// toggleRefreshQueue adapts the job queue client to the features service,
// which only needs a fire-and-forget enqueue.
type toggleRefreshQueue struct {
	client *jobs.Client
}

func (q toggleRefreshQueue) EnqueueToggleRefresh(ctx context.Context) error {
	_, err := q.client.EnqueueToggleRefresh(ctx)
	return err
}

// activitySweepQueue adapts the job queue client to the activity handler,
// carrying the configured retention into the sweep payload.
type activitySweepQueue struct {
	client    *jobs.Client
	retention time.Duration
}

func (q activitySweepQueue) EnqueueActivitySweep(ctx context.Context) error {
	_, err := q.client.EnqueueActivitySweep(ctx, jobs.ActivitySweepPayload{
		RetentionHours: int(q.retention.Hours()),
	})
	return err
}
