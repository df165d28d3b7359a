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

	"github.com/khandaa/adminbase/internal/activity"
	"github.com/khandaa/adminbase/internal/app"
	"github.com/khandaa/adminbase/internal/attendance"
	"github.com/khandaa/adminbase/internal/features"
	jobmetrics "github.com/khandaa/adminbase/internal/jobs"
	"github.com/khandaa/adminbase/internal/observability"
	"github.com/khandaa/adminbase/internal/platform/db"
	"github.com/khandaa/adminbase/jobs"
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

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := observability.NewMetrics()

	activityService := activity.NewService(activity.NewRepository(pool))
	attendanceService := attendance.NewService(attendance.NewRepository(pool), nil, logger)
	toggleCache := features.NewCache(features.NewRepository(pool), cfg.ToggleDefaultAllow, logger)

	sweepTask, err := jobs.NewActivitySweepTask(jobs.ActivitySweepPayload{
		RetentionHours: int(cfg.ActivityRetention.Hours()),
	})
	if err != nil {
		logger.Error("build sweep task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: jobs.Handlers{
			Activity:   activityService,
			Attendance: attendanceService,
			Toggles:    toggleCache,
			Metrics:    jobmetrics.NewMetrics(metrics.Registerer()),
			Logger:     logger,
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.ActivitySweepCron, Task: sweepTask},
			{Spec: cfg.AttendanceSweepCron, Task: jobs.NewAttendanceSweepTask()},
			{Spec: cfg.ToggleRefreshCron, Task: jobs.NewToggleRefreshTask()},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler())
	metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: metricsMux}
	go func() {
		logger.Info("worker metrics listening", slog.String("addr", cfg.WorkerMetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker metrics server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("worker metrics shutdown", slog.Any("error", err))
		}
	}()

	logger.Info("worker started")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
