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
	"github.com/joho/godotenv"

	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/app"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/documents"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/notify"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/observability"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/platform/db"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/shared"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/timeline"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := observability.NewMetrics()
	jobMetrics := metrics.Jobs()
	if cfg.WorkerMetricsAddr != "" {
		metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("worker metrics server", slog.Any("error", err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	}

	notificationJob := jobs.NewNotificationJob(notify.NewLogSender(logger), logger, jobMetrics)
	overdueJob := jobs.NewOverdueSweepJob(documents.NewStore(pool), timeline.NewRecorder(timeline.NewRepository(pool), logger, cfg.SideEffectTimeout), logger, jobMetrics)
	cleanupJob := jobs.NewIdempotencyCleanupJob(shared.NewIdempotencyStore(pool), logger, jobMetrics)

	overdueTask, err := jobs.NewOverdueSweepTask()
	if err != nil {
		logger.Error("build overdue task", slog.Any("error", err))
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
			{Type: notify.TaskType, Handler: notificationJob.Handle},
			{Type: jobs.TaskOverdueSweep, Handler: overdueJob.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.OverdueSweepCron, Task: overdueTask},
			{Spec: "30 3 * * *", Task: cleanupTask},
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
