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
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/notify"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/observability"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/orders"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/platform/db"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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
	slog.SetDefault(logger)

	infra, err := app.Connect(ctx, cfg)
	if err != nil {
		logger.Error("connect backends", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := infra.Close(); err != nil {
			logger.Warn("close backends", slog.Any("error", err))
		}
	}()

	applied, err := db.Migrate(ctx, infra.Pool)
	if err != nil {
		logger.Error("migrate", slog.Any("error", err))
		os.Exit(1)
	}
	if len(applied) > 0 {
		logger.Info("migrations applied", slog.Any("versions", applied))
	}

	metrics := observability.NewMetrics()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	service, err := app.NewOrderService(app.OrderServiceParams{
		Config:   cfg,
		Infra:    infra,
		Notifier: notify.NewQueueNotifier(jobClient, logger),
		Metrics:  metrics,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("init order service", slog.Any("error", err))
		os.Exit(1)
	}

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		OrdersHandler: orders.NewHandler(logger, service, cfg.RateLimitPerMinute),
		JobHandler:    jobs.NewHandler(inspector, logger),
		Metrics:       metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
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
