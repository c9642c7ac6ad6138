package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/karsa-mfg/karsa/internal/app"
	"github.com/karsa-mfg/karsa/internal/orders"
	"github.com/karsa-mfg/karsa/internal/platform/cache"
	"github.com/karsa-mfg/karsa/internal/platform/db"
	"github.com/karsa-mfg/karsa/internal/refunds"
	"github.com/karsa-mfg/karsa/internal/shared"
	"github.com/karsa-mfg/karsa/internal/vendors"
	"github.com/karsa-mfg/karsa/jobs"
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

	pool, err := db.New(ctx, db.Config{
		DSN:             cfg.PGDSN,
		MaxConns:        cfg.PGMaxConns,
		MinConns:        cfg.PGMinConns,
		MaxConnLifetime: cfg.PGConnLifetime,
		ConnectTimeout:  cfg.PGConnectTimeout,
	})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cache.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
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

	locker := cache.NewLocker(redisClient)
	auditLogger := shared.NewAuditLogger(pool)
	idemStore := shared.NewIdempotencyStore(pool)

	vendorService := vendors.NewService(vendors.NewRepository(pool))
	orderService := orders.NewService(
		orders.NewRepository(pool),
		vendorService,
		jobs.NewOrderEventDispatcher(jobClient, logger),
		locker,
		auditLogger,
		idemStore,
		logger,
	)
	refundService := refunds.NewService(
		refunds.NewRepository(pool),
		orderService,
		refunds.NewDirectory(pool),
		jobs.NewRefundEventDispatcher(jobClient, logger),
		locker,
		auditLogger,
		refunds.DefaultApprovalRules(),
		cfg.RefundCompletedWindow,
		logger,
	)

	slaScan := jobs.NewOrderSLAScanJob(orderService, logger)
	staleScan := jobs.NewRefundStaleScanJob(refundService, logger, cfg.RefundStaleAfter)

	slaTask, err := jobs.NewOrderSLAScanTask(jobs.OrderSLAScanPayload{})
	if err != nil {
		logger.Error("build sla scan task", slog.Any("error", err))
		os.Exit(1)
	}
	staleTask, err := jobs.NewRefundStaleScanTask(jobs.RefundStaleScanPayload{})
	if err != nil {
		logger.Error("build stale scan task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   redisOpts,
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskOrderSLAScan, Handler: slaScan.Handle},
			{Type: jobs.TaskRefundStaleScan, Handler: staleScan.Handle},
			{Type: jobs.TaskNotifyEvent, Handler: jobs.HandleNotifyEventTask(logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 * * * *", Task: slaTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 * * * *", Task: staleTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started", slog.Int("concurrency", cfg.WorkerConcurrency))
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
