package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

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

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		OrdersHandler:  orders.NewHandler(logger, orderService),
		RefundsHandler: refunds.NewHandler(logger, refundService),
		VendorsHandler: vendors.NewHandler(logger, vendorService),
		JobsHandler:    jobs.NewHandler(asynq.NewInspector(redisOpts), logger),
		Pool:           pool,
		Redis:          redisClient,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
