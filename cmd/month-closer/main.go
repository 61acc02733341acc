package main

import (
	"context"
	"os"
	"time"

	"budget/internal/cache"
	"budget/internal/cli"
	"budget/internal/log"
	"budget/internal/services"
)

func main() {
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(cli.SetupLogger(os.Stdout, os.Getenv("LOG_LEVEL"), log.ComponentCloser))
	logger := cli.SetupLogger(os.Stdout, cfg.LogLevel, log.ComponentCloser)
	logger.Info("Starting month-closer")

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// A nil *amqp.Client must not reach the services as a non-nil publisher.
	var events services.EventPublisher
	if client := cli.InitAMQP(logger, cfg); client != nil {
		defer client.Close()
		events = client
	}

	app, err := cli.NewApp(cfg, repo, events)
	if err != nil {
		logger.Error("Failed to build services", log.FieldError, err)
		os.Exit(1)
	}

	cacheManager := cache.NewManager()
	cacheManager.Register(app.Reports.Cache())
	cacheManager.StartCleanup(cfg.LedgerCacheTTL)
	defer cacheManager.Stop()

	closer := services.NewMonthCloser(app.Months, services.MonthCloserConfig{
		Interval:    cfg.CloserInterval,
		LockElapsed: cfg.AutoLockElapsed,
	})

	logger.Info("Month closer configured",
		"interval", cfg.CloserInterval,
		"lock_elapsed", cfg.AutoLockElapsed,
		"sqlite_db", cfg.SQLiteDBPath)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := closer.Stop(shutdownCtx); err != nil {
			logger.Warn("Month closer did not stop cleanly", log.FieldError, err)
		}
	})

	if err := closer.Start(ctx); err != nil {
		logger.Error("Failed to start month closer", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
}
