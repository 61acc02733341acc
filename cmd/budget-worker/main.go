package main

import (
	"context"
	"errors"
	"os"
	"time"

	"budget/internal/cli"
	"budget/internal/log"
	"budget/internal/sheets"
	gsheet "budget/internal/sheets/google"
	"budget/internal/sheets/memory"
	"budget/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(cli.SetupLogger(os.Stdout, os.Getenv("LOG_LEVEL"), log.ComponentWorker))
	logger := cli.SetupLogger(os.Stdout, cfg.LogLevel, log.ComponentWorker)
	logger.Info("Starting budget-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for budget-worker")
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// The worker only reads ledgers; it never publishes month events.
	app, err := cli.NewApp(cfg, repo, nil)
	if err != nil {
		logger.Error("Failed to build services", log.FieldError, err)
		os.Exit(1)
	}

	var (
		writer sheets.ReportWriter
		index  sheets.ExportIndex
	)
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		writer, index = client, client
		logger.Info("Google Sheets client initialized",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.GoogleSheetName)
	} else {
		store := memory.New()
		writer, index = store, store
		logger.Info("Google Sheets disabled - month summaries are kept in memory only")
	}

	consumer := cli.InitAMQP(logger, cfg)
	if consumer == nil {
		os.Exit(1)
	}
	defer consumer.Close()

	exporter := worker.NewExportWorker(app.Reports, app.Months, writer, index)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	logger.Info("Performing startup export check...")
	if err := exporter.StartupExportCheck(ctx); err != nil {
		logger.Error("Failed startup export check", log.FieldError, err)
	}

	go func() {
		err := consumer.ConsumeMonthEvents(ctx, exporter.HandleMonthEvent)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
}
