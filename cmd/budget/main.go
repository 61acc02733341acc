package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"budget/internal/cli"
	"budget/internal/log"
	"budget/internal/services"
)

func main() {
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(cli.SetupLogger(os.Stderr, os.Getenv("LOG_LEVEL"), log.ComponentCLI))
	logger := cli.SetupLogger(os.Stderr, cfg.LogLevel, log.ComponentCLI)

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

	if err := run(context.Background(), app, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "budget:", err)
		os.Exit(1)
	}
}
