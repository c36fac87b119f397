package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"apexify/internal/app"
	"apexify/internal/config"
	"apexify/internal/logging"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.NewLogger(cfg.ServiceName, cfg.AppEnv)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("app_init_failed", zap.Error(err))
	}
	if err := server.Run(ctx); err != nil {
		logger.Error("server_exited", zap.Error(err))
		os.Exit(1)
	}
}
