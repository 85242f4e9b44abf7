package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go-file-organizer/internal/app"
	"go-file-organizer/internal/config"
	"go-file-organizer/internal/logger"
)

func main() {
	logger.Setup(os.Stdout, "info")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger.Setup(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}
