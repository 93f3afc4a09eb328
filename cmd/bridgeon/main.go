package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/Tashu22-hub/BridgeOn/internal/server"
	"github.com/Tashu22-hub/BridgeOn/internal/store"
	"github.com/Tashu22-hub/BridgeOn/pkg/config"
	"github.com/Tashu22-hub/BridgeOn/pkg/logging"
)

func main() {
	logger := logging.New(logging.LevelDebug)
	slog.SetDefault(logger)

	cfg, err := config.Load(logger, "config")
	if err != nil {
		logger.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := store.Open(cfg.Database.DSN)
	if err != nil {
		logger.Error("Failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Database ready", slog.String("dsn", cfg.Database.DSN))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := server.NewApp(logger, ctx, cfg, db)
	if err := app.Run(); err != nil {
		logger.Error("Application run failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Application shut down successfully.")
}
