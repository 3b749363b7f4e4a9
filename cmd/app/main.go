package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	_ "github.com/alekspanteli/exchange-rate-hub/internal/api/docs"
	"github.com/alekspanteli/exchange-rate-hub/internal/config"
)

// @title Exchange Rate Hub API
// @version 1.0
// @description Fetches exchange rates on a schedule, stores snapshots and history, and serves them as JSON and HTML.
// @BasePath /

// @securityDefinitions.apikey AdminToken
// @in header
// @name Authorization
// @description Bearer token issued by cmd/admintoken.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()
	sugar := zapLogger.Sugar()

	sugar.Infow("Starting Exchange Rate Hub", "port", cfg.Server.Port)

	app, err := NewApp(cfg, sugar)
	if err != nil {
		sugar.Fatalw("Failed to initialize app", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		sugar.Fatalw("Application error", "error", err)
	}
}
