package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/merchops/shipdesk/internal/config"
	"github.com/merchops/shipdesk/internal/fulfill"
	"github.com/merchops/shipdesk/internal/logging"
	"github.com/merchops/shipdesk/internal/shopify"
	csvsync "github.com/merchops/shipdesk/internal/sync"
	"github.com/merchops/shipdesk/internal/web"
)

func main() {
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	client := shopify.New(cfg.Shopify)
	engine := fulfill.NewEngine(client)
	pipeline := csvsync.NewPipeline(client, cfg.Sync.OrderSearchLimit)

	server := web.NewServer(engine, pipeline, client, cfg)

	// Graceful shutdown on SIGINT/SIGTERM.
	done := make(chan struct{})
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		slog.Info("shutdown signal received")
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
		}
		close(done)
	}()

	slog.Info("fulfillment desk starting",
		"shop", cfg.Shopify.ShopDomain,
		"api_version", cfg.Shopify.APIVersion,
	)
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}
