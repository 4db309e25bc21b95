// cmd/service/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github-trending-notifier/internal/api"
	"github-trending-notifier/internal/app"
	"github-trending-notifier/internal/config"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Application startup error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Initialize structured logger
	logger, logLevel := app.NewLogger(os.Stdout, cfg.LogFormat)
	app.SetLogLevel(cfg.LogLevel, logLevel)
	slog.SetDefault(logger)
	logger.Info("Configuration loaded successfully", "source", cfg.SourceMode, "snapshot_backend", cfg.SnapshotBackend)

	// 3. Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 4. Initialize application components
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := a.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to register schedules: %w", err)
	}

	// 5. Start the scheduler, the command bot and the HTTP API
	sched.Start(ctx)

	var wg sync.WaitGroup
	if b := a.Bot(); b != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Run(ctx)
		}()
	} else {
		logger.Warn("TELEGRAM_TOKEN not set, command bot disabled and digests are logged")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(a.Syncer, a.Runs, logger.With("component", "api")),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// 6. Wait for shutdown signal
	logger.Info("Application started. Waiting for shutdown signal...")
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received. Exiting.")
	case err := <-serverErr:
		logger.Error("HTTP server failed", "error", err)
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}

	sched.Stop()
	wg.Wait()
	logger.Info("Shutdown complete")

	return nil
}
