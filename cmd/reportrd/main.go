// Command reportrd serves the activity-report intake and generation API.
//
// Usage:
//
//	reportrd -config reportr.yaml          # run with config file
//	reportrd -data ./data                  # run with defaults
//	reportrd -listen :9090 -data ./data    # override the bind address
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sbstruc/reportr"
	"github.com/sbstruc/reportr/internal/sweep"
)

func main() {
	configPath := flag.String("config", "", "path to reportr.yaml config file")
	listen := flag.String("listen", "", "bind address (overrides config)")
	dataDir := flag.String("data", "", "data directory (overrides config)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *listen, *dataDir); err != nil {
		logger.Error("reportrd: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, listen, dataDir string) error {
	cfg, err := reportr.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if listen != "" {
		cfg.Listen = listen
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	svc, err := reportr.NewService(cfg, reportr.WithLogger(logger))
	if err != nil {
		return err
	}
	defer svc.Close()

	// Sessions stranded in generating by a crash go back to draft before
	// any request can observe them.
	recovered, err := svc.Repository().RecoverStaleSessions(ctx)
	if err != nil {
		return err
	}
	if recovered > 0 {
		logger.Info("reportrd: recovered stale sessions", "count", recovered)
	}

	sweeper := sweep.NewSweeper(svc.Repository(), logger, cfg.CleanupInterval(), cfg.SessionTTL())
	go sweeper.Run(ctx)

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           reportr.NewRouter(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("reportrd: listening", "addr", cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("reportrd: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}
