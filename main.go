package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/evdata/evdata-api/config"
	"github.com/evdata/evdata-api/data"
	"github.com/evdata/evdata-api/datafetcher"
	"github.com/evdata/evdata-api/handlers"
	"github.com/evdata/evdata-api/health"
	"github.com/evdata/evdata-api/logging"
	"github.com/evdata/evdata-api/scheduler"
	"github.com/evdata/evdata-api/server"
	"github.com/evdata/evdata-api/validation"
	"github.com/joho/godotenv"
)

func main() {
	// Read env variables from .env in the working directory, falling back
	// to the executable directory
	if err := godotenv.Load(); err != nil {
		if ex, exErr := os.Executable(); exErr == nil {
			_ = godotenv.Load(filepath.Join(filepath.Dir(ex), ".env"))
		}
	}

	serve := flag.Bool("serve", false, "run the HTTP service instead of the one-shot console report")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.InitLogger("logs", cfg.LogRetentionWeeks)

	endpoints := datafetcher.EndpointsFor(cfg.DatasetBaseURL, cfg.DatasetID)
	client := &http.Client{Timeout: cfg.HTTPTimeout}
	fetcher := datafetcher.New(client, endpoints, cfg.TempDir)

	if !*serve {
		// One-shot mode: fetch each format once, print the samples, exit.
		// Individual fetch failures are reported inline and do not change
		// the exit code.
		runOnce(context.Background(), os.Stdout, fetcher)
		return
	}

	refresh := time.Duration(cfg.RefreshHours) * time.Hour

	store := data.NewSnapshotContainer()
	validator := validation.NewSampleValidator()

	sched := scheduler.NewScheduler(store, fetcher, validator, refresh)
	if err := sched.Start(); err != nil {
		logging.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	checker := health.NewHealthChecker(store, refresh)
	handler := handlers.NewHTTPHandler(store, validator, checker)
	srv := server.NewServer(cfg, handler)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Shutdown error", "error", err)
	}
}
