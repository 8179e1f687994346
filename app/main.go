package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ritz123/SeoWatch/app/analyzer"
	"github.com/ritz123/SeoWatch/app/api"
	"github.com/ritz123/SeoWatch/app/bulk"
	"github.com/ritz123/SeoWatch/app/cfg"
	"github.com/ritz123/SeoWatch/app/fetch"
	"github.com/ritz123/SeoWatch/app/store"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	if appCfg.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	slog.Info("Starting SeoWatch server", "version", appCfg.Version)

	uploadsDir := filepath.Join(appCfg.DataDir, "uploads")
	resultsDir := filepath.Join(appCfg.DataDir, "results")
	for _, dir := range []string{uploadsDir, resultsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Error("Failed to create data directory", "dir", dir, "error", err)
			os.Exit(1)
		}
	}

	var jobStore store.JobStore
	if appCfg.DBPath != "" {
		sqliteStore, err := store.NewSQLiteStore(appCfg.DBPath)
		if err != nil {
			slog.Error("Failed to open job database", "path", appCfg.DBPath, "error", err)
			os.Exit(1)
		}
		defer sqliteStore.Close()
		jobStore = sqliteStore
		slog.Info("Using SQLite job store", "path", appCfg.DBPath)
	} else {
		jobStore = store.NewMemoryStore()
		slog.Info("Using in-memory job store")
	}

	fetchTimeout := time.Duration(appCfg.FetchTimeout) * time.Second
	fetcher := fetch.NewClient(appCfg.UserAgent)
	engine := analyzer.NewEngine()

	urlAnalyzer := bulk.NewURLAnalyzer(fetcher, engine, jobStore, fetchTimeout)
	runner := bulk.NewRunner(jobStore, urlAnalyzer, resultsDir, appCfg.BatchSize, func(jobID string, processed, total int) {
		slog.Debug("Job progress", "job_id", jobID, "processed", processed, "total", total)
	})

	handler := api.NewHandler(jobStore, runner, fetcher, engine, uploadsDir, fetchTimeout)
	server := api.NewServer(handler)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
