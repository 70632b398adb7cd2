// Package main provides the HTTP server for StudyRot.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/studyrot/studyrot/internal/config"
	"github.com/studyrot/studyrot/internal/db"
	"github.com/studyrot/studyrot/internal/ingest"
	"github.com/studyrot/studyrot/internal/metrics"
	"github.com/studyrot/studyrot/internal/server"
	"github.com/studyrot/studyrot/internal/threads"
)

func main() {
	// Parse flags
	wipeDB := flag.Bool("wipe", false, "wipe all data from database on startup (testing only)")
	flag.Parse()

	// Load configuration
	cfg := config.Load()

	// Initialize logging
	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer closeLog()
	slog.SetDefault(logger)

	slog.Info("starting studyrot-server", "port", cfg.Port)

	// Connect to SurrealDB and apply the schema
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	dbClient, err := db.NewClient(ctx, db.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}, logger)
	if err != nil {
		cancel()
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := dbClient.InitSchema(ctx); err != nil {
		cancel()
		slog.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}
	cancel()
	defer func() {
		if err := dbClient.Close(context.Background()); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	// Wipe database if requested (via flag or env var)
	if *wipeDB || os.Getenv("STUDYROT_WIPE_DB") == "true" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := dbClient.WipeData(ctx); err != nil {
			cancel()
			slog.Error("failed to wipe database", "error", err)
			os.Exit(1)
		}
		cancel()
	}

	collector := metrics.NewCollector()

	// Extraction runs detached from upload requests
	ingestSvc := ingest.NewService(dbClient, collector, cfg.ExtractTimeout)

	// Thread generation is optional: run without it when no LLM is reachable
	var generator server.ThreadGenerator
	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	model, err := threads.NewModel(ctx, cfg)
	cancel()
	if err != nil {
		slog.Warn("thread generation disabled", "provider", cfg.LLMProvider, "error", err)
	} else {
		generator = threads.NewGenerator(dbClient, model, collector)
		slog.Info("thread generation enabled", "provider", cfg.LLMProvider, "model", model.Name())
	}

	srv := server.New(dbClient, ingestSvc, generator, collector, logger, server.Options{
		UploadDir:      cfg.UploadDir,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  5 * time.Minute, // uploads can be large and slow
		WriteTimeout: 5 * time.Minute, // thread generation waits on the LLM
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("API available", "url", fmt.Sprintf("http://localhost:%s/api", cfg.Port))

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// Let in-flight extractions write their terminal status
	ingestSvc.Wait()

	slog.Info("server stopped")
}
