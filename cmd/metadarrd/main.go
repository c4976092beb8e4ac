package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"metadarr/internal/api"
	"metadarr/internal/config"
	"metadarr/internal/controllers"
	"metadarr/internal/models"
	"metadarr/internal/scheduler"
	"metadarr/internal/services/omdb"
	"metadarr/internal/services/osdb"
	"metadarr/internal/services/tmdb"
	"metadarr/internal/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Setup logger
	logger := utils.NewLogger(cfg.LogLevel)
	logger.Info("Starting Metadarr")
	logger.WithField("config_dir", filepath.Dir(cfg.DatabaseFile)).Info("Configuration loaded")

	// 3. Initialize database
	db, err := models.NewDatabase(cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	logger.Info("Database initialized")

	// 4. Initialize provider clients
	osdbClient, err := osdb.NewClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenSubtitles client: %w", err)
	}
	logger.Info("OpenSubtitles client initialized")

	omdbClient, err := omdb.NewClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OMDb client: %w", err)
	}
	logger.Info("OMDb client initialized")

	tmdbClient, err := tmdb.NewClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize TMDb client: %w", err)
	}
	logger.Info("TMDb client initialized")

	// 5. Initialize controllers
	resolver := controllers.NewResolver(db, osdbClient, omdbClient, tmdbClient, logger)
	backfillCtrl := controllers.NewBackfillController(db, omdbClient, tmdbClient, logger)
	logger.Info("Controllers initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 6. Initialize scheduler
	sched := scheduler.NewScheduler(db, backfillCtrl, cfg, logger)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	// 7. Initialize HTTP server
	server := api.NewServer(cfg, db, resolver, logger)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	// 8. Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Metadarr is running")

	select {
	case sig := <-sigChan:
		logger.WithField("signal", sig.String()).Info("Shutdown signal received")
	case err := <-serverErrChan:
		return fmt.Errorf("server failed: %w", err)
	}

	cancel()

	if err := server.Shutdown(context.Background()); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}

	logger.Info("Metadarr stopped")
	return nil
}
