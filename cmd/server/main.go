/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the recurring service schedule engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration from environment
  2. Initialize logger and SQLite store
  3. Create API handler with dependencies
  4. Start the overdue sweep scheduler
  5. Start server with graceful shutdown

CONFIGURATION:
  All configuration comes from the environment, see config/config.go:
  SERVER_PORT, DATABASE_PATH, SWEEP_SCHEDULE, SWEEP_ENABLED,
  CORS_ORIGINS, LOG_LEVEL. Use DATABASE_PATH=":memory:" for an
  in-memory database.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the sweep scheduler, waiting for a running sweep
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  DATABASE_PATH=./data/finanzas.db ./server

  # Run with in-memory database, sweep off
  DATABASE_PATH=:memory: SWEEP_ENABLED=false ./server

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: Overdue sweep
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/notluquis/finanzas-service-engine/api"
	"github.com/notluquis/finanzas-service-engine/config"
	"github.com/notluquis/finanzas-service-engine/store/sqlite"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("failed to load configuration")
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	// Initialize store
	store, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize database")
	}
	defer store.Close()

	// Initialize handler and router
	handler := api.NewHandler(store)
	router := api.NewRouter(handler, cfg.AllowedOrigins())

	// Start the overdue sweep
	sweep := api.NewOverdueSweep(store, logger, cfg.SweepSchedule)
	sweep.Enabled = cfg.SweepEnabled
	sweep.Start()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.WithField("port", cfg.ServerPort).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("server forced to shutdown")
	}

	sweep.Stop()
	logger.Info("server stopped")
}
