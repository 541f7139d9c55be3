/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the scale-up planner server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (YAML file + environment), apply flag overrides
  2. Initialize logger
  3. Open SQLite store (scenarios, KPIs, cost data, modification log)
  4. Select the configurations backend (SQLite or Postgres)
  5. Create gateway, session manager and API handler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  YAML configuration file (default: planner.yaml, optional)
  -port    HTTP server port (overrides config)
  -db      SQLite database path (overrides config)
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Flush pending autosaves
  4. Close database connections
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/planner.db"

  # Saved plans in Postgres
  PLANNER_CONFIG_BACKEND=postgres PLANNER_POSTGRES_URL=postgres://... ./server

SEE ALSO:
  - config/config.go: All settings and their environment variables
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/scaleup-planner/api"
	"github.com/warp/scaleup-planner/config"
	"github.com/warp/scaleup-planner/gateway"
	"github.com/warp/scaleup-planner/logging"
	"github.com/warp/scaleup-planner/session"
	"github.com/warp/scaleup-planner/store/postgres"
	"github.com/warp/scaleup-planner/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Flags
	configPath := flag.String("config", "planner.yaml", "YAML configuration file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Initialize store
	if cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
	}
	store, err := sqlite.Open(cfg.Database.Path, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()
	logger.Info("SQLite store ready", zap.String("path", cfg.Database.Path))

	// Configurations backend
	var configs gateway.ConfigurationStore = store
	if cfg.Database.ConfigurationsBackend == config.BackendPostgres {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		pg, err := postgres.Connect(ctx, cfg.Database.PostgresURL, logger)
		cancel()
		if err != nil {
			return fmt.Errorf("connect %s: %w", logging.SanitizeDSN(cfg.Database.PostgresURL), err)
		}
		defer pg.Close()
		configs = pg
		logger.Info("Saving configurations to Postgres",
			zap.String("url", logging.SanitizeDSN(cfg.Database.PostgresURL)))
	}

	retry := gateway.DefaultRetryConfig()
	retry.MaxRetries = cfg.Autosave.MaxRetries
	gw := gateway.New(configs, logger).WithRetry(retry)

	sessions := session.NewManager(gw, logger, session.Options{AutosaveDelay: cfg.Autosave.Delay})

	layout, err := cfg.Report.Layout()
	if err != nil {
		return err
	}

	// Initialize handler
	handler := api.NewHandler(store, gw, sessions, logger)
	handler.Layout = layout
	handler.DefaultOrgKey = cfg.DefaultOrgKey

	// Create router
	router := api.NewRouter(handler, api.RouterOptions{
		CORSOrigins: cfg.Server.CORSOrigins,
		Auth: api.AuthOptions{
			Enabled:  cfg.Auth.Enabled,
			Tokens:   cfg.Auth.Tokens,
			LoginURL: cfg.Auth.LoginURL,
		},
		Logger: logger,
	})

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			zap.String("addr", server.Addr),
			zap.Bool("auth", cfg.Auth.Enabled))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := sessions.Close(ctx); err != nil {
		logger.Error("Failed to flush pending saves", zap.Error(err))
	}

	logger.Info("Server stopped")
	return nil
}
