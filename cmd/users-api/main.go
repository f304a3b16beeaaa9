// main is the entry point of the Users API application.
//
// STARTUP SEQUENCE:
//  1. Load configuration from a YAML file
//  2. Initialise the logger
//  3. Open the configured storage backend (SQLite or Postgres)
//  4. Register all HTTP routes
//  5. Start the HTTP server in a separate goroutine
//  6. Block until an OS signal (Ctrl+C / kill) arrives
//  7. Gracefully shut down, then close the storage
//
// RUNNING THE SERVER:
//
//	go run ./cmd/users-api --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/users-api
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aanand-mishra/users-api/internal/config"
	"github.com/aanand-mishra/users-api/internal/http/router"
	"github.com/aanand-mishra/users-api/internal/logging"
	"github.com/aanand-mishra/users-api/internal/storage"
	"github.com/aanand-mishra/users-api/internal/storage/postgres"
	"github.com/aanand-mishra/users-api/internal/storage/sqlite"
)

func main() {
	cfg := config.MustLoad()

	log := logging.New(cfg.Env, cfg.Log.Level, cfg.Log.Format, os.Stdout)
	slog.SetDefault(log)

	log.Info("starting users-api",
		slog.String("env", cfg.Env),
		slog.String("storage_driver", cfg.Storage.Driver),
	)

	store, err := openStorage(context.Background(), cfg.Storage)
	if err != nil {
		log.Error("failed to initialise storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	log.Info("storage initialised", slog.String("driver", cfg.Storage.Driver))

	server := &http.Server{
		Addr:         cfg.HTTPServer.Addr,
		Handler:      router.New(store),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	select {
	case <-done:
		log.Info("shutdown signal received, stopping server...")
	case err := <-serverErr:
		log.Error("server encountered an error", slog.String("error", err.Error()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server gracefully", slog.String("error", err.Error()))
		return
	}

	log.Info("server stopped gracefully")
}

// openStorage returns the backend selected by cfg.Driver.
func openStorage(ctx context.Context, cfg config.Storage) (storage.Storage, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgres.New(ctx, cfg.DSN)
	default:
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		return sqlite.New(ctx, cfg.Path, cfg.BusyTimeout)
	}
}
