// Package server initializes and runs the timesheet server: it opens the
// configured database, applies migrations, wires the lifecycle service to
// the HTTP API, and handles graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timegrid/timegrid/internal/logging"
	"github.com/timegrid/timegrid/internal/server/config"
	"github.com/timegrid/timegrid/internal/server/httpapi"
	"github.com/timegrid/timegrid/internal/server/repositories/repomanager"
	"github.com/timegrid/timegrid/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	api    *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	var manager repomanager.RepositoryManager
	var driver string
	switch cfg.DatabaseDriver {
	case "pgx", "postgres":
		manager = repomanager.NewPostgresRepositoryManager()
		driver = "pgx"
	case "sqlite":
		manager = repomanager.NewSQLiteRepositoryManager()
		driver = "sqlite"
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
	}

	db, err := sql.Open(driver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := manager.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	svc := services.NewTimesheetService(db, manager, logger)
	api := httpapi.NewServer(svc, cfg, logger)

	return &App{config: cfg, logger: logger, db: db, api: api}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app", "addr", app.config.EndpointAddr, "driver", app.config.DatabaseDriver)

	app.initSignalHandler(cancelFunc)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.api.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			app.logger.Error(ctx, "http server stopped", "error", err.Error())
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.api.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "shutdown error", "error", err.Error())
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
	app.logger.Info(ctx, "app stopped")
}
