// Package server initializes and runs the account server: it loads
// configuration, opens the selected storage engine, runs migrations, wires
// the service, and serves the HTTP API until shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/poslynx/tillkeeper/internal/cryptox"
	"github.com/poslynx/tillkeeper/internal/logging"
	"github.com/poslynx/tillkeeper/internal/server/config"
	"github.com/poslynx/tillkeeper/internal/server/httpapi"
	"github.com/poslynx/tillkeeper/internal/server/repositories/repomanager"
	"github.com/poslynx/tillkeeper/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := repomanager.Open(cfg.Engine, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repos, err := repomanager.New(cfg.Engine)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := repos.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	users, err := services.NewUserService(db, repos, cryptox.NewArgon2Hasher(), logger, cfg)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("user service init error: %w", err)
	}

	srv := httpapi.NewServer(cfg.HTTPAddr, users, logger)

	return &App{config: cfg, logger: logger, db: db, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	app.logger.Info(ctx, "starting server",
		"addr", app.config.HTTPAddr, "engine", app.config.Engine)

	err := app.server.Run(ctx)

	if closeErr := app.db.Close(); closeErr != nil {
		app.logger.Error(ctx, "db close error", "err", closeErr)
	}

	return err
}
