// Package server initializes and runs the block store server: it loads the
// configuration, opens the database, applies migrations, wires the services
// and serves the HTTP API until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"blockvault/internal/cryptox"
	"blockvault/internal/logging"
	"blockvault/internal/server/config"
	"blockvault/internal/server/httpapi"
	"blockvault/internal/server/repositories/repomanager"
	"blockvault/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	repos  repomanager.RepositoryManager
	http   *httpapi.HTTPServer
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()

	key, err := hex.DecodeString(cfg.FieldKey)
	if err != nil {
		return nil, fmt.Errorf("field key is not valid hex: %w", err)
	}
	enc, err := cryptox.NewEncryptor(key)
	if err != nil {
		return nil, fmt.Errorf("field key error: %w", err)
	}

	resolver := services.NewBreadcrumbResolver(db, repos)
	userSvc := services.NewUserService(db, repos, []byte(cfg.SecretKey),
		cfg.AccessTokenValidityDuration, cfg.RefreshTokenValidityDuration, logger)
	blockSvc := services.NewBlockService(db, repos, resolver, logger)
	fieldSvc := services.NewFieldService(db, repos, enc, logger)
	searchSvc := services.NewSearchService(db, repos, resolver, fieldSvc, logger)
	transferSvc := services.NewTransferService(db, repos, enc, logger)

	httpServer := httpapi.NewHTTPServer(cfg.HTTPAddr, logger,
		userSvc, blockSvc, fieldSvc, searchSvc, transferSvc)

	return &App{config: cfg, logger: logger, db: db, repos: repos, http: httpServer}, nil
}

func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	defer func() {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close error", "error", err.Error())
		}
	}()

	app.logger.Info(ctx, "Starting app...")

	if err := app.repos.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	return app.http.Run(ctx)
}
