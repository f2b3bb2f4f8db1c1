// Package server initializes and runs the application: it opens the database
// pool, applies migrations, wires the auth service to the HTTP surface, and
// handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/angel-serrato/authweb/internal/logging"
	"github.com/angel-serrato/authweb/internal/server/config"
	"github.com/angel-serrato/authweb/internal/server/mail"
	"github.com/angel-serrato/authweb/internal/server/repositories/repomanager"
	"github.com/angel-serrato/authweb/internal/server/services"
	"github.com/angel-serrato/authweb/internal/server/session"
	"github.com/angel-serrato/authweb/internal/server/web"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	authService *services.AuthService
	sessions    *session.Manager
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	slog := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slog)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	// The store is a hard dependency: ping with bounded backoff and fail
	// fast if it never answers.
	if err := pingWithRetry(ctx, db, pingRetryBase); err != nil {
		db.Close()
		return nil, fmt.Errorf("db unreachable: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	notifier, err := mail.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPSender)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("mail init error: %w", err)
	}

	authService := services.NewAuthService(db, rm, notifier, logger, cfg)
	sessions := session.NewManager(cfg.SecretKey, cfg.SessionValidityDuration)

	return &App{
		config:      cfg,
		logger:      logger,
		db:          db,
		authService: authService,
		sessions:    sessions,
	}, nil
}

const (
	pingRetryBase = 500 * time.Millisecond
	pingRetryMax  = 5
)

func pingWithRetry(ctx context.Context, db *sql.DB, base time.Duration) error {
	backoff := retry.WithMaxRetries(pingRetryMax, retry.NewExponential(base))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	handler := web.NewHandler(app.authService, app.sessions, app.logger)
	s := web.NewServer(app.config.EndpointAddr, handler.Routes(), app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
}
