// Package server initializes and runs the application: it opens the
// database, applies migrations, wires the services and the HTTP router, and
// handles graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/passguard/passguard/internal/api"
	"github.com/passguard/passguard/internal/breach"
	"github.com/passguard/passguard/internal/logging"
	"github.com/passguard/passguard/internal/ratelimit"
	"github.com/passguard/passguard/internal/server/accounts"
	"github.com/passguard/passguard/internal/server/config"
	"github.com/passguard/passguard/internal/server/repositories/repomanager"
	"github.com/passguard/passguard/internal/server/users"
	"github.com/passguard/passguard/internal/session"
	"github.com/passguard/passguard/internal/totp"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	router *echo.Echo
	db     *sql.DB
	rdb    *redis.Client
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(cfg.LogLevel)

	db, err := repomanager.OpenDB(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	totpAuth := totp.NewAuthenticator(cfg.TOTPIssuer)
	userService := users.NewService(rm.Users(db), totpAuth, logger)

	checker := breach.NewChecker(cfg.BreachAPIURL, cfg.BreachTimeout, logger)
	accountService := accounts.NewService(rm.Accounts(db), checker, logger)

	sessions := session.NewIssuer([]byte(cfg.SecretKey), cfg.SessionTTL)

	var rdb *redis.Client
	var limiter ratelimit.Limiter
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		limiter = ratelimit.NewRedisLimiter(rdb, ratelimit.DefaultConfig(), logger)
	} else {
		limiter = ratelimit.NewMemoryLimiter(ratelimit.DefaultConfig())
	}

	router := api.NewRouter(userService, accountService, totpAuth, sessions, limiter)

	return &App{
		config: cfg,
		logger: logger,
		router: router,
		db:     db,
		rdb:    rdb,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run starts the HTTP server and blocks until the context is cancelled or
// the server fails, then shuts everything down.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting server", "addr", app.config.Addr)
	app.initSignalHandler(cancelFunc)

	errCh := make(chan error, 1)
	go func() {
		if err := app.router.Start(app.config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		app.logger.Error(ctx, "server failed", "error", runErr.Error())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.router.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, "shutdown error", "error", err.Error())
	}

	if app.rdb != nil {
		app.rdb.Close()
	}
	app.db.Close()

	app.logger.Info(shutdownCtx, "server stopped")
	return runErr
}
