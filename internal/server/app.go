// Package server initializes and runs the application server. It opens the
// database and cache connections, runs migrations, wires the services, and
// serves the REST API with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmaltsev/tasklist/internal/logging"
	"github.com/dmaltsev/tasklist/internal/server/cache"
	"github.com/dmaltsev/tasklist/internal/server/config"
	"github.com/dmaltsev/tasklist/internal/server/httpapi"
	"github.com/dmaltsev/tasklist/internal/server/mail"
	"github.com/dmaltsev/tasklist/internal/server/ratelimit"
	"github.com/dmaltsev/tasklist/internal/server/repositories/repomanager"
	"github.com/dmaltsev/tasklist/internal/server/services"
	"github.com/dmaltsev/tasklist/internal/server/verification"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger

	db    *sql.DB
	cache cache.Cache

	server *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	redisCache, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("cache init error: %w", err)
	}

	codes := verification.NewStore(redisCache, cfg.SignupCodeTTL, cfg.ResetPasswordCodeTTL)
	limiter := ratelimit.NewLimiter(redisCache, int64(cfg.RateLimitMaxRequests), cfg.RateLimitWindow)
	mailer := mail.NewSMTPDispatcher(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)

	authService := services.NewAuthService(db, rm, codes, mailer, logger, cfg)
	todoService := services.NewTodoService(db, rm, logger)
	userService := services.NewUserService(db, rm, logger)

	apiServer := httpapi.NewServer(authService, todoService, userService, limiter, logger, cfg)

	return &App{
		config: cfg,
		logger: logger,
		db:     db,
		cache:  redisCache,
		server: apiServer,
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

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	httpServer := &http.Server{
		Addr:    app.config.EndpointAddr,
		Handler: app.server.Router(),
	}

	go func() {
		app.logger.Info(ctx, "starting http server", "addr", app.config.EndpointAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error(ctx, "http server failed", "error", err)
			cancelFunc()
		}
	}()

	<-ctx.Done()

	app.logger.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, "http shutdown failed", "error", err)
	}

	if err := app.cache.Close(); err != nil {
		app.logger.Error(shutdownCtx, "cache close failed", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(shutdownCtx, "db close failed", "error", err)
	}
}
