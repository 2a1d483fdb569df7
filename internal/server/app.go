// Package server initializes and runs the gatekeeper server: storage and
// migrations, the token and auth services, the rate limiter, the request
// pipeline chains, and the HTTP endpoint with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mkorolev/gatekeeper/internal/logging"
	"github.com/mkorolev/gatekeeper/internal/server/config"
	"github.com/mkorolev/gatekeeper/internal/server/httpapi"
	"github.com/mkorolev/gatekeeper/internal/server/password"
	"github.com/mkorolev/gatekeeper/internal/server/pipeline"
	"github.com/mkorolev/gatekeeper/internal/server/ratelimit"
	"github.com/mkorolev/gatekeeper/internal/server/repositories/repomanager"
	"github.com/mkorolev/gatekeeper/internal/server/services"
	"github.com/mkorolev/gatekeeper/internal/server/tokens"
)

type App struct {
	config *config.Config
	logger logging.Logger
	repos  *repomanager.PostgresRepositoryManager
	api    *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	rm, err := repomanager.NewPostgresRepositoryManager(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	hasher, err := password.NewBcryptHasher(cfg.BcryptCost, cfg.HashWorkers)
	if err != nil {
		return nil, fmt.Errorf("hasher init error: %w", err)
	}

	tok, err := tokens.NewService(rm.RefreshRecords(), cfg)
	if err != nil {
		return nil, fmt.Errorf("token service init error: %w", err)
	}

	auth := services.NewAuthService(rm.Users(), hasher, tok, logger)

	chains := httpapi.NewChains(
		pipeline.NewLoggingStage(logger),
		pipeline.NewRateLimitStage(newLimiter(cfg), logger),
		pipeline.NewAuthenticationStage(tok),
	)

	api := httpapi.NewServer(auth, chains, logger)

	return &App{config: cfg, logger: logger, repos: rm, api: api}, nil
}

// newLimiter picks the rate-limiter backend: Redis when an address is
// configured, the in-process fixed-window limiter otherwise.
func newLimiter(cfg *config.Config) ratelimit.Limiter {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return ratelimit.NewRedisLimiter(client, cfg.RateLimitMax, cfg.RateLimitWindow)
	}
	return ratelimit.NewFixedWindowLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)
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

	app.logger.Info(ctx, "starting app", "addr", app.config.EndpointAddrHTTP)

	app.initSignalHandler(cancelFunc)

	if err := app.repos.RunMigrations(ctx); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	srv := &http.Server{
		Addr:    app.config.EndpointAddrHTTP,
		Handler: app.api.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	if err := app.repos.Close(); err != nil {
		return fmt.Errorf("db close error: %w", err)
	}

	app.logger.Info(context.Background(), "stopped")
	return nil
}
