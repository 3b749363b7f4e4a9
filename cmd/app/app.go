// Package main is the entry point for the exchange rate hub.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alekspanteli/exchange-rate-hub/internal/auth"
	"github.com/alekspanteli/exchange-rate-hub/internal/config"
	"github.com/alekspanteli/exchange-rate-hub/internal/lifecycle"
	"github.com/alekspanteli/exchange-rate-hub/internal/provider"
	"github.com/alekspanteli/exchange-rate-hub/internal/ratecache"
	"github.com/alekspanteli/exchange-rate-hub/internal/repository"
	"github.com/alekspanteli/exchange-rate-hub/internal/scheduler"
	"github.com/alekspanteli/exchange-rate-hub/internal/service"
	"github.com/alekspanteli/exchange-rate-hub/internal/settings"
	"github.com/alekspanteli/exchange-rate-hub/internal/view"
	"github.com/alekspanteli/exchange-rate-hub/internal/worker"
)

// uniqueUpdateWindow drops a one-off update enqueued while an identical one
// is still pending.
const uniqueUpdateWindow = time.Minute

// App holds all application dependencies and manages their lifecycle.
type App struct {
	cfg    *config.Config
	logger *zap.SugaredLogger

	db       *sql.DB
	rdbCache *redis.Client
	rdbAsynq *redis.Client

	asynqClient    *asynq.Client
	asynqServer    *asynq.Server
	asynqMux       *asynq.ServeMux
	asynqScheduler *asynq.Scheduler

	settings  *settings.Store
	rates     *service.RateStore
	notices   *ratecache.Notices
	acquirer  *service.Acquirer
	scheduler *scheduler.Scheduler
	auth      *auth.Authenticator
	renderer  *view.Renderer
	lifecycle *lifecycle.Lifecycle

	httpServer *http.Server
}

// NewApp initializes all dependencies and returns a ready-to-run App.
func NewApp(cfg *config.Config, logger *zap.SugaredLogger) (*App, error) {
	app := &App{
		cfg:    cfg,
		logger: logger,
	}

	if err := app.initStorage(); err != nil {
		_ = app.close()
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.close()
		return nil, err
	}

	if err := app.initHTTP(); err != nil {
		_ = app.close()
		return nil, err
	}

	return app, nil
}

// close releases database and Redis connections
func (app *App) close() error {
	var errs []error
	if app.asynqClient != nil {
		if err := app.asynqClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("asynq client close: %w", err))
		}
	}
	if app.rdbAsynq != nil {
		if err := app.rdbAsynq.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis asynq close: %w", err))
		}
	}
	if app.rdbCache != nil {
		if err := app.rdbCache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis cache close: %w", err))
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("db close: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (app *App) initStorage() error {
	db, err := repository.NewPostgresDB(&app.cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to Postgres: %w", err)
	}
	app.db = db

	if err := repository.RunMigrations(app.cfg.Database.DSN, app.logger); err != nil {
		return fmt.Errorf("run DB migrations: %w", err)
	}

	app.rdbCache = redis.NewClient(&redis.Options{
		Addr: app.cfg.Redis.CacheAddr,
	})
	if err := app.rdbCache.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("connect to Redis (cache, %s): %w", app.cfg.Redis.CacheAddr, err)
	}
	app.logger.Infow("Connected to Redis cache", "addr", app.cfg.Redis.CacheAddr)

	return nil
}

func (app *App) initServices() error {
	redisOpt := asynq.RedisClientOpt{Addr: app.cfg.Redis.AsynqAddr}
	taskTimeout := time.Duration(app.cfg.Worker.TimeoutSec) * time.Second

	app.rdbAsynq = redis.NewClient(&redis.Options{Addr: app.cfg.Redis.AsynqAddr})
	app.asynqClient = asynq.NewClient(redisOpt)
	app.asynqServer = asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency:              app.cfg.Worker.Concurrency,
			DelayedTaskCheckInterval: time.Duration(app.cfg.Worker.CheckIntervalSec) * time.Second,
			TaskCheckInterval:        time.Duration(app.cfg.Worker.CheckIntervalSec) * time.Second,
		},
	)
	app.asynqScheduler = asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Location: time.UTC})
	app.logger.Infow("Asynq configured", "addr", app.cfg.Redis.AsynqAddr)

	app.settings = settings.NewStore(repository.NewPostgresOptionRepository(app.db))
	app.notices = ratecache.NewNotices(app.rdbCache, app.logger)
	app.rates = service.NewRateStore(
		repository.NewPostgresRateRepository(app.db),
		ratecache.New(app.rdbCache, app.cfg.Cache.RatesTTL(), app.logger),
		app.logger,
	)

	recorder := service.NewFetchErrorRecorder(app.settings, app.notices, app.logger)
	rateProvider := provider.NewRecordingProvider(newRateProvider(app.cfg, app.logger), recorder, app.logger)
	app.acquirer = service.NewAcquirer(app.settings, rateProvider, app.rates, app.logger)

	enqueuer := worker.NewAsynqEnqueuer(app.asynqClient, taskTimeout, uniqueUpdateWindow, app.logger)
	app.scheduler = scheduler.New(app.asynqScheduler, enqueuer, taskTimeout, app.logger)

	app.asynqMux = asynq.NewServeMux()
	app.asynqMux.HandleFunc(service.TaskTypeUpdateRates, worker.NewRatesUpdateHandler(app.acquirer, app.logger))
	app.asynqMux.HandleFunc(service.TaskTypePruneHistory, worker.NewPruneHistoryHandler(app.rates, app.logger))

	app.auth = auth.New(
		app.cfg.Admin.JWTSecret,
		time.Duration(app.cfg.Admin.TokenTTLHours)*time.Hour,
		time.Duration(app.cfg.Admin.NonceTTLSec)*time.Second,
	)

	renderer, err := view.NewRenderer(app.cfg.Display.Location(), app.cfg.Display.DateFormat)
	if err != nil {
		return err
	}
	app.renderer = renderer

	app.lifecycle = lifecycle.New(app.settings, app.scheduler, app.acquirer, app.cfg.History.RetentionDays, app.logger)
	return nil
}

// newRateProvider returns fxratesapi alone, or fxratesapi with frankfurter
// as fallback when a frankfurter base URL is configured.
func newRateProvider(cfg *config.Config, logger *zap.SugaredLogger) provider.RatesProvider {
	primary := provider.NewFxRatesAPIProvider(cfg.FxRatesAPI.BaseURL, cfg.FxRatesAPI.Timeout, logger)
	if cfg.Frankfurter.BaseURL == "" {
		return primary
	}
	fallback := provider.NewFrankfurterProvider(cfg.Frankfurter.BaseURL, cfg.Frankfurter.Timeout, logger)
	return provider.NewExchangeProviderFacade(primary, fallback)
}

// Run activates the service, then starts the HTTP server, the Asynq worker
// and the Asynq scheduler, blocking until the context is canceled.
func (app *App) Run(ctx context.Context) error {
	if err := app.lifecycle.Activate(ctx); err != nil {
		return fmt.Errorf("activate: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.logger.Infow("Starting Asynq worker server")
		if err := app.asynqServer.Start(app.asynqMux); err != nil {
			return fmt.Errorf("asynq worker failed to start: %w", err)
		}

		<-ctx.Done()
		return nil
	})

	g.Go(func() error {
		app.logger.Infow("Starting Asynq scheduler")
		if err := app.asynqScheduler.Start(); err != nil {
			return fmt.Errorf("asynq scheduler failed to start: %w", err)
		}

		<-ctx.Done()
		return nil
	})

	g.Go(func() error {
		app.logger.Infow("HTTP server listening", "port", app.cfg.Server.Port)
		if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown: triggered by context cancellation (signal or component failure).
	g.Go(func() error {
		<-ctx.Done()
		return app.shutdown()
	})

	return g.Wait()
}

// shutdown performs ordered teardown: HTTP server -> recurring entries ->
// Asynq scheduler -> Asynq worker -> connections.
func (app *App) shutdown() error {
	app.logger.Infow("Shutting down server...")

	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 1. Stop accepting new HTTP requests, drain in-flight
	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		app.logger.Errorw("HTTP server shutdown error", "error", err)
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	// 2. Remove the recurring entries and stop scheduling
	if err := app.lifecycle.Deactivate(); err != nil {
		app.logger.Errorw("Deactivation error", "error", err)
		errs = append(errs, fmt.Errorf("deactivate: %w", err))
	}
	app.asynqScheduler.Shutdown()

	// 3. Drain in-flight Asynq tasks
	app.asynqServer.Shutdown()

	// 4. Close connections (asynq client, Redis, database)
	if err := app.close(); err != nil {
		app.logger.Errorw("Connection cleanup errors", "error", err)
		errs = append(errs, err)
	}

	app.logger.Infow("Shutdown complete")
	return errors.Join(errs...)
}
