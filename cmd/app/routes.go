package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/alekspanteli/exchange-rate-hub/internal/api"
	"github.com/alekspanteli/exchange-rate-hub/internal/api/middleware"
	"github.com/alekspanteli/exchange-rate-hub/internal/auth"
)

func (app *App) initHTTP() error {
	rate, err := limiter.NewRateFromFormatted(app.cfg.Admin.FetchRateLimit)
	if err != nil {
		return fmt.Errorf("admin rate limit: %w", err)
	}
	limit := middleware.RateLimit(limiter.New(memory.NewStore(), rate), app.logger)
	requireAdmin := middleware.RequireCapability(app.auth, auth.CapManageOptions, app.logger)

	admin := api.AdminDeps{
		Settings:  app.settings,
		Rates:     app.rates,
		Updater:   app.acquirer,
		Scheduler: app.scheduler,
		Notices:   app.notices,
		Nonces:    app.auth,
		Renderer:  app.renderer,
		Logger:    app.logger,
	}
	page := api.PageConfig{Title: app.cfg.Display.PageTitle, Content: app.cfg.Display.PageContent}

	r := chi.NewRouter()
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.RequestLoggingMiddleware(app.logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/rates", api.HandlePage(app.rates, app.settings, app.renderer, page))
	r.Get("/rates/shortcode", api.HandleShortcode(app.rates, app.settings, app.renderer))
	r.Get("/rates/table", api.HandleTable(app.rates, app.settings, app.renderer))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/rates", api.HandleGetRates(app.rates, app.settings))
		r.Get("/rates/history", api.HandleGetHistory(app.rates, app.settings))

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAdmin)
			r.Get("/status", api.HandleStatus(app.settings, app.scheduler))
			r.Post("/cache/clear", api.HandleClearCache(app.rates))
			r.With(limit).Post("/rates/refresh", api.HandleRefresh(app.scheduler))
		})
	})

	r.Post("/admin/login", api.HandleAdminLogin(app.auth, app.cfg.Server.SecureCookies, app.logger))
	r.Group(func(r chi.Router) {
		r.Use(requireAdmin)
		r.Get("/admin", api.HandleAdminPage(admin))
		r.With(limit).Post("/admin", api.HandleAdminSave(admin))
		r.With(limit).Get("/admin/fetch", api.HandleAdminFetch(admin))
		if app.cfg.Server.ServeAsynqmon {
			r.Handle(api.MonitoringPath+"/*", api.MonitoringHandler(app.cfg.Redis.AsynqAddr))
		}
	})

	r.Get("/healthz", api.HandleHealthz())
	r.Get("/readyz", api.HandleReadyz(
		api.Dependency{Name: "postgres", Ping: api.PingFunc(app.db.PingContext)},
		api.Dependency{Name: "redis cache", Ping: api.PingFunc(func(ctx context.Context) error {
			return app.rdbCache.Ping(ctx).Err()
		})},
		api.Dependency{Name: "redis asynq", Ping: api.PingFunc(func(ctx context.Context) error {
			return app.rdbAsynq.Ping(ctx).Err()
		})},
	))

	if app.cfg.Server.ServeSwagger {
		r.Get("/swagger/*", api.SwaggerUIHandler())
		r.Get("/openapi.json", api.OpenAPISpecHandler())
	}

	app.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      time.Duration(app.cfg.Worker.TimeoutSec)*time.Second + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return nil
}
