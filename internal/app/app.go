package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"storefront-go/internal/auth"
	"storefront-go/internal/config"
	"storefront-go/internal/customer"
	"storefront-go/internal/session"
)

// Application holds all the major components of the service.
type Application struct {
	Config        *config.Config
	Logger        zerolog.Logger
	Auth          *auth.Client
	Sessions      session.Store
	Customers     *customer.Service
	HTTPServer    *http.Server
	MetricsServer *http.Server
}

// New creates and wires a new Application instance. Configuration has
// already been validated, so construction cannot fail on missing values.
func New(cfg *config.Config, logger zerolog.Logger) *Application {
	app := &Application{
		Config:    cfg,
		Logger:    logger,
		Auth:      auth.NewClient(cfg, logger),
		Sessions:  session.NewCookieStore(cfg.IsProduction()),
		Customers: customer.NewService(cfg, logger),
	}

	// Setup: metrics server
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	app.MetricsServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler: metricsMux,
	}

	// Setup: main HTTP server
	mux := http.NewServeMux()
	mux.HandleFunc(config.CallbackPath, app.handleAuthCallback)
	mux.HandleFunc("/api/auth/logout", app.handleLogout)
	mux.HandleFunc("/api/auth/debug", app.handleAuthDebug)
	mux.HandleFunc("/login", app.handleLoginPage)
	mux.Handle("/account", app.requireAuth(http.HandlerFunc(app.handleAccount)))
	mux.HandleFunc("/", app.handleHome)

	app.HTTPServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: app.withRequestLog(mux),
	}

	return app
}

// Start begins serving HTTP traffic and metrics.
func (a *Application) Start(ctx context.Context) error {
	a.Logger.Info().Msg("Starting application services...")

	go func() {
		a.Logger.Info().Str("addr", a.MetricsServer.Addr).Msg("Starting metrics server")
		if err := a.MetricsServer.ListenAndServe(); err != http.ErrServerClosed {
			a.Logger.Fatal().Err(err).Msg("Metrics server ListenAndServe")
		}
	}()

	go func() {
		a.Logger.Info().Str("addr", a.HTTPServer.Addr).Msg("Starting HTTP server")
		if err := a.HTTPServer.ListenAndServe(); err != http.ErrServerClosed {
			a.Logger.Fatal().Err(err).Msg("HTTP server ListenAndServe")
		}
	}()

	return nil
}

// Stop gracefully shuts down the application's services.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.Info().Msg("Stopping application services...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := a.HTTPServer.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if err := a.MetricsServer.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error().Err(err).Msg("Metrics server shutdown error")
	}

	a.Logger.Info().Msg("Application stopped gracefully.")
	return nil
}
