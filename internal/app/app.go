// Package app wires configuration, logging, services, the websocket
// hub and the HTTP router into a runnable dashboard server.
package app

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"solarcli/internal/config"
	apierrors "solarcli/internal/errors"
	"solarcli/internal/infrastructure"
	custommw "solarcli/internal/middleware"
	"solarcli/internal/services"
	handlers "solarcli/internal/transport/http"
	ws "solarcli/internal/websocket"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Application is the dashboard server container.
type Application struct {
	Config *config.Config
	Router *chi.Mux
	Server *http.Server
	Logger *slog.Logger

	Hub           *ws.Hub
	DataService   *services.DataService
	CleanService  *services.CleanService
	HealthService *services.HealthService

	tracerShutdown func(context.Context) error
}

// NewApplication builds the application with all dependencies wired.
// frontendFS holds the embedded dashboard assets.
func NewApplication(frontendFS fs.FS) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := cfg.GetPaths().EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to prepare data directories: %w", err)
	}

	tracerShutdown, err := infrastructure.InitTracing("solarcli-web", tracingWriter(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	hub := ws.NewHub(logger)
	dataService := services.NewDataService(cfg, logger)
	cleanService := services.NewCleanService(cfg, dataService, hub, logger)
	healthService := services.NewHealthService(cfg, dataService, Version)

	app := &Application{
		Config:         cfg,
		Logger:         logger,
		Hub:            hub,
		DataService:    dataService,
		CleanService:   cleanService,
		HealthService:  healthService,
		tracerShutdown: tracerShutdown,
	}
	app.Router = app.buildRouter(frontendFS)
	app.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      app.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return app, nil
}

func (app *Application) buildRouter(frontendFS fs.FS) *chi.Mux {
	errorHandler := apierrors.NewErrorHandler(app.Logger, false)

	r := chi.NewRouter()
	r.Use(custommw.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(custommw.StructuredLogger(app.Logger))
	r.Use(custommw.Recoverer(errorHandler))
	r.Use(custommw.SecurityHeaders)
	r.Use(custommw.Metrics)
	r.Use(custommw.RateLimit(app.Config.Security.RateLimit, errorHandler))

	dataHandler := handlers.NewDataHandler(
		app.DataService,
		app.CleanService,
		app.Config.Server.MaxUploadBytes,
		app.Logger,
		errorHandler,
	)
	healthHandler := handlers.NewHealthHandler(app.HealthService)

	r.Mount("/api", dataHandler.Routes())
	r.Get("/healthz", healthHandler.Liveness)
	r.Get("/readyz", healthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", ws.ServeWS(app.Hub, app.Config.WebSocket, app.Config.Security.AllowedOrigins, app.Logger))

	if frontendFS != nil {
		r.Handle("/*", http.FileServer(http.FS(frontendFS)))
	}
	return r
}

// Run starts the hub and HTTP server and blocks until SIGINT/SIGTERM
// or a server failure, then shuts everything down gracefully.
func (app *Application) Run(ctx context.Context) error {
	app.Hub.Start()
	defer app.Hub.Stop()

	if err := app.DataService.LoadAll(ctx); err != nil {
		app.Logger.Warn("failed to load some datasets at startup",
			slog.String("error", err.Error()))
	}

	errCh := make(chan error, 1)
	go func() {
		app.Logger.Info("dashboard server listening",
			slog.String("addr", app.Server.Addr),
			slog.String("version", Version))
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		app.Logger.Info("shutting down", slog.String("signal", sig.String()))
	case <-ctx.Done():
		app.Logger.Info("shutting down", slog.String("reason", "context cancelled"))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := app.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if app.tracerShutdown != nil {
		if err := app.tracerShutdown(shutdownCtx); err != nil {
			app.Logger.Warn("tracer shutdown failed", slog.String("error", err.Error()))
		}
	}
	infrastructure.CloseLogFile()
	return nil
}

// tracingWriter sends spans to the log file when file logging is on,
// and discards them otherwise. Spans on stdout would corrupt the JSON
// log stream consumers expect.
func tracingWriter(cfg *config.Config) io.Writer {
	if cfg.Logging.Output == "file" || cfg.Logging.Output == "both" {
		file, err := os.OpenFile(cfg.Logging.FilePath+".traces", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			return file
		}
	}
	return io.Discard
}
