// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/notepad/internal/api"
	"github.com/starford/notepad/internal/inbox"
	"github.com/starford/notepad/internal/notify"
	"github.com/starford/notepad/internal/provider"
	"github.com/starford/notepad/internal/resource"
	"github.com/starford/notepad/internal/sse"
	"github.com/starford/notepad/internal/store"
)

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(cfg, app.logOutput)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("inbox_path", cfg.Inbox.Path),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	p, closeFn, err := openProvider(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	broker := sse.NewBroker(p, cfg.Notify.SSEKeepalive, logger)
	handler := api.NewHandler(p)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", handler.Ready)

	r.Mount("/api", api.NewRouter(p, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Inbox.Enabled() {
		in, err := inbox.New(p, cfg.Inbox.Path, logger)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return in.Watch(gCtx)
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...",
			slog.Int("sse_clients", broker.ClientCount()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the inbox watcher stops with the server.
var errShutdown = errors.New("shutdown")

func newApplication(opts []Option) (*application, error) {
	app := &application{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}

// openProvider opens the store and starts the notifier. The returned func
// releases both.
func openProvider(ctx context.Context, cfg *Config, logger *slog.Logger) (*provider.Provider, func(), error) {
	router := resource.NewRouter()

	st, err := store.Open(ctx, cfg.SQLite.Path, router, cfg.SQLite.storeOptions(logger)...)
	if err != nil {
		return nil, nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info("Store opened",
		slog.String("path", cfg.SQLite.Path),
		slog.Int("schema_version", st.Version()))

	n := notify.NewNotifier(router, logger)

	closeFn := func() {
		n.Close()
		if err := st.Close(); err != nil {
			logger.Error("store close error", slog.String("error", err.Error()))
		}
	}
	return provider.New(router, st, n, logger), closeFn, nil
}
