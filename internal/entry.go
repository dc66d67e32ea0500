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

	"github.com/starford/blockpress/internal/api"
	"github.com/starford/blockpress/internal/block"
	"github.com/starford/blockpress/internal/docservice"
	"github.com/starford/blockpress/internal/index"
	"github.com/starford/blockpress/internal/mcpserver"
	"github.com/starford/blockpress/internal/sse"
	"github.com/starford/blockpress/internal/storage"
)

// runtime holds the components shared by the HTTP and MCP entry points.
type runtime struct {
	logger *slog.Logger
	store  storage.Provider
	db     *index.DB
	svc    *docservice.Service
}

// bootstrap opens storage and the index, runs the initial sync and builds
// the document service. Logs go to out.
func bootstrap(cfg *Config, out io.Writer, notify docservice.Notifier) (*runtime, error) {
	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("documents_path", cfg.Documents.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure documents directory exists.
	if err := os.MkdirAll(cfg.Documents.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create documents dir: %w", err)
	}

	// Initialize storage.
	store, err := storage.NewFS(cfg.Documents.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	// Initialize SQLite index.
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	// Run initial sync.
	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	factory := block.NewFactory(
		block.WithDefaultImageWidth(cfg.Editor.DefaultImageWidth),
		block.WithLogger(logger),
	)
	opts := []docservice.Option{
		docservice.WithFactory(factory),
		docservice.WithMinImageSize(cfg.Editor.MinImageSize),
		docservice.WithLogger(logger),
	}
	if notify != nil {
		opts = append(opts, docservice.WithNotifier(notify))
	}

	return &runtime{
		logger: logger,
		store:  store,
		db:     db,
		svc:    docservice.NewService(store, db, opts...),
	}, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(os.Stdout, opts...)
	if err != nil {
		return err
	}
	cfg := app.config

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	rt, err := bootstrap(cfg, app.logOut, broker.PublishDocumentEvent)
	if err != nil {
		return err
	}
	defer rt.db.Close()
	logger := rt.logger

	apiRouter := api.NewRouter(rt.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, cfg.Editor.MaxUploadBytes)

	// Build chi router.
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
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, `{"status":"ok","sessions":%d}`, rt.svc.Sessions())
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// File watcher: reindex, drop sessions edited from outside, publish.
	g.Go(func() error {
		return index.Watch(gCtx, rt.db, rt.store, cfg.Documents.Path, logger, func(kind, name string) {
			rt.svc.Invalidate(name)
			broker.PublishDocumentEvent(kind, name)
		})
	})

	// Start HTTP server.
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

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools on stdin/stdout. Logs default to stderr,
// stdout carries the protocol.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(os.Stderr, opts...)
	if err != nil {
		return err
	}
	cfg := app.config

	rt, err := bootstrap(cfg, app.logOut, nil)
	if err != nil {
		return err
	}
	defer rt.db.Close()

	srv := mcpserver.New(rt.svc,
		mcpserver.WithFetchTimeout(cfg.Editor.FetchTimeout),
		mcpserver.WithMaxImageBytes(cfg.Editor.MaxUploadBytes),
	)
	rt.logger.Info("MCP server starting on stdio")
	return srv.ServeStdio()
}
