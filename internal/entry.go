// Package internal provides the main application initialization and runtime logic.
package internal

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/inkpad/internal/api"
	"github.com/starford/inkpad/internal/copyfeedback"
	"github.com/starford/inkpad/internal/editor"
	"github.com/starford/inkpad/internal/kvstore"
	"github.com/starford/inkpad/internal/mcpserver"
	"github.com/starford/inkpad/internal/render"
	"github.com/starford/inkpad/internal/sse"
	"github.com/starford/inkpad/internal/state"
	"github.com/starford/inkpad/internal/web"
)

// runtime is the state shared by the HTTP and MCP entry points.
type runtime struct {
	cfg     *Config
	logger  *slog.Logger
	db      *kvstore.DB
	broker  *sse.Broker
	session *editor.Session
}

func (rt *runtime) close() {
	rt.session.Close()
	rt.broker.Close()
	if err := rt.db.Close(); err != nil {
		rt.logger.Error("close snapshot store", slog.String("error", err.Error()))
	}
}

func setup(opts []Option) (*application, *runtime, error) {
	app := &application{version: "dev", logOutput: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Bool("allow_raw_html", cfg.Render.AllowRawHTML),
		slog.Duration("debounce", cfg.Editor.Debounce),
		slog.String("follow_file", cfg.Editor.FollowFile),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Initialize SQLite snapshot store.
	db, err := kvstore.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init snapshot store: %w", err)
	}

	// Restore persisted state.
	doc, err := state.LoadDocument(db, editor.SampleDocument, logger)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("load document: %w", err)
	}
	prefs, err := state.LoadPreferences(db, logger)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("load preferences: %w", err)
	}

	// Render pipeline.
	pipeline, err := render.NewDefault(render.Options{
		AllowRawHTML:   cfg.Render.AllowRawHTML,
		HighlightStyle: cfg.Render.Highlight.Light,
	}, logger)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("init render pipeline: %w", err)
	}
	logger.Debug("render pipeline ready", slog.Any("stages", pipeline.Stages()))

	var clip copyfeedback.Clipboard = copyfeedback.BrowserClipboard{}
	if cfg.Editor.Clipboard == ClipboardSystem {
		clip = copyfeedback.SystemClipboard{}
	}

	// SSE broker. New clients receive the current state on connect.
	broker := sse.NewBroker(
		sse.EventDocumentUpdated,
		sse.EventPreferencesUpdated,
		sse.EventFilenameSession,
		sse.EventPreviewUpdated,
		sse.EventProcessing,
	)

	session, err := editor.New(editor.Deps{
		Document:    doc,
		Preferences: prefs,
		Pipeline:    pipeline,
		Clipboard:   clip,
		Publisher:   broker,
		Logger:      logger,
	}, editor.Config{
		Debounce:      cfg.Editor.Debounce,
		CopyReset:     cfg.Editor.CopyReset,
		ExportLinkTTL: cfg.Editor.ExportLinkTTL,
	})
	if err != nil {
		broker.Close()
		db.Close()
		return nil, nil, fmt.Errorf("init editor session: %w", err)
	}

	return app, &runtime{cfg: cfg, logger: logger, db: db, broker: broker, session: session}, nil
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	_, rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.close()

	cfg, logger := rt.cfg, rt.logger

	highlightCSS, err := web.NewHighlightCSS(cfg.Render.Highlight.Light, cfg.Render.Highlight.Dark)
	if err != nil {
		return fmt.Errorf("init highlight css: %w", err)
	}

	// Build API router.
	apiRouter := api.NewRouter(rt.session, cfg.Auth.AuthEnabled(), cfg.Auth.Token, rt.broker)

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
	r.Get("/health/ready", readyHandler(rt.db, rt.session, logger))

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	// Static client.
	r.Handle("/assets/highlight.css", highlightCSS)
	r.Handle("/*", web.Handler())

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(runCtx)

	// Follow the source file, if configured.
	if cfg.Editor.FollowFile != "" {
		g.Go(func() error {
			if err := rt.session.Follow(gCtx, cfg.Editor.FollowFile); err != nil {
				logger.Error("follow failed", slog.String("path", cfg.Editor.FollowFile), slog.String("error", err.Error()))
			}
			return nil
		})
	}

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
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// SSE streams end when the broker closes their channels.
		rt.broker.Close()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		// Stop the follower.
		cancel()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the editor as MCP tools over stdio until stdin closes.
func RunMCP(ctx context.Context, opts ...Option) error {
	opts = append([]Option{WithLogOutput(os.Stderr)}, opts...)
	app, rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(runCtx)
	if rt.cfg.Editor.FollowFile != "" {
		g.Go(func() error {
			return rt.session.Follow(gCtx, rt.cfg.Editor.FollowFile)
		})
	}

	srv := mcpserver.New(rt.session, app.version)
	rt.logger.Info("MCP server starting on stdio")
	serveErr := srv.ServeStdio()
	rt.logger.Info("MCP server stopped")

	cancel()
	if err := g.Wait(); err != nil {
		rt.logger.Error("follow failed", slog.String("error", err.Error()))
	}
	if serveErr != nil {
		return fmt.Errorf("mcp: %w", serveErr)
	}
	return nil
}
