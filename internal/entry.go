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

	"github.com/starford/sowilo/internal/api"
	"github.com/starford/sowilo/internal/index"
	"github.com/starford/sowilo/internal/mcpserver"
	"github.com/starford/sowilo/internal/noteservice"
	"github.com/starford/sowilo/internal/search"
	"github.com/starford/sowilo/internal/storage"
	"github.com/starford/sowilo/internal/vault"
)

// engine is everything the commands share: the note service and the
// resources to release when the command ends.
type engine struct {
	cfg     *Config
	version string
	logger  *slog.Logger
	svc     *noteservice.Service
	db      *index.DB // nil without a chunk store
}

func (e *engine) Close() {
	if e.db != nil {
		if err := e.db.Close(); err != nil {
			e.logger.Warn("closing chunk store", slog.String("error", err.Error()))
		}
	}
}

func newEngine(defaultOut io.Writer, opts ...Option) (*engine, error) {
	app := &application{logOutput: defaultOut, version: "dev"}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("vault_path", cfg.Vault.Path),
		slog.Any("ignored_folders", cfg.Vault.IgnoredFolders),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Int("max_chunk_size", cfg.Chunking.MaxChunkSize),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Initialize storage.
	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	repo := vault.NewRepository(store, logger,
		vault.WithIgnoredFolders(cfg.Vault.IgnoredFolders...),
		vault.WithParseCache(cfg.Cache.ParseCapacity),
	)

	e := &engine{cfg: cfg, version: app.version, logger: logger}

	// The service takes an interface; a nil *index.DB must stay a nil interface.
	var chunks index.ChunkStore
	if cfg.SQLite.Enabled() {
		db, err := index.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("init index: %w", err)
		}
		e.db, chunks = db, db
	}

	e.svc = noteservice.NewService(repo, search.NewSearcher(cfg.Cache.ScoreCapacity), cfg.Chunking, chunks, logger)
	return e, nil
}

// initialScan loads the vault once at startup. Only an inaccessible root is
// fatal; individual files that fail are already skipped and logged.
func (e *engine) initialScan(ctx context.Context) error {
	res, err := e.svc.Reindex(ctx)
	if err != nil {
		return fmt.Errorf("initial scan: %w", err)
	}
	attrs := []any{slog.Int("notes", res.Notes)}
	if res.Chunks != nil {
		attrs = append(attrs, slog.Int("chunked", res.Chunks.Chunked))
	}
	e.logger.Info("Initial scan complete", attrs...)
	return nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	e, err := newEngine(os.Stdout, opts...)
	if err != nil {
		return err
	}
	defer e.Close()

	cfg, logger := e.cfg, e.logger

	if err := e.initialScan(ctx); err != nil {
		return err
	}

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
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if st, err := e.svc.Status(req.Context()); err != nil || st.ScannedAt == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", api.NewRouter(e.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

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

// RunMCP serves the MCP tools on stdin/stdout. Logs go to stderr unless
// WithLogOutput says otherwise.
func RunMCP(ctx context.Context, opts ...Option) error {
	e, err := newEngine(os.Stderr, opts...)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.initialScan(ctx); err != nil {
		return err
	}

	e.logger.Info("MCP server starting on stdio")
	if err := mcpserver.New(e.svc, e.version).ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

// RunIndex scans the vault once, syncs the chunk store and exits.
func RunIndex(ctx context.Context, opts ...Option) error {
	e, err := newEngine(os.Stdout, opts...)
	if err != nil {
		return err
	}
	defer e.Close()

	if e.db == nil {
		return fmt.Errorf("index: sqlite.path is empty, nothing to index into")
	}
	if err := e.initialScan(ctx); err != nil {
		return err
	}

	notes, chunks, err := e.db.Counts()
	if err != nil {
		return err
	}
	e.logger.Info("Chunk store ready", slog.Int("notes", notes), slog.Int("chunks", chunks))
	return nil
}
