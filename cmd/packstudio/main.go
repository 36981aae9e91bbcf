// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Command packstudio runs the content studio API server.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/olegiv/packstudio/internal/blocks"
	"github.com/olegiv/packstudio/internal/cache"
	"github.com/olegiv/packstudio/internal/config"
	"github.com/olegiv/packstudio/internal/favorites"
	"github.com/olegiv/packstudio/internal/handler/api"
	"github.com/olegiv/packstudio/internal/logging"
	"github.com/olegiv/packstudio/internal/media"
	"github.com/olegiv/packstudio/internal/scheduler"
	"github.com/olegiv/packstudio/internal/store"
	"github.com/olegiv/packstudio/internal/version"
)

// Build-time values injected via ldflags.
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "packstudio - content studio for packs, items and composed pages\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PACKS_DB_PATH           SQLite database path (default: ./data/packstudio.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PACKS_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PACKS_ENV               Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PACKS_LOG_LEVEL         debug|info|warn|error (default: info)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PACKS_DO_SEED           Insert demo content (default: false)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PACKS_REDIS_URL         Redis URL for shared page caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PACKS_UPLOADS_DIR       Image upload directory (default: ./uploads)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PACKS_FAVORITES_SWEEP   Schedule of the favorites retry sweep (default: @every 30s)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	info := version.Info{Version: appVersion, GitCommit: appGitCommit, BuildTime: appBuildTime}
	if *showVersion {
		_, _ = fmt.Println(info.String())
		os.Exit(0)
	}

	if err := run(info); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(info version.Info) error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := cfg.SlogLevel()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	if v, err := store.SchemaVersion(db); err == nil {
		slog.Info("database schema ready", "version", v)
	}
	queries := store.New(db)

	// Mirror WARN and ERROR logs into the event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(logging.NewEventLogHandler(textHandler, queries))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := store.Seed(ctx, db, cfg.DoSeed); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}

	pageCache, err := cache.New(cache.Config{
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix,
		DefaultTTL:      cfg.CacheTTL,
		MaxSize:         cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	})
	if err != nil {
		slog.Warn("cache unavailable, using memory", "error", err)
		pageCache = cache.NewMemoryCache(cache.MemoryOptions{
			DefaultTTL:      cfg.CacheTTL,
			MaxSize:         cfg.CacheMaxSize,
			CleanupInterval: time.Minute,
		})
	}
	defer func() { _ = pageCache.Close() }()
	slog.Info("page cache initialized", "backend", cache.Backend(pageCache))

	composer := blocks.NewComposer(queries, pageCache, cfg.CacheTTL, logger)

	reconciler := favorites.NewReconciler(queries, logger, favorites.ReconcilerOptions{
		BaseDelay:  cfg.FavoritesRetryDelay,
		MaxDelay:   5 * time.Second,
		MaxRetries: cfg.FavoritesRetries,
	})
	reconciler.Start(ctx)
	defer reconciler.Stop()

	uploader := media.NewUploader(media.Options{
		Dir:          cfg.UploadsDir,
		BaseURL:      cfg.UploadsBaseURL,
		MaxSize:      cfg.UploadMaxSize,
		MaxDimension: cfg.UploadMaxDim,
	}, logger)

	jobs := scheduler.New(logger, cfg.JobTimeout)
	if err := jobs.AddFavoritesSweep(cfg.FavoritesSweep, reconciler); err != nil {
		return fmt.Errorf("scheduling favorites sweep: %w", err)
	}
	if err := jobs.AddEventPruning(cfg.EventsPrune, cfg.EventsRetention, queries); err != nil {
		return fmt.Errorf("scheduling event pruning: %w", err)
	}
	jobs.Start()
	defer jobs.Stop()

	apiHandler := api.NewHandler(api.Deps{
		Queries:   queries,
		Composer:  composer,
		Favorites: favorites.NewRegistry(queries, reconciler),
		Uploader:  uploader,
		Jobs:      jobs,
		Logger:    logger,
		Version:   info,
	})

	srv := &http.Server{
		Addr: cfg.ServerAddr(),
		Handler: apiHandler.Router(api.RouterOptions{
			RequestTimeout: 60 * time.Second,
			UploadRate:     cfg.UploadRateLimit,
			UploadBurst:    cfg.UploadBurst,
			UploadsDir:     cfg.UploadsDir,
			UploadsPath:    cfg.UploadsBaseURL,
		}),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", info.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	// Give queued favorite writes a chance to land before the worker stops.
	if err := reconciler.WaitIdle(shutdownCtx); err != nil {
		slog.Warn("favorites still pending at shutdown", "pending", reconciler.Pending())
	}

	slog.Info("server stopped")
	return nil
}
