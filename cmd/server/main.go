package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/noteoverflow/noteoverflow/internal/bookmark"
	"github.com/noteoverflow/noteoverflow/internal/browse"
	"github.com/noteoverflow/noteoverflow/internal/export"
	"github.com/noteoverflow/noteoverflow/internal/httpapi"
	"github.com/noteoverflow/noteoverflow/internal/platform/cache"
	"github.com/noteoverflow/noteoverflow/internal/platform/config"
	"github.com/noteoverflow/noteoverflow/internal/platform/database"
	"github.com/noteoverflow/noteoverflow/internal/question"
	"github.com/noteoverflow/noteoverflow/internal/reference"
	"github.com/noteoverflow/noteoverflow/internal/storage"
	"github.com/noteoverflow/noteoverflow/internal/upload"
)

func main() {
	// Local development convenience; production sets real env vars.
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	srv, cleanup, err := buildServer(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      srv.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

// buildServer wires the API from config. Setting a database or cache
// URL to "memory" selects the in-memory implementation so a single
// binary can run without infrastructure.
func buildServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*httpapi.Server, func(), error) {
	ref, err := reference.NewLoader(cfg.ReferencePath)
	if err != nil {
		return nil, nil, fmt.Errorf("load reference data: %w", err)
	}
	logger.Info("reference data loaded", "curricula", len(ref.Curricula()))

	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	var ready []httpapi.Pinger

	var questionStore question.Store = question.NewMemoryStore()
	var bookmarkStore bookmark.Store = bookmark.NewMemoryStore()
	var finishedStore bookmark.FinishedStore = bookmark.NewMemoryFinishedStore()
	if cfg.Database.URL != "memory" {
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		cleanups = append(cleanups, db.Close)
		if err := db.EnsureSchema(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}

		if questionStore, err = question.NewPostgresStore(db.Pool); err != nil {
			cleanup()
			return nil, nil, err
		}
		if bookmarkStore, err = bookmark.NewPostgresStore(db.Pool); err != nil {
			cleanup()
			return nil, nil, err
		}
		if finishedStore, err = bookmark.NewPostgresFinishedStore(db.Pool); err != nil {
			cleanup()
			return nil, nil, err
		}
		ready = append(ready, db)
		logger.Info("database connected")
	} else {
		logger.Warn("no database configured, using in-memory stores")
	}

	var resultCache browse.ResultCache = browse.NewMemoryResultCache()
	var limiter browse.Limiter = browse.NewMemoryLimiter(
		cfg.Query.RateLimitQuota, time.Duration(cfg.Query.RateLimitWindow)*time.Second)
	var filterStore browse.FilterStore = browse.NewMemoryFilterStore()
	if cfg.Cache.URL != "memory" {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect cache: %w", err)
		}
		cleanups = append(cleanups, func() { c.Close() })

		resultCache = browse.NewRedisResultCache(c.Client)
		limiter = browse.NewRedisLimiter(c.Client,
			cfg.Query.RateLimitQuota, time.Duration(cfg.Query.RateLimitWindow)*time.Second)
		filterStore = browse.NewRedisFilterStore(c.Client)
		ready = append(ready, c)
		logger.Info("cache connected")
	} else {
		logger.Warn("no cache configured, using in-memory result cache")
	}

	executor := browse.NewExecutor(questionStore, ref, resultCache, limiter,
		time.Duration(cfg.Query.CacheTTLSeconds)*time.Second)

	objects := storage.New(cfg.Storage.BaseURL, cfg.Storage.Bucket,
		storage.WithMaxSize(cfg.Storage.MaxImageSize))

	srv := httpapi.New(httpapi.Options{
		Logger:         logger,
		JWTSecret:      cfg.Auth.JWTSecret,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		PageSize:       cfg.Query.PageSize,
		ChunkSize:      cfg.Query.ScrollChunkSize,
		MaxUploadBytes: cfg.Storage.MaxImageSize,
		Reference:      ref,
		Executor:       executor,
		Filters:        filterStore,
		Bookmarks:      bookmark.NewService(bookmarkStore, cfg.Bookmark.MaxLists, cfg.Bookmark.MaxItemsPerList),
		Finished:       finishedStore,
		Uploader:       upload.New(questionStore, ref, objects, logger),
		Exporter:       export.New(questionStore),
		Ready:          ready,
	})
	return srv, cleanup, nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
