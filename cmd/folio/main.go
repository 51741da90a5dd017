// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the folio server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"folio/internal/ai"
	"folio/internal/cache"
	"folio/internal/config"
	"folio/internal/database"
	"folio/internal/docstore"
	"folio/internal/generator"
	"folio/internal/handlers"
	"folio/internal/live"
	"folio/internal/markdown"
	"folio/internal/metrics"
	"folio/internal/middleware"
	"folio/internal/portfolio"
	"folio/internal/router"
	"folio/internal/session"
	"folio/internal/storage"
	"folio/internal/store"
	"folio/internal/tokens"
)

func main() {
	// Load configuration from the environment (and an optional .env file).
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: text at debug level in development, JSON otherwise.
	var logger *slog.Logger
	if cfg.IsDev() {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	} else {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	slog.SetDefault(logger)

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"portfolio", cfg.PortfolioID,
	)

	// Connect to PostgreSQL and run pending migrations.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Connect to Valkey (change feed, caches and sessions).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// Documents live in Postgres; every write is announced on the Valkey
	// feed so watchers in any instance see it.
	feed := docstore.NewValkeyFeed(valkeyClient)
	rawDocs := docstore.NewPostgres(db)
	docs := docstore.Notify(rawDocs, feed)
	watcher := docstore.NewWatcher(rawDocs, feed)

	if cfg.IsDev() {
		if err := database.Seed(context.Background(), db, docs, cfg.PortfolioID); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	m := metrics.New()

	// Generation providers, retried with jittered backoff.
	providerConfigs := make(map[string]ai.ProviderConfig, len(cfg.Providers))
	for name, p := range cfg.Providers {
		providerConfigs[name] = ai.ProviderConfig{APIKey: p.APIKey, Model: p.Model, BaseURL: p.BaseURL}
	}
	retry := ai.DefaultRetryConfig()
	retry.Attempts = cfg.AIRetryAttempts
	retry.BaseDelay = cfg.AIRetryBaseDelay
	aiRegistry := ai.NewRegistry(cfg.AIProvider, providerConfigs,
		ai.WithRetry(retry),
		ai.WithRetryHook(m.ProviderRetried),
	)
	slog.Info("ai providers initialized",
		"active", aiRegistry.ActiveName(),
		"available", aiRegistry.Available(),
	)
	if !aiRegistry.HasProvider(aiRegistry.ActiveName()) {
		slog.Warn("active ai provider has no api key; generation requests will fail", "provider", aiRegistry.ActiveName())
	}

	themePath, err := docstore.Parse(cfg.ThemeDocument)
	if err != nil || !themePath.IsDocument() {
		slog.Error("invalid theme document path", "path", cfg.ThemeDocument, "error", err)
		os.Exit(1)
	}
	genPaths, err := generator.DefaultPaths(cfg.PortfolioID)
	if err != nil {
		slog.Error("invalid portfolio id", "error", err)
		os.Exit(1)
	}
	genPaths.ActiveTheme = themePath

	gen := generator.New(aiRegistry, docs, genPaths,
		generator.WithResultCache(cache.NewIdempotency(valkeyClient, cache.DefaultIdempotencyTTL)),
		generator.WithRecorder(m),
	)

	portfolioPaths, err := portfolio.PathsFor(cfg.PortfolioID)
	if err != nil {
		slog.Error("invalid portfolio id", "error", err)
		os.Exit(1)
	}
	repo := portfolio.NewRepository(docs, portfolioPaths, markdown.ToHTML)
	portfolioCache := cache.NewPortfolioCache(valkeyClient, cache.DefaultPortfolioTTL)

	// Object storage is optional; uploads answer 503 without it.
	var media handlers.MediaStorage
	storageClient, err := storage.New(storage.Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		PublicURL: cfg.S3PublicURL,
	})
	switch {
	case err != nil:
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	case storageClient != nil:
		media = storageClient
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	default:
		slog.Warn("s3 storage not configured, media uploads disabled")
	}

	// The server-side theme propagator keeps /theme.css and /api/theme on
	// the active theme document.
	stylesheet := tokens.NewStylesheet()
	themeProp := live.NewThemePropagator(watcher, themePath,
		live.PresenterFunc(func(f live.Frame) { stylesheet.Set(f.Vars) }),
		live.WithObserver(m),
	)
	themeProp.Start(context.Background())
	defer themeProp.Close()

	sessionStore := session.NewStore(valkeyClient, cfg.SecureCookies())

	aiLimiter := middleware.NewRateLimiter(cfg.AIRateLimit, time.Minute)
	defer aiLimiter.Stop()

	liveHandlers := handlers.NewLive(watcher, themePath, portfolioPaths.Sections, cfg.AllowedOrigins, m)

	r := router.New(router.Deps{
		Sessions:      sessionStore,
		SecureCookies: cfg.SecureCookies(),
		AILimiter:     aiLimiter,
		Metrics:       m,
		Auth:          handlers.NewAuth(sessionStore, store.NewUserStore(db)),
		Admin:         handlers.NewAdmin(repo, media, portfolioCache, cfg.PortfolioID),
		AI:            handlers.NewAI(gen, aiRegistry, portfolioCache, cfg.PortfolioID),
		Public:        handlers.NewPublic(repo, portfolioCache, themeProp, stylesheet, cfg.PortfolioID),
		Live:          liveHandlers,
	})

	// WriteTimeout must accommodate generation requests that wait on the
	// model, including retries.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	srv.RegisterOnShutdown(liveHandlers.Close)

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
