// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

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

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/olegiv/post-connector/internal/cache"
	"github.com/olegiv/post-connector/internal/config"
	"github.com/olegiv/post-connector/internal/content"
	"github.com/olegiv/post-connector/internal/handler"
	"github.com/olegiv/post-connector/internal/handler/api"
	"github.com/olegiv/post-connector/internal/imaging"
	"github.com/olegiv/post-connector/internal/lifecycle"
	"github.com/olegiv/post-connector/internal/logging"
	"github.com/olegiv/post-connector/internal/media"
	"github.com/olegiv/post-connector/internal/metrics"
	"github.com/olegiv/post-connector/internal/middleware"
	"github.com/olegiv/post-connector/internal/post"
	"github.com/olegiv/post-connector/internal/scheduler"
	"github.com/olegiv/post-connector/internal/settings"
	"github.com/olegiv/post-connector/internal/store"
	"github.com/olegiv/post-connector/internal/version"
	"github.com/olegiv/post-connector/internal/webhook"
)

// Version information - injected at build time via ldflags
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
		_, _ = fmt.Fprintf(os.Stderr, "Post Connector - blog post API for external publishing platforms\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options] [command]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Commands:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  serve                         Run the HTTP server (default)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  token show|regenerate         Print or replace the API token\n")
		_, _ = fmt.Fprintf(os.Stderr, "  defaults [-author N] [-category N] [-logo URL] [-secret KEY]\n")
		_, _ = fmt.Fprintf(os.Stderr, "  uninstall                     Remove connector settings and cached data\n")
		_, _ = fmt.Fprintf(os.Stderr, "  import-wp -dsn DSN [-prefix wp_] Import content from a WordPress database\n")
		_, _ = fmt.Fprintf(os.Stderr, "  post trash|restore|delete ID  Manage a post\n")
		_, _ = fmt.Fprintf(os.Stderr, "  category create|update|delete [ID] [-name N] [-slug S] [-description D]\n")
		_, _ = fmt.Fprintf(os.Stderr, "  tag create|update|delete [ID] [-name N] [-slug S] [-description D]\n")
		_, _ = fmt.Fprintf(os.Stderr, "  user create|update|delete [ID] [-login L] [-email E] [-name N] [-role R] [-reassign ID]\n")
		_, _ = fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PC_DB_PATH        SQLite database path (default: ./data/postconnector.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PC_SERVER_PORT    Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PC_ENV            Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PC_SITE_URL       Public site URL used in permalinks and webhooks\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PC_WEBHOOK_URL    Webhook endpoint for content changes\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PC_REDIS_URL      Redis URL for the shared cache (optional)\n")
	}

	flag.Parse()

	// Handle -h/-help flag
	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	// Handle -v/-version flag
	if *showVersion {
		_, _ = fmt.Printf("postconnector %s (commit: %s, built: %s, api: %s)\n",
			appVersion, appGitCommit, appBuildTime, version.PluginVersion)
		os.Exit(0)
	}

	if err := run(flag.Args()); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	command := "serve"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()
	switch command {
	case "serve":
		return a.serve()
	case "token":
		return a.tokenCommand(ctx, args)
	case "defaults":
		return a.defaultsCommand(ctx, args)
	case "uninstall":
		return a.uninstall(ctx)
	case "import-wp":
		return a.importWordPress(ctx, args)
	case "post", "category", "tag", "user":
		return manager{content: a.content, out: os.Stdout}.run(ctx, command, args)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

// app holds the services shared by every command.
type app struct {
	cfg       *config.Config
	db        *sql.DB
	logger    *slog.Logger
	tokens    *settings.TokenStore
	connector *settings.Connector
	settings  *settings.SQLStore
	cache     cache.Cache
	metrics   *metrics.Metrics
	release   *version.ReleaseChecker
	bus       *lifecycle.Bus
	content   *content.Service
}

func newApp(cfg *config.Config) (*app, error) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}
	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	// Upgrade logger to also write WARN and ERROR logs to the events table
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)

	ctx := context.Background()
	if err := store.Seed(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("seeding database: %w", err)
	}

	settingsStore := settings.NewSQLStore(db)
	tokens := settings.NewTokenStore(settingsStore)
	if _, err := tokens.Ensure(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensuring api token: %w", err)
	}
	connector := settings.NewConnector(settingsStore)

	m := metrics.New()
	c := cache.New(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: version.ReleaseCacheTTL,
	})
	release := version.NewReleaseChecker(version.ReleaseCheckerConfig{
		URL:     cfg.ReleaseAPIURL,
		Cache:   c,
		Metrics: m,
		Logger:  logger,
	})

	bus := lifecycle.NewBus(logger)
	webhook.NewDispatcher(db, webhook.Config{
		URL:     cfg.WebhookURL,
		Timeout: cfg.WebhookTimeout,
		SiteURL: cfg.SiteURL,
		Tokens:  tokens,
		Secrets: connector,
		Metrics: m,
		Logger:  logger,
	}).Register(bus)

	return &app{
		cfg:       cfg,
		db:        db,
		logger:    logger,
		tokens:    tokens,
		connector: connector,
		settings:  settingsStore,
		cache:     c,
		metrics:   m,
		release:   release,
		bus:       bus,
		content:   content.NewService(db, bus, logger),
	}, nil
}

func (a *app) close() {
	if err := a.cache.Close(); err != nil {
		slog.Error("error closing cache", "error", err)
	}
	if err := a.db.Close(); err != nil {
		slog.Error("error closing database connection", "error", err)
	}
}

func (a *app) serve() error {
	cfg := a.cfg
	queries := store.New(a.db)

	fetcher := media.NewFetcher(media.FetcherConfig{
		MaxBytes: cfg.ImageMaxBytes,
		Timeout:  cfg.ImageTimeout,
	})
	library := media.NewLibrary(queries, fetcher, imaging.NewProcessor(cfg.UploadsDir), cfg.SiteURL+"/uploads")

	posts := post.NewService(post.Config{
		Queries:  queries,
		Writer:   a.content,
		Images:   library,
		Defaults: a.connector,
		SiteURL:  cfg.SiteURL,
		Location: cfg.Location(),
		Logger:   a.logger,
	})

	apiHandler := api.NewHandler(api.Config{
		Queries: queries,
		Posts:   posts,
		Release: a.release,
		Build: version.Info{
			Version:   appVersion,
			GitCommit: appGitCommit,
			BuildTime: appBuildTime,
		},
		Logger: a.logger,
	})
	authGate := middleware.NewAuthGate(a.tokens, a.logger)
	apiLog := middleware.NewAPILog(a.db, a.logger)
	healthHandler := handler.NewHealthHandler(a.db, authGate, cfg.UploadsDir, appVersion)

	sched := scheduler.New(a.content, a.logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second)) // image downloads can be slow
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(middleware.Metrics(a.metrics))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}))
		slog.Info("cors enabled", "origins", cfg.CORSOrigins)
	}

	// Health check endpoints (no auth, details only with the API token)
	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)
	r.Handle("/metrics", a.metrics.Handler())

	// Uploaded images: cache for 1 week
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", cacheControl(604800, http.FileServer(http.Dir(cfg.UploadsDir)))))

	r.Route(cfg.APIPrefix, func(r chi.Router) {
		if cfg.APIRateLimit > 0 {
			r.Use(middleware.NewRateLimiter(cfg.APIRateLimit, cfg.APIRateBurst).Middleware)
		}
		r.Use(apiLog.Middleware)
		r.Group(func(r chi.Router) {
			r.Use(authGate.Middleware)
			apiHandler.Routes(r)
		})
	})

	// Create server with appropriate timeouts
	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "api", cfg.APIPrefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func cacheControl(maxAge int, next http.Handler) http.Handler {
	value := fmt.Sprintf("public, max-age=%d", maxAge)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", value)
		next.ServeHTTP(w, r)
	})
}
