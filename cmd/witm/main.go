// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/cocobomp/witm-go/internal/auth"
	"github.com/cocobomp/witm-go/internal/blog"
	"github.com/cocobomp/witm-go/internal/cache"
	"github.com/cocobomp/witm-go/internal/config"
	"github.com/cocobomp/witm-go/internal/draft"
	"github.com/cocobomp/witm-go/internal/generation"
	"github.com/cocobomp/witm-go/internal/handler"
	"github.com/cocobomp/witm-go/internal/handler/api"
	"github.com/cocobomp/witm-go/internal/i18n"
	"github.com/cocobomp/witm-go/internal/logging"
	"github.com/cocobomp/witm-go/internal/middleware"
	"github.com/cocobomp/witm-go/internal/scheduler"
	"github.com/cocobomp/witm-go/internal/session"
	"github.com/cocobomp/witm-go/internal/store"
	"github.com/cocobomp/witm-go/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "witm - Who Is The Most backend\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  WITM_SESSION_SECRET     Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  WITM_DB_PATH            SQLite database path (default: ./data/witm.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  WITM_SERVER_PORT        Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  WITM_ENV                Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  WITM_ADMIN_EMAILS       Comma-separated admin allow-list\n")
		_, _ = fmt.Fprintf(os.Stderr, "  WITM_ANTHROPIC_API_KEY  Enables the question generation service\n")
		_, _ = fmt.Fprintf(os.Stderr, "  WITM_REDIS_URL          Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "\nFor more information, see: https://github.com/cocobomp/witm-go\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		info := version.Get()
		_, _ = fmt.Printf("witm %s (commit: %s, built: %s)\n", info.Version, info.GitCommit, info.BuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	// Database
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// Logger: console plus the persistent event log.
	baseHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(logging.NewEventLogHandler(baseHandler, db))
	slog.SetDefault(logger)

	info := version.Get()
	logger.Info("starting witm", "version", info.Version, "commit", info.GitCommit, "env", cfg.Env)

	if cfg.DoSeed {
		if err := store.Seed(context.Background(), db); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	// Translations for the public strings endpoint.
	if err := i18n.Init(logger); err != nil {
		return fmt.Errorf("initializing i18n: %w", err)
	}

	// Blog posts are embedded; a load failure is a build defect.
	posts, err := blog.Load(logger)
	if err != nil {
		return fmt.Errorf("loading blog: %w", err)
	}

	// Cache: Redis when configured, in-memory otherwise.
	cacher, err := cache.NewCache(cache.CacheConfig{
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix,
		DefaultTTL:      time.Duration(cfg.CacheTTL) * time.Second,
		MaxSize:         cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	})
	if err != nil {
		return fmt.Errorf("creating cache: %w", err)
	}
	defer func() { _ = cacher.Close() }()

	queries := store.New(db)
	qcache := cache.NewQuestionCache(cacher, queries, time.Duration(cfg.CacheTTL)*time.Second)

	// Draft workspaces, one per admin session.
	backend := store.NewQuestionStore(db, cfg.StoreBatchLimit)
	drafts := draft.NewRegistry(backend)

	// Sessions
	sessions := session.New(db, cfg.IsDevelopment())

	// Admin sign-in
	allowlist := auth.NewAllowlist(cfg.AdminAllowlist)
	if allowlist.Len() == 0 {
		logger.Warn("admin allow-list is empty, nobody can sign in")
	}
	var provider auth.Provider
	if cfg.IdentityTokenURL != "" {
		provider = auth.NewTokenVerifier(cfg.IdentityTokenURL)
	} else {
		provider = auth.NewTokenVerifier("https://oauth2.googleapis.com/tokeninfo")
	}
	protection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())

	// Generation service (optional)
	var genClient *generation.Client
	var poller *generation.Poller
	if cfg.GenerationEnabled() {
		genClient = generation.NewClient(cfg.GenerationAPIURL, cfg.AnthropicAPIKey, cfg.GenerationModel)
		poller = generation.NewPoller(genClient, queries, logger, cfg.BatchPollEvery)
		poller.Start()
		defer poller.Stop()
		logger.Info("generation service enabled", "model", cfg.GenerationModel)
	} else {
		logger.Info("generation service disabled, no API key configured")
	}

	// Background housekeeping
	sched := scheduler.New(db, drafts, cfg.DraftIdleTimeout, cfg.EventRetentionDays, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	// Handlers
	authHandler := handler.NewAuthHandler(sessions, provider, allowlist, protection, drafts)
	questionsHandler := handler.NewQuestionsHandler(drafts, sessions, backend, qcache)
	generationHandler := handler.NewGenerationHandler(genClient, poller, queries, drafts, sessions)
	healthHandler := handler.NewHealthHandler(db)
	publicHandler := api.NewHandler(qcache, queries, posts)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))

	// Health probes
	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	// Public game API
	publicLimiter := middleware.NewGlobalRateLimiter(10, 30)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CORS(cfg.CORSOrigins))
		r.Use(publicLimiter.Middleware())
		r.Use(middleware.Language())

		r.Get("/status", publicHandler.Status)
		r.Get("/categories", publicHandler.Categories)
		r.Get("/questions", publicHandler.Questions)
		r.Get("/questions/sample", publicHandler.Sample)
		r.Post("/questions/{id}/vote", publicHandler.Vote)
		r.Get("/blog", publicHandler.Blog)
		r.Get("/blog/{slug}", publicHandler.BlogPost)
		r.Get("/strings/{lang}", publicHandler.Strings)
	})

	// Admin back-office API. The back-office frontend may be served
	// from one of the configured origins, so trust their hosts for
	// cross-origin credentialed requests.
	csrfCfg := middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment())
	csrfCfg.TrustedOrigins = append(csrfCfg.TrustedOrigins, originHosts(cfg.CORSOrigins)...)

	r.Route("/admin/api", func(r chi.Router) {
		r.Use(sessions.LoadAndSave)
		r.Use(middleware.CSRF(csrfCfg))

		r.Group(func(r chi.Router) {
			r.Use(protection.Middleware())
			r.Post("/login", authHandler.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(sessions))

			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)

			r.Get("/questions", questionsHandler.List)
			r.Post("/questions", questionsHandler.Create)
			r.Patch("/questions/{id}", questionsHandler.Update)
			r.Delete("/questions/{id}", questionsHandler.Delete)
			r.Post("/questions/{id}/restore", questionsHandler.Restore)
			r.Delete("/questions/{id}/permanent", questionsHandler.Permanent)
			r.Post("/questions/commit", questionsHandler.Commit)
			r.Post("/questions/discard", questionsHandler.Discard)
			r.Post("/questions/reload", questionsHandler.Reload)

			r.Post("/generate", generationHandler.Generate)
			r.Post("/translate", generationHandler.Translate)
			r.Post("/batches", generationHandler.CreateBatch)
			r.Get("/batches", generationHandler.ListBatches)
			r.Get("/batches/{id}", generationHandler.GetBatch)
			r.Post("/batches/{id}/results", generationHandler.ImportResults)
			r.Delete("/batches/{id}", generationHandler.DeleteBatch)
		})
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// originHosts reduces full origin URLs to the host-only form the CSRF
// library expects, dropping anything unparsable.
func originHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, origin := range origins {
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			continue
		}
		hosts = append(hosts, u.Host)
	}
	return hosts
}
