// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Command formsd serves form definitions as HTML forms and processes their
// submissions against a SQL database.
package main

import (
	"context"
	"crypto/rand"
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
	"github.com/joho/godotenv"

	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/cache"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/config"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/fieldrender"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/formdef"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/forms"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/formtmpl"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/handler"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/help"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/logging"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/lookup"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/middleware"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/scheduler"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/store"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/version"
)

// requestTimeout bounds form rendering, which may fetch remote help content.
const requestTimeout = 30 * time.Second

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "formsd - form rendering and processing server\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FORMS_DB_DRIVER         sqlite|mysql (default: sqlite)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FORMS_DB_PATH           SQLite database path (default: ./data/forms.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FORMS_DB_DSN            MySQL DSN (required for mysql)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FORMS_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FORMS_DEFINITIONS_DIR   YAML form definitions (default: ./forms)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FORMS_TEMPLATES_DIR     Form templates (default: ./forms/templates)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FORMS_REDIS_URL         Redis URL for the lookup cache (optional)\n")
	}
	flag.Parse()

	if *showVersion {
		_, _ = fmt.Printf("formsd %s\n", version.Get())
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := cfg.SlogLevel()
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(textHandler))

	if cfg.DBDriver == config.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	slog.Info("initializing database", "driver", cfg.DBDriver)
	db, err := store.Open(cfg.DBDriver, cfg.DataSource())
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}()

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// Upgrade logger to also write WARN and ERROR logs to the form event log
	logger := slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	sched := scheduler.New(db, cfg.EventRetention(), logger)
	if err := sched.Start(scheduler.DefaultPruneSchedule); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	lookupCache, err := cache.New(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: cfg.LookupTTL(),
		MaxSize:    cfg.CacheMaxSize,
	})
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer func() { _ = lookupCache.Close() }()
	if cfg.UseRedisCache() {
		slog.Info("lookup cache backend", "backend", "redis")
	} else {
		slog.Info("lookup cache backend", "backend", "memory")
	}

	lookups := lookup.New(db, lookupCache, cfg.LookupTTL(), logger)
	helps := help.New(help.Options{Timeout: cfg.HelpTimeout(), AllowPrivate: cfg.HelpAllowPrivate}, logger)
	engine := formtmpl.New(fieldrender.New(lookups, helps, logger), db, logger)

	var templates *formtmpl.Loader
	if _, err := os.Stat(cfg.TemplatesDir); err == nil {
		templates, err = formtmpl.NewLoader(cfg.TemplatesDir, logger)
		if err != nil {
			return fmt.Errorf("loading templates: %w", err)
		}
		defer func() { _ = templates.Close() }()
	} else {
		slog.Warn("form templates directory does not exist", "path", cfg.TemplatesDir)
	}

	registry := forms.NewRegistry(engine, db, forms.Options{
		Lookup:    lookups,
		Templates: templates,
		Logger:    logger,
	})
	defs, err := formdef.LoadDir(cfg.DefinitionsDir, logger)
	if err != nil {
		return fmt.Errorf("loading form definitions: %w", err)
	}
	for _, d := range defs {
		if err := registry.Register(d); err != nil {
			return fmt.Errorf("registering form %q: %w", d.Name, err)
		}
	}
	slog.Info("forms registered", "count", len(defs))

	csrfKey := make([]byte, 32)
	if _, err := rand.Read(csrfKey); err != nil {
		return fmt.Errorf("generating csrf key: %w", err)
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(requestTimeout))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(middleware.CSRF(middleware.DefaultCSRFConfig(csrfKey, cfg.IsDevelopment(), cfg.CSRFTrustedOrigins...)))

	var submitMiddleware []func(http.Handler) http.Handler
	if cfg.SubmitRateLimit > 0 {
		submitMiddleware = append(submitMiddleware, middleware.NewSubmitRateLimiter(cfg.SubmitRateLimit, cfg.SubmitRateBurst).Middleware)
	}

	handler.Mount(r,
		handler.NewFormsHandler(registry, logger),
		handler.NewHealthHandler(db),
		handler.NewEventsHandler(db, logger),
		submitMiddleware...,
	)

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      requestTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", srv.Addr, "env", cfg.Env, "version", version.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
