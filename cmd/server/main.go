// Package main is the entry point for the stockbook API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockbook/internal/app"
	"stockbook/internal/config"
	"stockbook/internal/domain/auth"
	"stockbook/internal/domain/documents"
	"stockbook/internal/domain/journal"
	"stockbook/internal/domain/rules"
	"stockbook/internal/domain/status"
	"stockbook/internal/infrastructure/cache"
	"stockbook/internal/infrastructure/glclient"
	v1 "stockbook/internal/infrastructure/http/v1"
	"stockbook/internal/infrastructure/http/v1/handlers"
	"stockbook/internal/infrastructure/http/v1/middleware"
	"stockbook/internal/infrastructure/lock"
	"stockbook/internal/infrastructure/numerator"
	"stockbook/internal/infrastructure/storage/postgres"
	"stockbook/internal/infrastructure/storage/postgres/catalog_repo"
	"stockbook/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Development: cfg.Development()})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx := context.Background()
	log.Infow("starting stockbook server", "env", cfg.Env)

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = int32(cfg.DBMaxConns)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txm := postgres.NewTxManager(pool).WithStatementTimeout(cfg.DBStatementTimeout)

	// --- Posting rules ---
	defs := rules.Defaults()
	if cfg.RulesFile != "" {
		if defs, err = rules.LoadFile(cfg.RulesFile); err != nil {
			log.Fatalw("failed to load rules", "file", cfg.RulesFile, "error", err)
		}
	}
	engine, err := rules.NewEngine(defs)
	if err != nil {
		log.Fatalw("failed to compile rules", "error", err)
	}

	infra := app.Infra{
		TxManager: txm,
		Numerator: numerator.New(pool),
		Rules:     engine,
	}
	checks := map[string]handlers.Pinger{}

	// --- Distributed locks (optional) ---
	if cfg.RedisAddr != "" {
		locks, err := lock.NewClient(ctx, lock.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.LockTTL,
		})
		if err != nil {
			log.Fatalw("failed to connect to redis", "error", err)
		}
		defer locks.Close()
		infra.Locker = locks
		checks["redis"] = locks
		log.Infow("redis locks enabled", "addr", cfg.RedisAddr)
	} else {
		infra.Locker = documents.NopLocker{}
	}

	// --- General ledger ---
	if cfg.GLServiceURL != "" {
		infra.GL = glclient.New(cfg.GLServiceURL, cfg.GLServiceTimeout)
		log.Infow("posting to external gl service", "url", cfg.GLServiceURL)
	}

	services, err := app.NewServices(infra)
	if err != nil {
		log.Fatalw("failed to build services", "error", err)
	}
	log.Infow("services ready", "external_gl", journal.IsExternal(services.Journal))

	statusRepo := catalog_repo.NewStatusRepo(txm)
	statuses, err := status.Load(ctx, statusRepo)
	if err != nil {
		log.Fatalw("failed to load statuses; run cmd/seed first", "error", err)
	}

	listener := cache.NewListener(pool.Pool)
	listener.Subscribe(cache.ChannelStatusesChanged, func(ctx context.Context, _ string) {
		if err := statuses.Reload(ctx, statusRepo); err != nil {
			log.Errorw("failed to reload statuses", "error", err)
			return
		}
		log.Info("statuses reloaded")
	})
	if err := listener.Start(ctx); err != nil {
		log.Fatalw("failed to start notification listener", "error", err)
	}
	defer listener.Stop()

	jwtCfg := auth.DefaultJWTConfig(cfg.JWTSecret)
	jwtCfg.AccessTokenTTL = cfg.JWTAccessTTL
	jwtService := auth.NewJWTService(jwtCfg)

	var idempotency middleware.IdempotencyStore
	if cfg.IdempotencyEnabled {
		idempotency = postgres.NewIdempotencyStore(txm, cfg.IdempotencyTTL)
	}

	// --- Router ---
	router, err := v1.NewRouter(v1.RouterConfig{
		Pool:         pool,
		Logger:       log,
		JWTValidator: jwtService,
		Idempotency:  idempotency,
		Services:     services,
		Statuses:     statuses,
		HealthChecks: checks,
		CORSOrigins:  cfg.CORSAllowedOrigins,
		Development:  cfg.Development(),
	})
	if err != nil {
		log.Fatalw("failed to build router", "error", err)
	}

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}
	postgres.LogPoolStats(shutdownCtx, pool)
	log.Info("server stopped")
}
