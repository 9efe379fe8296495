// Package main applies the embedded SQL migrations.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"stockbook/internal/config"
	"stockbook/internal/infrastructure/storage/postgres"
	"stockbook/migrations"
	"stockbook/pkg/logger"
)

func main() {
	list := flag.Bool("list", false, "print the embedded migrations and exit")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall timeout")
	flag.Parse()

	migs, err := postgres.LoadMigrations(migrations.FS)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load migrations: %v\n", err)
		os.Exit(1)
	}
	if *list {
		for _, m := range migs {
			fmt.Printf("%s  %s  %s\n", m.Version, m.Checksum[:12], m.Filename)
		}
		return
	}

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

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.ApplicationName = "stockbook-migrate"
	poolCfg.MaxConns = 2
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	applied, err := postgres.Migrate(ctx, pool, migs)
	if err != nil {
		log.Fatalw("migration failed", "error", err)
	}
	log.Infow("migrations complete", "applied", applied, "known", len(migs))
}
