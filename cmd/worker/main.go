// Package main is the entry point for the stockbook background worker.
// It relays outbox events to a Redis stream and purges expired rows.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"

	"stockbook/internal/config"
	"stockbook/internal/infrastructure/storage/postgres"
	"stockbook/internal/infrastructure/stream"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting stockbook worker")

	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.ApplicationName = "stockbook-worker"
	poolCfg.MaxConns = 5
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	txm := postgres.NewTxManager(pool).WithStatementTimeout(cfg.DBStatementTimeout)

	var handler postgres.OutboxHandler = logHandler{log: log.WithComponent("outbox")}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalw("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
		}
		defer rdb.Close()
		handler = stream.NewPublisher(rdb, cfg.OutboxStream, 100_000)
		log.Infow("publishing outbox to redis stream", "stream", cfg.OutboxStream)
	} else {
		log.Warn("REDIS_ADDR not set; outbox events are only logged")
	}

	worker := NewWorker(
		postgres.NewOutboxRelay(txm, cfg.OutboxBatchSize, handler),
		postgres.NewIdempotencyStore(txm, cfg.IdempotencyTTL),
		Options{PollInterval: cfg.OutboxPollInterval},
		log,
	)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// logHandler stands in for the stream when Redis is not configured.
type logHandler struct {
	log *logger.Logger
}

func (h logHandler) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	h.log.WithContext(ctx).Infow("outbox event",
		"id", msg.ID, "event_type", msg.EventType, "aggregate_type", msg.AggregateType, "aggregate_id", msg.AggregateID)
	return nil
}
