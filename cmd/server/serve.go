package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/iliyamo/mechanic-shop-api/internal/config"
	"github.com/iliyamo/mechanic-shop-api/internal/database"
	"github.com/iliyamo/mechanic-shop-api/internal/metrics"
	"github.com/iliyamo/mechanic-shop-api/internal/queue"
	"github.com/iliyamo/mechanic-shop-api/internal/router"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	var skipMigrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  `Open the database, apply the schema, connect optional Redis and RabbitMQ, and serve HTTP until SIGINT/SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), skipMigrate)
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply the schema on start")
	return cmd
}

func runServe(ctx context.Context, skipMigrate bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if !skipMigrate {
		if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
			return err
		}
	}

	var rdb *redis.Client
	rdb, err = config.NewRedisClient(ctx, config.LoadRedisConfig())
	switch {
	case errors.Is(err, config.ErrRedisDisabled):
		log.Printf("redis disabled; using in-process rate limits and cache")
	case err != nil:
		log.Printf("redis unavailable (%v); using in-process rate limits and cache", err)
	default:
		defer rdb.Close()
	}

	events := queue.NewPublisher(cfg.AMQPURL)
	if p, ok := events.(*queue.AMQPPublisher); ok {
		defer p.Close()
	}

	e := router.New(router.Deps{
		DB:        db,
		Redis:     rdb,
		Config:    cfg,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
		Events:    events,
		Metrics:   metrics.New(),
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, db=%s)", addr, cfg.Env, cfg.DBDriver)

	errc := make(chan error, 1)
	go func() { errc <- e.Start(addr) }()

	sig, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-sig.Done():
	}

	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
