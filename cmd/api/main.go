package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // postgres driver
	"github.com/redis/go-redis/v9"

	"github.com/launchscore/readiness-backend/internal/api"
	"github.com/launchscore/readiness-backend/internal/autosave"
	"github.com/launchscore/readiness-backend/internal/config"
	"github.com/launchscore/readiness-backend/internal/db"
	"github.com/launchscore/readiness-backend/internal/delivery"
	"github.com/launchscore/readiness-backend/internal/dispatch"
	"github.com/launchscore/readiness-backend/internal/payment"
	"github.com/launchscore/readiness-backend/internal/store"
)

func main() {
	// ── Logger ────────────────────────────────────────────────────────────────
	// JSON in production, pretty text in development.
	var logger *slog.Logger
	if os.Getenv("ENV") == "production" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// ── Config ────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger.Info("config loaded", "env", cfg.Env, "port", cfg.Port)

	// ── Database ──────────────────────────────────────────────────────────────
	pool, queries, err := openDB(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()
	logger.Info("database connected")

	// ── Store (atomic multi-step writes) ──────────────────────────────────────
	st := store.New(pool, queries)

	// ── Redis (wizard autosave) ───────────────────────────────────────────────
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer rdb.Close()
	{
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
	}
	logger.Info("redis connected", "addr", cfg.RedisAddr)

	snaps := autosave.New(rdb, cfg.AutosaveTTL)

	// ── Outbound collaborators ────────────────────────────────────────────────
	lead := delivery.NewHTTPLeadSink(cfg.LeadEndpoint)
	submitter := delivery.NewHTTPSubmitter(cfg.SubmitEndpoint, cfg.FallbackWebhookURL)
	// Tracking is optional: without an endpoint the submit path skips the
	// conversion POST entirely instead of burning its budget on a dead URL.
	var tracker delivery.Tracker = delivery.NopTracker{}
	if cfg.TrackEndpoint != "" {
		tracker = delivery.NewHTTPTracker(cfg.TrackEndpoint)
	} else {
		logger.Info("conversion tracking disabled: no TRACK_ENDPOINT")
	}

	// ── Stripe ────────────────────────────────────────────────────────────────
	// Optional: without a key the checkout endpoint answers 503 and everything
	// else works normally.
	var charger payment.Charger
	if cfg.StripeSecretKey != "" {
		charger = payment.NewStripeCharger(cfg.StripeSecretKey)
		logger.Info("stripe checkout enabled")
	} else {
		logger.Info("stripe checkout disabled: no STRIPE_SECRET_KEY")
	}

	// ── Dispatcher (submission redelivery) ────────────────────────────────────
	job := dispatch.NewJob(queries, submitter, logger)
	runner := dispatch.NewRunner(job, queries, dispatch.RunnerConfig{
		Workers:      cfg.WorkerCount,
		PollInterval: cfg.PollInterval,
		JobTimeout:   cfg.JobTimeout,
		MaxRetries:   cfg.MaxRetries,
	}, logger)

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.NewServer(
		queries,
		st,
		snaps,
		lead,
		submitter,
		tracker,
		charger,
		runner, // *Runner satisfies dispatch.Enqueuer
		api.Config{
			Env:                    cfg.Env,
			SubmitTimeout:          cfg.SubmitTimeout,
			TrackTimeout:           cfg.TrackTimeout,
			ConsultationPriceCents: cfg.ConsultationPriceCents,
			ConsultationCurrency:   cfg.ConsultationCurrency,
		},
		logger,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	// Root context cancelled by OS signal. Dispatcher and HTTP server both
	// respect it.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start the dispatcher pool in a background goroutine. It blocks until ctx
	// is done.
	go runner.Start(ctx)

	// Start the HTTP server in a background goroutine.
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until either a signal arrives or the server dies unexpectedly.
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	// Give in-flight HTTP requests up to 20 seconds to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// openDB opens the connection pool and verifies it is reachable before the
// server starts taking traffic.
func openDB(dsn string) (*sql.DB, *db.Queries, error) {
	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open: %w", err)
	}

	// Tune the connection pool.
	pool.SetMaxOpenConns(25)
	pool.SetMaxIdleConns(10)
	pool.SetConnMaxLifetime(5 * time.Minute)
	pool.SetConnMaxIdleTime(2 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}

	return pool, db.New(pool), nil
}
