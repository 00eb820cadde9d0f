// Package dispatch contains the background pipeline that redelivers finalized
// submissions whose inline delivery did not reach the primary endpoint. It is
// intentionally decoupled from the HTTP layer: the api package holds a
// dispatch.Enqueuer interface and calls Enqueue — it never imports the
// concrete Runner or Job types.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/launchscore/readiness-backend/internal/db"
)

// ─── ENQUEUER INTERFACE ───────────────────────────────────────────────────────

// Enqueuer is the narrow interface the api package uses to hand off a
// submission after the inline delivery race is lost. Keeping it here (not in
// api/) means api/ does not need to import dispatch/.
//
// The concrete implementation is *Runner. In tests, any struct with an Enqueue
// method satisfies the interface.
type Enqueuer interface {
	Enqueue(ctx context.Context, submissionID uuid.UUID) error
}

// ─── RUNNER ───────────────────────────────────────────────────────────────────

// RunnerConfig holds tuning parameters for the Runner. All fields have
// sensible defaults if zero-valued; call DefaultRunnerConfig() to get them.
type RunnerConfig struct {
	// Workers is the number of concurrent job goroutines. Default: 3.
	Workers int

	// PollInterval is how often the fallback poller checks
	// ListPendingSubmissions for jobs that were missed by the in-process
	// channel (e.g. after a crash or restart). Default: 30s.
	PollInterval time.Duration

	// JobTimeout is the per-job context deadline. Default: 30 seconds — a
	// redelivery is two HTTP POSTs at most.
	JobTimeout time.Duration

	// MaxRetries is the number of times a job is retried before the
	// submission is marked as permanently failed. Default: 3.
	MaxRetries int
}

// DefaultRunnerConfig returns safe production defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Workers:      3,
		PollInterval: 30 * time.Second,
		JobTimeout:   30 * time.Second,
		MaxRetries:   3,
	}
}

// Runner manages a pool of worker goroutines. It accepts jobs via an
// in-process channel (fast path, used right after a submit whose inline
// delivery failed) and also polls the database periodically to pick up any
// submissions that were in-flight when the process last restarted (recovery
// path).
type Runner struct {
	job    *Job
	q      db.Querier
	cfg    RunnerConfig
	logger *slog.Logger

	queue chan uuid.UUID
	wg    sync.WaitGroup
}

// NewRunner constructs a Runner. Call Start() to begin processing.
func NewRunner(job *Job, q db.Querier, cfg RunnerConfig, logger *slog.Logger) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultRunnerConfig().Workers
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultRunnerConfig().PollInterval
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = DefaultRunnerConfig().JobTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultRunnerConfig().MaxRetries
	}

	return &Runner{
		job:    job,
		q:      q,
		cfg:    cfg,
		logger: logger,
		// Buffer = Workers*2 so Enqueue never blocks under normal load.
		queue: make(chan uuid.UUID, cfg.Workers*2),
	}
}

// Enqueue pushes a submissionID onto the in-process channel. It satisfies the
// Enqueuer interface. If the channel is full (very unlikely given the buffer
// sizing) it returns an error rather than blocking the HTTP response.
func (r *Runner) Enqueue(_ context.Context, submissionID uuid.UUID) error {
	select {
	case r.queue <- submissionID:
		r.logger.Info("dispatch: enqueued submission", "submission_id", submissionID)
		return nil
	default:
		return errors.New("dispatch: queue is full, submission will be picked up by poller")
	}
}

// Start launches the worker pool and the fallback poller. It blocks until ctx
// is cancelled. Call it in a goroutine from main:
//
//	go runner.Start(ctx)
func (r *Runner) Start(ctx context.Context) {
	r.logger.Info("dispatch: starting", "workers", r.cfg.Workers, "poll_interval", r.cfg.PollInterval)

	// Launch worker goroutines.
	for i := 0; i < r.cfg.Workers; i++ {
		r.wg.Add(1)
		go r.work(ctx, i)
	}

	// Launch fallback poller.
	r.wg.Add(1)
	go r.poll(ctx)

	r.wg.Wait()
	r.logger.Info("dispatch: stopped")
}

// work is the inner loop for each worker goroutine.
func (r *Runner) work(ctx context.Context, id int) {
	defer r.wg.Done()
	log := r.logger.With("worker_id", id)
	log.Info("dispatch: goroutine started")

	for {
		select {
		case <-ctx.Done():
			log.Info("dispatch: goroutine stopping")
			return
		case submissionID := <-r.queue:
			r.runWithRetry(ctx, submissionID, log)
		}
	}
}

// poll queries the database on PollInterval for any pending submissions that
// were not delivered via the channel (e.g. submissions from before a restart).
func (r *Runner) poll(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	// Run once immediately on startup to pick up anything from before restart.
	r.pollOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.pollOnce(ctx)
		}
	}
}

func (r *Runner) pollOnce(ctx context.Context) {
	submissions, err := r.q.ListPendingSubmissions(ctx)
	if err != nil {
		r.logger.Error("dispatch: poll failed", "error", err)
		return
	}
	for _, sub := range submissions {
		select {
		case r.queue <- sub.ID:
			r.logger.Debug("dispatch: poller enqueued submission", "submission_id", sub.ID)
		default:
			// Queue full — will be picked up next poll cycle.
		}
	}
}

// runWithRetry executes the job up to MaxRetries times. After exhausting
// retries it marks the submission failed so the poller stops picking it up.
func (r *Runner) runWithRetry(ctx context.Context, submissionID uuid.UUID, log *slog.Logger) {
	var lastErr error

	for attempt := 1; attempt <= r.cfg.MaxRetries; attempt++ {
		jobCtx, cancel := context.WithTimeout(ctx, r.cfg.JobTimeout)
		lastErr = r.job.Run(jobCtx, submissionID)
		cancel()

		if lastErr == nil {
			log.Info("dispatch: job completed", "submission_id", submissionID, "attempt", attempt)
			return
		}

		log.Warn("dispatch: job attempt failed",
			"submission_id", submissionID,
			"attempt", attempt,
			"max", r.cfg.MaxRetries,
			"error", lastErr,
		)

		if attempt < r.cfg.MaxRetries {
			// Exponential back-off: 2s, 4s, 8s …
			backoff := time.Duration(1<<attempt) * time.Second
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
		}
	}

	// All retries exhausted — mark the submission permanently failed.
	log.Error("dispatch: job permanently failed", "submission_id", submissionID, "error", lastErr)
	failCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := r.q.MarkSubmissionFailed(failCtx, db.MarkSubmissionFailedParams{
		ID:        submissionID,
		LastError: nullString(lastErr.Error()),
	}); err != nil {
		log.Error("dispatch: failed to mark submission as failed", "submission_id", submissionID, "error", err)
	}
}
