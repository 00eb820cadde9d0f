package dispatch

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/launchscore/readiness-backend/internal/db"
	"github.com/launchscore/readiness-backend/internal/delivery"
	"github.com/launchscore/readiness-backend/internal/metrics"
)

// Job holds the dependencies for the redelivery pipeline. Each step is a
// separate method so they can be tested independently and so the Run method
// reads like a checklist.
type Job struct {
	q         db.Querier
	submitter delivery.Submitter
	logger    *slog.Logger
}

// NewJob constructs a Job with all required dependencies.
func NewJob(q db.Querier, submitter delivery.Submitter, logger *slog.Logger) *Job {
	return &Job{
		q:         q,
		submitter: submitter,
		logger:    logger,
	}
}

// deliveryMeta is the record of how a submission finally got out, stored on
// the submission row for audit.
type deliveryMeta struct {
	Path        string    `json:"path"` // primary | fallback
	Attempts    int       `json:"attempts"`
	DeliveredAt time.Time `json:"delivered_at"`
}

// Run redelivers a single pending submission:
//
//  1. Load the submission row; skip if it already left pending status.
//  2. Decode the stored payload.
//  3. POST to the primary endpoint; on error, POST to the fallback webhook.
//  4. Mark the row delivered (or fallback) with delivery metadata.
//
// Any error is returned to the Runner, which will retry up to MaxRetries
// times before marking the submission failed.
func (j *Job) Run(ctx context.Context, submissionID uuid.UUID) error {
	start := time.Now()
	defer func() {
		metrics.DispatchJobDuration.Observe(time.Since(start).Seconds())
	}()

	log := j.logger.With("submission_id", submissionID)
	log.Info("job: starting")

	// ── 1. Load the submission ────────────────────────────────────────────────
	sub, err := j.q.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return fmt.Errorf("job: get submission: %w", err)
	}

	// The channel and the poller can both hand us the same ID. A row that is
	// no longer pending has already been handled — not an error.
	if sub.Status != db.SubmissionPending {
		log.Debug("job: submission already handled", "status", sub.Status)
		return nil
	}

	// ── 2. Decode the stored payload ──────────────────────────────────────────
	var payload delivery.Payload
	if err := json.Unmarshal(sub.Payload, &payload); err != nil {
		return fmt.Errorf("job: decode payload: %w", err)
	}

	// ── 3. Primary, then fallback ─────────────────────────────────────────────
	status := db.SubmissionDelivered
	path := "primary"

	if err := j.submitter.Submit(ctx, payload); err != nil {
		metrics.SubmissionDeliveries.WithLabelValues("primary", "error").Inc()
		log.Warn("job: primary delivery failed, trying fallback", "error", err)

		if fbErr := j.submitter.SubmitFallback(ctx, payload); fbErr != nil {
			metrics.SubmissionDeliveries.WithLabelValues("fallback", "error").Inc()
			return fmt.Errorf("job: primary: %w; fallback: %w", err, fbErr)
		}
		status = db.SubmissionFallback
		path = "fallback"
	}
	metrics.SubmissionDeliveries.WithLabelValues(path, "ok").Inc()

	// ── 4. Record the outcome ─────────────────────────────────────────────────
	meta, err := json.Marshal(deliveryMeta{
		Path:        path,
		Attempts:    1,
		DeliveredAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("job: marshal delivery meta: %w", err)
	}

	if _, err := j.q.MarkSubmissionDelivered(ctx, db.MarkSubmissionDeliveredParams{
		ID:     submissionID,
		Status: status,
		DeliveryMeta: pqtype.NullRawMessage{
			RawMessage: meta,
			Valid:      true,
		},
	}); err != nil {
		return fmt.Errorf("job: mark delivered: %w", err)
	}

	log.Info("job: submission delivered", "path", path)
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
