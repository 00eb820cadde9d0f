package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/launchscore/readiness-backend/internal/db"
)

// ─── INPUT TYPES ─────────────────────────────────────────────────────────────

// FinalizeSubmissionParams is everything the submit handler hands to the store
// once the answer record has passed final validation and scoring is complete.
type FinalizeSubmissionParams struct {
	SessionID uuid.UUID
	Payload   []byte // serialised delivery payload, written verbatim to submissions.payload
	Score     int
	Segment   string
}

// ─── ERRORS ──────────────────────────────────────────────────────────────────

// ErrSessionAlreadyFinalized is returned by FinalizeSubmission when a
// submission row for the session already exists. The submit handler should
// treat this as idempotent success — a double-click or a retried request must
// not create a second submission or re-trigger delivery. The existing
// submission is returned alongside the sentinel so the handler can respond
// with the original score.
var ErrSessionAlreadyFinalized = errors.New("store: session already finalized")

// ─── METHODS ─────────────────────────────────────────────────────────────────

// FinalizeSubmission is called by the submit handler after the wizard accepts
// the final step. It atomically:
//
//  1. Checks whether a submission row already exists (idempotency guard).
//  2. Marks the session as finalized.
//  3. Creates the submission row in pending status.
//
// If a submission already exists (duplicate submit from a second tab or a
// client retry), ErrSessionAlreadyFinalized is returned together with the
// existing row. The caller should log this at debug level and return the
// stored score — no further work is needed.
//
// If MarkSessionFinalized succeeds but CreateSubmission fails, the whole
// transaction rolls back so the session remains open. The client's retry will
// then go through cleanly.
func (s *Store) FinalizeSubmission(ctx context.Context, p FinalizeSubmissionParams) (db.Submission, error) {
	var submission db.Submission

	err := s.withTx(ctx, func(ctx context.Context, q db.Querier) error {
		// 1. Idempotency guard — submission may already exist from a prior
		//    submit. session_id carries a UNIQUE constraint, so this check plus
		//    serializable isolation makes concurrent submits safe.
		existing, err := q.GetSubmissionBySessionID(ctx, p.SessionID)
		if err == nil {
			submission = existing
			return ErrSessionAlreadyFinalized
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("FinalizeSubmission: check existing submission: %w", err)
		}

		// 2. Stamp finalized_at on the session.
		if _, err := q.MarkSessionFinalized(ctx, p.SessionID); err != nil {
			return fmt.Errorf("FinalizeSubmission: mark session finalized: %w", err)
		}

		// 3. Create the pending submission for the dispatcher to pick up.
		created, err := q.CreateSubmission(ctx, db.CreateSubmissionParams{
			SessionID: p.SessionID,
			Payload:   p.Payload,
			Score:     int32(p.Score),
			Segment:   p.Segment,
		})
		if err != nil {
			return fmt.Errorf("FinalizeSubmission: create submission: %w", err)
		}

		submission = created
		return nil
	})

	if errors.Is(err, ErrSessionAlreadyFinalized) {
		return submission, ErrSessionAlreadyFinalized
	}
	if err != nil {
		return db.Submission{}, err
	}

	return submission, nil
}
