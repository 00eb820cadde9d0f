package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/launchscore/readiness-backend/internal/assessment"
	"github.com/launchscore/readiness-backend/internal/db"
	"github.com/launchscore/readiness-backend/internal/delivery"
	"github.com/launchscore/readiness-backend/internal/metrics"
	"github.com/launchscore/readiness-backend/internal/scoring"
	"github.com/launchscore/readiness-backend/internal/store"
)

// ─── POST /api/session/:sessionID/submit ─────────────────────────────────────

type submitResponse struct {
	Score    int             `json:"score"`
	Segment  scoring.Segment `json:"segment"`
	Delivery string          `json:"delivery"` // delivered | fallback | queued
}

// handleSubmit is the terminal transition. In order:
//
//  1. Merge the contact block from the body, if one was sent.
//  2. Finalize the wizard — contact validation and phone normalization.
//  3. Score the frozen record and persist the submission atomically.
//  4. Deliver inline, raced against SubmitTimeout: primary, then fallback
//     webhook, then hand the pending row to the dispatcher.
//  5. Fire conversion tracking, bounded by TrackTimeout.
//
// The response never waits on a collaborator longer than the two configured
// timeouts: the user gets their score even when every downstream endpoint is
// down. A repeated submit returns the stored score without re-delivering.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r.Context())

	wiz, err := s.loadWizard(r, session)
	if err != nil {
		s.respondWizardLoadErr(w, r, err)
		return
	}

	// The contact block may ride along on the submit request instead of a
	// separate PUT /answers. An empty body is fine.
	if r.ContentLength > 0 {
		var patch assessment.Patch
		if !decode(w, r, &patch) {
			return
		}
		if err := wiz.Apply(r.Context(), patch); err != nil && !errors.Is(err, assessment.ErrFinalized) {
			s.respondInternalErr(w, r, fmt.Errorf("apply contact: %w", err))
			return
		}
	}

	rec, err := wiz.Submit(r.Context())
	if err != nil {
		var verrs assessment.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			metrics.WizardValidationFailures.WithLabelValues(stepLabel(assessment.StageContact)).Inc()
			respondValidation(w, verrs)
		case errors.Is(err, assessment.ErrFinalized):
			s.respondFinalized(w, r, session, wiz.Record())
		case errors.Is(err, assessment.ErrNotAtContact):
			respondErr(w, http.StatusConflict, "finish the assessment before submitting")
		default:
			s.respondInternalErr(w, r, fmt.Errorf("submit: %w", err))
		}
		return
	}

	s.finalizeAndDeliver(w, r, session, rec)
}

// finalizeAndDeliver scores the frozen record, writes the submission row, and
// runs the inline delivery race. It is the shared tail of a first submit and
// of a recovery retry whose earlier attempt froze the snapshot but failed
// before the submission row committed.
func (s *Server) finalizeAndDeliver(w http.ResponseWriter, r *http.Request, session db.Session, rec assessment.AnswerRecord) {
	res := scoring.Compute(rec)
	metrics.ScoresComputed.WithLabelValues(string(res.Segment)).Observe(float64(res.Score))

	payload := delivery.Payload{
		Meta:    metaFrom(session, time.Now().UTC()),
		Answers: rec,
		Score:   res.Score,
		Segment: string(res.Segment),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("marshal payload: %w", err))
		return
	}

	submission, err := s.store.FinalizeSubmission(r.Context(), store.FinalizeSubmissionParams{
		SessionID: session.ID,
		Payload:   raw,
		Score:     res.Score,
		Segment:   string(res.Segment),
	})
	if err != nil {
		if errors.Is(err, store.ErrSessionAlreadyFinalized) {
			// Lost a race against a concurrent submit. The other request owns
			// delivery; answer with its stored score.
			respond(w, http.StatusOK, submitResponse{
				Score:    int(submission.Score),
				Segment:  scoring.Segment(submission.Segment),
				Delivery: string(submission.Status),
			})
			return
		}
		s.respondInternalErr(w, r, fmt.Errorf("finalize submission: %w", err))
		return
	}

	// The contact email is now validated — pin it to the session row so the
	// lead and the payment flow share one identity. Non-fatal.
	if _, err := s.q.SetSessionEmail(r.Context(), db.SetSessionEmailParams{
		ID:    session.ID,
		Email: nullString(rec.Contact.Email),
	}); err != nil {
		s.logger.Warn("store contact email failed",
			"session_id", session.ID.String(), "error", err)
	}

	outcome := s.deliverInline(r.Context(), submission, payload)

	// Conversion tracking is best effort: fire it, wait at most TrackTimeout,
	// respond either way.
	trackOutcome, trackErr := delivery.Race(r.Context(), s.cfg.TrackTimeout,
		func(ctx context.Context) error {
			return s.tracker.Track(ctx, "assessment_submitted", payload.Meta)
		})
	if trackOutcome != delivery.OutcomeDone || trackErr != nil {
		s.logger.Warn("conversion tracking did not complete",
			"session_id", session.ID.String(),
			"outcome", trackOutcome.String(), "error", trackErr)
	}

	respond(w, http.StatusOK, submitResponse{
		Score:    res.Score,
		Segment:  res.Segment,
		Delivery: outcome,
	})
}

// deliverInline races the primary submission endpoint against SubmitTimeout,
// falls back to the direct webhook, and finally leaves the row pending for
// the dispatcher. Returns the delivery label for the response body.
func (s *Server) deliverInline(ctx context.Context, submission db.Submission, p delivery.Payload) string {
	outcome, err := delivery.Race(ctx, s.cfg.SubmitTimeout, func(ctx context.Context) error {
		return s.submitter.Submit(ctx, p)
	})
	if outcome == delivery.OutcomeDone && err == nil {
		metrics.SubmissionDeliveries.WithLabelValues("primary", "ok").Inc()
		s.markDelivered(ctx, submission.ID, db.SubmissionDelivered)
		return "delivered"
	}

	if outcome == delivery.OutcomeTimedOut {
		metrics.SubmissionDeliveries.WithLabelValues("primary", "timeout").Inc()
	} else {
		metrics.SubmissionDeliveries.WithLabelValues("primary", "error").Inc()
	}
	s.logger.Warn("primary submission delivery failed",
		"submission_id", submission.ID.String(),
		"outcome", outcome.String(), "error", err)

	if err := s.submitter.SubmitFallback(ctx, p); err != nil {
		metrics.SubmissionDeliveries.WithLabelValues("fallback", "error").Inc()
		s.logger.Error("fallback delivery failed, leaving for dispatcher",
			"submission_id", submission.ID.String(), "error", err)

		// Row stays pending; the dispatcher poller would find it anyway, but
		// enqueueing skips the poll interval.
		if err := s.dispatcher.Enqueue(ctx, submission.ID); err != nil {
			s.logger.Warn("enqueue for redelivery failed",
				"submission_id", submission.ID.String(), "error", err)
		}
		return "queued"
	}

	metrics.SubmissionDeliveries.WithLabelValues("fallback", "ok").Inc()
	s.markDelivered(ctx, submission.ID, db.SubmissionFallback)
	return "fallback"
}

// markDelivered records the delivery outcome. A failure here is only logged:
// the worst case is the dispatcher re-delivering once, which the downstream
// upserts on session id.
func (s *Server) markDelivered(ctx context.Context, id uuid.UUID, status db.SubmissionStatus) {
	path := "primary"
	if status == db.SubmissionFallback {
		path = "fallback"
	}
	meta, _ := json.Marshal(map[string]any{
		"path":         path,
		"attempts":     1,
		"delivered_at": time.Now().UTC(),
	})
	if _, err := s.q.MarkSubmissionDelivered(ctx, db.MarkSubmissionDeliveredParams{
		ID:           id,
		Status:       status,
		DeliveryMeta: pqtype.NullRawMessage{RawMessage: meta, Valid: true},
	}); err != nil {
		s.logger.Warn("mark submission delivered failed",
			"submission_id", id.String(), "status", string(status), "error", err)
	}
}

// respondFinalized handles a submit against an already-frozen record. The
// usual case is a duplicate submit, answered with the stored result. When no
// submission row exists the earlier attempt froze the snapshot and then died
// before its transaction committed, so the frozen record is finalized and
// delivered again rather than stranding the session.
func (s *Server) respondFinalized(w http.ResponseWriter, r *http.Request, session db.Session, rec assessment.AnswerRecord) {
	submission, err := s.q.GetSubmissionBySessionID(r.Context(), session.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.finalizeAndDeliver(w, r, session, rec)
			return
		}
		s.respondInternalErr(w, r, fmt.Errorf("load stored submission: %w", err))
		return
	}
	respond(w, http.StatusOK, submitResponse{
		Score:    int(submission.Score),
		Segment:  scoring.Segment(submission.Segment),
		Delivery: string(submission.Status),
	})
}

// metaFrom copies the request context captured at session creation into the
// payload metadata.
func metaFrom(session db.Session, submittedAt time.Time) delivery.Meta {
	return delivery.Meta{
		SessionID:   session.ID.String(),
		Referrer:    session.Referrer.String,
		UtmSource:   session.UtmSource.String,
		UtmMedium:   session.UtmMedium.String,
		UtmCampaign: session.UtmCampaign.String,
		SubmittedAt: submittedAt,
	}
}
