package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/launchscore/readiness-backend/internal/assessment"
	"github.com/launchscore/readiness-backend/internal/db"
	"github.com/launchscore/readiness-backend/internal/delivery"
	"github.com/launchscore/readiness-backend/internal/metrics"
	"github.com/launchscore/readiness-backend/internal/scoring"
)

// leadCaptureTimeout bounds the fire-and-forget lead call. The request that
// triggered it has already been answered by the time this expires.
const leadCaptureTimeout = 10 * time.Second

// ─── PUT /api/session/:sessionID/answers ─────────────────────────────────────

// handleApplyAnswers merges a sparse patch into the answer record and persists
// the snapshot. It never validates and never moves the wizard: validation is
// the advance transition's job, so typing half an answer is always saveable.
func (s *Server) handleApplyAnswers(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r.Context())

	var patch assessment.Patch
	if !decode(w, r, &patch) {
		return
	}

	wiz, err := s.loadWizard(r, session)
	if err != nil {
		s.respondWizardLoadErr(w, r, err)
		return
	}

	if err := wiz.Apply(r.Context(), patch); err != nil {
		if errors.Is(err, assessment.ErrFinalized) {
			respondErr(w, http.StatusConflict, "assessment already submitted")
			return
		}
		s.respondInternalErr(w, r, fmt.Errorf("apply answers: %w", err))
		return
	}

	respond(w, http.StatusOK, stateFrom(wiz))
}

// ─── POST /api/session/:sessionID/advance ────────────────────────────────────

// handleAdvance validates the current step and moves forward on success. A
// validation failure is a 422 carrying per-field messages; the wizard does
// not move and nothing typed is lost.
func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r.Context())

	wiz, err := s.loadWizard(r, session)
	if err != nil {
		s.respondWizardLoadErr(w, r, err)
		return
	}

	from := wiz.Stage()

	if _, err := wiz.Advance(r.Context()); err != nil {
		var verrs assessment.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			metrics.WizardValidationFailures.WithLabelValues(stepLabel(from)).Inc()
			respondValidation(w, verrs)
		case errors.Is(err, assessment.ErrFinalized):
			respondErr(w, http.StatusConflict, "assessment already submitted")
		default:
			s.respondInternalErr(w, r, fmt.Errorf("advance: %w", err))
		}
		return
	}

	metrics.WizardAdvances.WithLabelValues(stepLabel(from)).Inc()

	// Partial lead fires on every successful forward transition. Failure is
	// logged and never blocks the response.
	go s.captureLead(session, wiz.Record(), from.StepNumber())

	respond(w, http.StatusOK, stateFrom(wiz))
}

// captureLead posts whatever contact data exists so far to the lead sink and
// records the returned lead ID on the session. Runs detached from the request.
func (s *Server) captureLead(session db.Session, rec assessment.AnswerRecord, step int) {
	ctx, cancel := context.WithTimeout(context.Background(), leadCaptureTimeout)
	defer cancel()

	leadID, err := s.lead.CaptureLead(ctx, delivery.Lead{
		FullName: fullName(rec.Contact),
		Email:    rec.Contact.Email,
		Phone:    rec.Contact.Phone,
		Step:     step,
	})
	if err != nil {
		metrics.LeadCaptures.WithLabelValues("error").Inc()
		s.logger.Warn("lead capture failed",
			"session_id", session.ID.String(), "step", step, "error", err)
		return
	}
	metrics.LeadCaptures.WithLabelValues("ok").Inc()

	if _, err := s.q.SetSessionLead(ctx, db.SetSessionLeadParams{
		ID:     session.ID,
		LeadID: nullString(leadID),
	}); err != nil {
		s.logger.Warn("store lead id failed",
			"session_id", session.ID.String(), "error", err)
	}
}

func fullName(c assessment.Contact) string {
	switch {
	case c.FirstName == "" && c.LastName == "":
		return ""
	case c.LastName == "":
		return c.FirstName
	case c.FirstName == "":
		return c.LastName
	}
	return c.FirstName + " " + c.LastName
}

func stepLabel(st assessment.Stage) string {
	return strconv.Itoa(st.StepNumber())
}

// ─── POST /api/session/:sessionID/previous ───────────────────────────────────

func (s *Server) handlePrevious(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r.Context())

	wiz, err := s.loadWizard(r, session)
	if err != nil {
		s.respondWizardLoadErr(w, r, err)
		return
	}

	if _, err := wiz.Previous(r.Context()); err != nil {
		switch {
		case errors.Is(err, assessment.ErrAtFirstStage):
			respondErr(w, http.StatusConflict, "already at the first step")
		case errors.Is(err, assessment.ErrFinalized):
			respondErr(w, http.StatusConflict, "assessment already submitted")
		default:
			s.respondInternalErr(w, r, fmt.Errorf("previous: %w", err))
		}
		return
	}

	respond(w, http.StatusOK, stateFrom(wiz))
}

// ─── GET /api/session/:sessionID/score ───────────────────────────────────────

type scoreResponse struct {
	Score     int                `json:"score"`
	Segment   scoring.Segment    `json:"segment"`
	Breakdown map[string]float64 `json:"breakdown,omitempty"`
}

// handleGetScore computes and reveals the score once the wizard has cleared
// step 11. The score is recomputed on every call rather than cached — the
// record cannot change between reveal and submit except through answers, and
// recomputing keeps the reveal and the stored submission trivially consistent.
func (s *Server) handleGetScore(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r.Context())

	wiz, err := s.loadWizard(r, session)
	if err != nil {
		s.respondWizardLoadErr(w, r, err)
		return
	}

	if !wiz.ScoreReady() {
		respondErr(w, http.StatusConflict, "score is not available before the final question is answered")
		return
	}

	rec := wiz.Record()
	res := scoring.Compute(rec)

	resp := scoreResponse{Score: res.Score, Segment: res.Segment}
	if r.URL.Query().Get("breakdown") == "true" {
		resp.Breakdown = scoring.Breakdown(rec)
	}
	respond(w, http.StatusOK, resp)
}
