package api

import (
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/launchscore/readiness-backend/internal/assessment"
	"github.com/launchscore/readiness-backend/internal/autosave"
	"github.com/launchscore/readiness-backend/internal/db"
)

// ─── POST /api/session ────────────────────────────────────────────────────────

type createSessionResponse struct {
	SessionID string `json:"session_id"`
	AnonToken string `json:"anon_token"`
	Step      int    `json:"step"`
}

// handleCreateSession creates an anonymous session for a new visitor and
// writes the empty wizard snapshot. Called once when the assessment page
// first loads.
//
// UTM parameters, referrer, and user agent are captured here, exactly once —
// this row is the immutable request context that later rides along on the
// final submission payload.
//
// The anon_token is returned to the browser and stored in sessionStorage.
// It is sent as X-Anon-Token on all subsequent session-scoped requests.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	// Generate a cryptographically random token. 32 bytes → 64 hex chars.
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("generate anon token: %w", err))
		return
	}
	anonToken := hex.EncodeToString(tokenBytes)

	// Hash the real IP for fraud logging — never store the raw IP.
	ipHash := hashIP(realIP(r))

	session, err := s.q.CreateSession(r.Context(), db.CreateSessionParams{
		AnonToken:   anonToken,
		UtmSource:   nullString(r.URL.Query().Get("utm_source")),
		UtmMedium:   nullString(r.URL.Query().Get("utm_medium")),
		UtmCampaign: nullString(r.URL.Query().Get("utm_campaign")),
		Referrer:    nullString(r.Referer()),
		IpHash:      nullString(ipHash),
		UserAgent:   nullString(r.UserAgent()),
	})
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("create session: %w", err))
		return
	}

	// Seed the autosave store so the first GET /state finds a snapshot.
	wiz := assessment.New(session.ID.String(), s.snaps)
	if err := wiz.Apply(r.Context(), assessment.Patch{}); err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("seed wizard snapshot: %w", err))
		return
	}

	respond(w, http.StatusCreated, createSessionResponse{
		SessionID: session.ID.String(),
		AnonToken: anonToken,
		Step:      assessment.StageStartupType.StepNumber(),
	})
}

// ─── GET /api/session/:sessionID/state ────────────────────────────────────────

type stateResponse struct {
	Record     assessment.AnswerRecord `json:"record"`
	Step       int                     `json:"step"`
	Stage      string                  `json:"stage"`
	ScoreReady bool                    `json:"score_ready"`
	Finalized  bool                    `json:"finalized"`
}

// handleGetState returns the full wizard state so a reload (or a second
// device with the same token) resumes exactly where the user left off.
func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r.Context())

	wiz, err := s.loadWizard(r, session)
	if err != nil {
		s.respondWizardLoadErr(w, r, err)
		return
	}

	respond(w, http.StatusOK, stateFrom(wiz))
}

func stateFrom(wiz *assessment.Wizard) stateResponse {
	return stateResponse{
		Record:     wiz.Record(),
		Step:       wiz.Stage().StepNumber(),
		Stage:      wiz.Stage().String(),
		ScoreReady: wiz.ScoreReady(),
		Finalized:  wiz.Finalized(),
	}
}

// loadWizard rebuilds the wizard for a session from its autosave snapshot.
func (s *Server) loadWizard(r *http.Request, session db.Session) (*assessment.Wizard, error) {
	snap, err := s.snaps.Load(r.Context(), session.ID.String())
	if err != nil {
		return nil, err
	}
	return assessment.Resume(session.ID.String(), snap, s.snaps)
}

// respondWizardLoadErr maps snapshot-load failures: an expired or missing
// snapshot is a 410 (the browser restarts the wizard), anything else is a 500.
func (s *Server) respondWizardLoadErr(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, autosave.ErrNotFound) {
		respondErr(w, http.StatusGone, "assessment expired, start again")
		return
	}
	s.respondInternalErr(w, r, fmt.Errorf("load wizard: %w", err))
}

// ─── HELPERS ─────────────────────────────────────────────────────────────────

// nullString converts a Go string to sql.NullString. Empty string → NULL.
func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

// hashIP returns the hex-encoded SHA-256 of the IP string.
func hashIP(ip string) string {
	h := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(h[:])
}

// realIP extracts the client IP, honouring X-Real-IP set by a reverse proxy.
func realIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	// RemoteAddr is "ip:port".
	if idx := strings.LastIndex(r.RemoteAddr, ":"); idx >= 0 {
		return r.RemoteAddr[:idx]
	}
	return r.RemoteAddr
}
