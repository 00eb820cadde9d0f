// Package api implements the HTTP layer for the readiness assessment.
// Handlers are methods on *Server. Each handler file is responsible for one
// resource group and only imports the dependencies it actually uses.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/launchscore/readiness-backend/internal/autosave"
	"github.com/launchscore/readiness-backend/internal/db"
	"github.com/launchscore/readiness-backend/internal/delivery"
	"github.com/launchscore/readiness-backend/internal/dispatch"
	"github.com/launchscore/readiness-backend/internal/payment"
	"github.com/launchscore/readiness-backend/internal/store"
)

// Config holds values read from environment variables at startup.
type Config struct {
	// Env is "production", "staging", or "development".
	Env string

	// SubmitTimeout bounds the inline race against the primary submission
	// endpoint before the fallback webhook fires.
	SubmitTimeout time.Duration

	// TrackTimeout bounds the conversion-tracking call before the submit
	// response is sent regardless.
	TrackTimeout time.Duration

	// ConsultationPriceCents and ConsultationCurrency set the fixed checkout
	// price for the follow-up consultation.
	ConsultationPriceCents int64
	ConsultationCurrency   string
}

// Store is the subset of *store.Store the handlers call: the multi-step
// atomic writes. Tests inject a stub.
type Store interface {
	AttachPaymentIntent(ctx context.Context, p store.AttachPaymentIntentParams) (db.Session, error)
	FinalizeSubmission(ctx context.Context, p store.FinalizeSubmissionParams) (db.Submission, error)
}

// Server holds all shared dependencies. Each handler file attaches methods to
// this type and uses only the fields it needs.
type Server struct {
	// q handles all single-query reads. Injected directly — no repo wrapper.
	q db.Querier

	// store handles multi-step atomic writes.
	store Store

	// snaps is the Redis autosave store — the working copy of every
	// in-progress wizard lives there, keyed by session.
	snaps *autosave.Snapshots

	// lead receives partial contact info as the wizard progresses.
	lead delivery.LeadSink

	// submitter delivers the final payload; tracker fires the conversion
	// event after submit.
	submitter delivery.Submitter
	tracker   delivery.Tracker

	// charger creates PaymentIntents for the consultation checkout. May be
	// nil when Stripe is not configured — checkout then returns 503.
	charger payment.Charger

	// dispatcher takes over redelivery when the inline submission race fails.
	dispatcher dispatch.Enqueuer

	cfg    Config
	logger *slog.Logger
}

// NewServer constructs the Server and wires the chi router. The returned
// http.Handler is ready to pass to http.ListenAndServe.
func NewServer(
	q db.Querier,
	st Store,
	snaps *autosave.Snapshots,
	lead delivery.LeadSink,
	submitter delivery.Submitter,
	tracker delivery.Tracker,
	charger payment.Charger,
	dispatcher dispatch.Enqueuer,
	cfg Config,
	logger *slog.Logger,
) http.Handler {
	s := &Server{
		q:          q,
		store:      st,
		snaps:      snaps,
		lead:       lead,
		submitter:  submitter,
		tracker:    tracker,
		charger:    charger,
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger,
	}

	return s.routes()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	// ── Global middleware ─────────────────────────────────────────────────────
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggerMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)
	r.Use(middleware.Timeout(30 * time.Second))

	// ── Health & metrics ──────────────────────────────────────────────────────
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// ── API v1 ────────────────────────────────────────────────────────────────
	r.Route("/api", func(r chi.Router) {

		// Sessions — no auth required (anonymous creation).
		r.Post("/session", s.handleCreateSession)

		// Session-scoped routes — require valid anon_token header.
		r.Route("/session/{sessionID}", func(r chi.Router) {
			r.Use(s.requireAnonToken)
			r.Get("/state", s.handleGetState)
			r.Put("/answers", s.handleApplyAnswers)
			r.Post("/advance", s.handleAdvance)
			r.Post("/previous", s.handlePrevious)
			r.Get("/score", s.handleGetScore)
			r.Post("/submit", s.handleSubmit)
			r.Post("/checkout", s.handleCreateCheckout)
		})
	})

	return r
}
