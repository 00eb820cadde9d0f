package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/launchscore/readiness-backend/internal/payment"
	"github.com/launchscore/readiness-backend/internal/store"
)

// ─── POST /api/session/:sessionID/checkout ────────────────────────────────────

type createCheckoutRequest struct {
	Email string `json:"email"`
}

type createCheckoutResponse struct {
	// ClientSecret is the Stripe PaymentIntent client_secret. The browser
	// passes this to Stripe.js to render the payment UI and confirm the charge.
	ClientSecret string `json:"client_secret"`
	// IsExisting is true when the session already had a PaymentIntent (i.e. the
	// user opened checkout twice). The browser should use the returned secret
	// normally — the PI is still valid and confirmable.
	IsExisting bool `json:"is_existing,omitempty"`
}

// handleCreateCheckout creates a Stripe PaymentIntent for the follow-up
// consultation and returns the client_secret to the browser. The assessment
// itself is free — this only exists for the post-score upsell, and the rest
// of the flow never depends on its outcome.
//
// Race-safety: two concurrent calls for the same session are handled by
// store.AttachPaymentIntent using a serializable transaction. The second call
// receives ErrPaymentIntentAlreadyAttached and returns the existing
// client_secret rather than creating a second PI.
func (s *Server) handleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	if s.charger == nil {
		respondErr(w, http.StatusServiceUnavailable, "checkout is not configured")
		return
	}

	session := sessionFrom(r.Context())

	var req createCheckoutRequest
	if !decode(w, r, &req) {
		return
	}

	email := req.Email
	if email == "" {
		// Fall back to the contact email captured at submission.
		email = session.Email.String
	}
	if email == "" {
		respondErr(w, http.StatusBadRequest, "email is required")
		return
	}

	// ── Fast path: session already has a PI ───────────────────────────────────
	// The store transaction is the authoritative guard; this just skips the
	// Stripe API call in the common retry case.
	if session.StripePaymentIntent.Valid && session.StripePaymentIntent.String != "" {
		clientSecret, err := s.charger.GetClientSecret(r.Context(), session.StripePaymentIntent.String)
		if err != nil {
			// PI exists in our DB but Stripe can't find it — unusual.
			// Fall through to create a new one.
			s.logger.Warn("checkout: existing PI not found in Stripe, creating new",
				"pi", session.StripePaymentIntent.String,
				"error", err,
				logField(r),
			)
		} else {
			respond(w, http.StatusOK, createCheckoutResponse{
				ClientSecret: clientSecret,
				IsExisting:   true,
			})
			return
		}
	}

	// ── Create a new Stripe PaymentIntent ─────────────────────────────────────
	pi, err := s.charger.CreatePaymentIntent(r.Context(), payment.CreatePaymentIntentParams{
		AmountCents: s.cfg.ConsultationPriceCents,
		Currency:    s.cfg.ConsultationCurrency,
		Email:       email,
		Metadata: map[string]string{
			"session_id": session.ID.String(),
		},
	})
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("create payment intent: %w", err))
		return
	}

	// ── Atomically attach the PI to the session ───────────────────────────────
	_, err = s.store.AttachPaymentIntent(r.Context(), store.AttachPaymentIntentParams{
		SessionID:           session.ID,
		StripeCustomerID:    pi.CustomerID,
		StripePaymentIntent: pi.ID,
		Email:               email,
	})

	if errors.Is(err, store.ErrPaymentIntentAlreadyAttached) {
		// Lost the race — another request beat us to it. Fetch the winning PI's
		// client_secret and return it. The PI we just created will expire unused
		// in Stripe after 24h — an acceptable cost of this rare race.
		s.logger.Info("checkout: lost race, returning existing PI",
			"session_id", session.ID.String(),
			logField(r),
		)
		winner, dbErr := s.q.GetSessionByID(r.Context(), session.ID)
		if dbErr != nil {
			s.respondInternalErr(w, r, fmt.Errorf("get session after race: %w", dbErr))
			return
		}
		clientSecret, stripeErr := s.charger.GetClientSecret(r.Context(), winner.StripePaymentIntent.String)
		if stripeErr != nil {
			s.respondInternalErr(w, r, fmt.Errorf("get client secret after race: %w", stripeErr))
			return
		}
		respond(w, http.StatusOK, createCheckoutResponse{
			ClientSecret: clientSecret,
			IsExisting:   true,
		})
		return
	}

	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("attach payment intent: %w", err))
		return
	}

	respond(w, http.StatusOK, createCheckoutResponse{
		ClientSecret: pi.ClientSecret,
	})
}
