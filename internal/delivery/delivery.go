// Package delivery defines the interfaces for the outbound collaborators the
// assessment hands data to — lead capture, final submission, and conversion
// tracking — and provides HTTP-backed implementations.
//
// All three collaborators are best-effort from the wizard's perspective: a
// failed lead capture never blocks a step transition, and a failed tracking
// call never blocks the post-submit redirect. Only the primary submission
// path escalates, and it escalates to the fallback webhook rather than to the
// user.
package delivery

import (
	"context"
	"time"

	"github.com/launchscore/readiness-backend/internal/assessment"
)

// Lead is the partial contact captured after step 1 and upserted on repeat
// calls. The sink correlates later submissions by the returned lead ID, so
// calling it multiple times per session must be tolerated.
type Lead struct {
	FullName string `json:"full_name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Step     int    `json:"step,omitempty"` // wizard step the lead was captured at
}

// Meta is the environment captured once at wizard mount and threaded through
// to the final payload. It is immutable after creation — handlers never
// re-read it from ambient state.
type Meta struct {
	SessionID   string    `json:"session_id"`
	Referrer    string    `json:"referrer,omitempty"`
	UtmSource   string    `json:"utm_source,omitempty"`
	UtmMedium   string    `json:"utm_medium,omitempty"`
	UtmCampaign string    `json:"utm_campaign,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Payload is the full submission handed to the downstream workflow: every
// answer, the computed score, and the session metadata. Fallback is false on
// the primary path and true on the webhook fallback, so the receiver can tell
// the two apart.
type Payload struct {
	Meta     Meta                    `json:"meta"`
	Answers  assessment.AnswerRecord `json:"answers"`
	Score    int                     `json:"score"`
	Segment  string                  `json:"segment"`
	Fallback bool                    `json:"fallback,omitempty"`
}

// LeadSink receives partial leads as soon as a visitor identifies themselves.
// Tests inject a stub that records calls without hitting the network.
type LeadSink interface {
	// CaptureLead upserts the lead and returns an opaque identifier used to
	// correlate later submissions. Handlers call it fire-and-forget.
	CaptureLead(ctx context.Context, lead Lead) (string, error)
}

// Submitter delivers the final payload downstream.
type Submitter interface {
	// Submit posts the payload to the primary endpoint.
	Submit(ctx context.Context, p Payload) error

	// SubmitFallback posts the payload directly to the fallback webhook with
	// the fallback marker set. Called when Submit errors or times out.
	SubmitFallback(ctx context.Context, p Payload) error
}

// Tracker fires the conversion event after a successful submission. The
// caller only cares whether the call returned before its deadline.
type Tracker interface {
	Track(ctx context.Context, event string, meta Meta) error
}

// NopTracker is the Tracker used when no tracking endpoint is configured.
// Track always succeeds immediately, so the submit path never spends its
// tracking budget on a POST that cannot land anywhere.
type NopTracker struct{}

func (NopTracker) Track(context.Context, string, Meta) error { return nil }

var _ Tracker = NopTracker{}
