// Package db is the Postgres query layer: row models, the Querier interface,
// and a Queries implementation over database/sql. Queries here are single
// statements; multi-step atomic writes live in internal/store.
package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

// SubmissionStatus is the delivery lifecycle of a finalized submission.
type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"   // created, not yet delivered
	SubmissionDelivered SubmissionStatus = "delivered" // primary endpoint accepted it
	SubmissionFallback  SubmissionStatus = "fallback"  // delivered via the fallback webhook
	SubmissionFailed    SubmissionStatus = "failed"    // both paths exhausted
)

// Session is one visitor's pass through the assessment. The anon token
// authenticates session-scoped requests; the UTM/referrer columns are the
// immutable request context captured at wizard mount.
type Session struct {
	ID          uuid.UUID
	AnonToken   string
	UtmSource   sql.NullString
	UtmMedium   sql.NullString
	UtmCampaign sql.NullString
	Referrer    sql.NullString
	IpHash      sql.NullString
	UserAgent   sql.NullString

	// Email and LeadID are set once known: email at checkout or submission,
	// lead ID after the lead-capture collaborator answers.
	Email  sql.NullString
	LeadID sql.NullString

	StripePaymentIntent sql.NullString
	StripeCustomerID    sql.NullString

	FinalizedAt sql.NullTime
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Finalized reports whether the session's answer record has been frozen.
func (s Session) Finalized() bool { return s.FinalizedAt.Valid }

// Submission is a finalized answer record plus its computed score, queued for
// delivery to the downstream workflow endpoint.
type Submission struct {
	ID        uuid.UUID
	SessionID uuid.UUID

	// Payload is the full delivery body: answers + score + segment + session
	// metadata, exactly as sent to the collaborator.
	Payload []byte

	Score   int32
	Segment string

	Status    SubmissionStatus
	LastError sql.NullString

	// DeliveryMeta records the collaborator's response (lead id, webhook
	// status) for auditing. Nullable JSONB.
	DeliveryMeta pqtype.NullRawMessage

	CreatedAt   time.Time
	DeliveredAt sql.NullTime
}
