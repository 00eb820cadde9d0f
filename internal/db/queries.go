package db

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so the same Queries methods
// run inside and outside transactions.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries executes the handwritten SQL against a DBTX.
type Queries struct {
	db DBTX
}

// New creates a Queries bound to a connection pool (or transaction).
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries scoped to the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// ─── SESSIONS ────────────────────────────────────────────────────────────────

const sessionColumns = `
	id, anon_token, utm_source, utm_medium, utm_campaign, referrer,
	ip_hash, user_agent, email, lead_id, stripe_payment_intent,
	stripe_customer_id, finalized_at, created_at, updated_at`

func scanSession(row *sql.Row) (Session, error) {
	var s Session
	err := row.Scan(
		&s.ID, &s.AnonToken, &s.UtmSource, &s.UtmMedium, &s.UtmCampaign,
		&s.Referrer, &s.IpHash, &s.UserAgent, &s.Email, &s.LeadID,
		&s.StripePaymentIntent, &s.StripeCustomerID, &s.FinalizedAt,
		&s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

type CreateSessionParams struct {
	AnonToken   string
	UtmSource   sql.NullString
	UtmMedium   sql.NullString
	UtmCampaign sql.NullString
	Referrer    sql.NullString
	IpHash      sql.NullString
	UserAgent   sql.NullString
}

const createSession = `
INSERT INTO sessions (anon_token, utm_source, utm_medium, utm_campaign, referrer, ip_hash, user_agent)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING` + sessionColumns

func (q *Queries) CreateSession(ctx context.Context, p CreateSessionParams) (Session, error) {
	return scanSession(q.db.QueryRowContext(ctx, createSession,
		p.AnonToken, p.UtmSource, p.UtmMedium, p.UtmCampaign,
		p.Referrer, p.IpHash, p.UserAgent,
	))
}

const getSessionByID = `
SELECT` + sessionColumns + `
FROM sessions WHERE id = $1`

func (q *Queries) GetSessionByID(ctx context.Context, id uuid.UUID) (Session, error) {
	return scanSession(q.db.QueryRowContext(ctx, getSessionByID, id))
}

const getSessionByAnonToken = `
SELECT` + sessionColumns + `
FROM sessions WHERE anon_token = $1`

func (q *Queries) GetSessionByAnonToken(ctx context.Context, anonToken string) (Session, error) {
	return scanSession(q.db.QueryRowContext(ctx, getSessionByAnonToken, anonToken))
}

type SetSessionLeadParams struct {
	ID     uuid.UUID
	LeadID sql.NullString
}

const setSessionLead = `
UPDATE sessions SET lead_id = $2, updated_at = now()
WHERE id = $1
RETURNING` + sessionColumns

func (q *Queries) SetSessionLead(ctx context.Context, p SetSessionLeadParams) (Session, error) {
	return scanSession(q.db.QueryRowContext(ctx, setSessionLead, p.ID, p.LeadID))
}

type SetSessionEmailParams struct {
	ID    uuid.UUID
	Email sql.NullString
}

const setSessionEmail = `
UPDATE sessions SET email = $2, updated_at = now()
WHERE id = $1
RETURNING` + sessionColumns

func (q *Queries) SetSessionEmail(ctx context.Context, p SetSessionEmailParams) (Session, error) {
	return scanSession(q.db.QueryRowContext(ctx, setSessionEmail, p.ID, p.Email))
}

type AttachStripeCustomerParams struct {
	ID                  uuid.UUID
	StripeCustomerID    sql.NullString
	StripePaymentIntent sql.NullString
	Email               sql.NullString
}

const attachStripeCustomer = `
UPDATE sessions
SET stripe_customer_id = $2,
    stripe_payment_intent = $3,
    email = COALESCE($4, email),
    updated_at = now()
WHERE id = $1
RETURNING` + sessionColumns

func (q *Queries) AttachStripeCustomer(ctx context.Context, p AttachStripeCustomerParams) (Session, error) {
	return scanSession(q.db.QueryRowContext(ctx, attachStripeCustomer,
		p.ID, p.StripeCustomerID, p.StripePaymentIntent, p.Email,
	))
}

const markSessionFinalized = `
UPDATE sessions SET finalized_at = now(), updated_at = now()
WHERE id = $1
RETURNING` + sessionColumns

func (q *Queries) MarkSessionFinalized(ctx context.Context, id uuid.UUID) (Session, error) {
	return scanSession(q.db.QueryRowContext(ctx, markSessionFinalized, id))
}

// ─── SUBMISSIONS ─────────────────────────────────────────────────────────────

const submissionColumns = `
	id, session_id, payload, score, segment, status, last_error,
	delivery_meta, created_at, delivered_at`

func scanSubmissionRow(row *sql.Row) (Submission, error) {
	var s Submission
	err := row.Scan(
		&s.ID, &s.SessionID, &s.Payload, &s.Score, &s.Segment,
		&s.Status, &s.LastError, &s.DeliveryMeta, &s.CreatedAt, &s.DeliveredAt,
	)
	return s, err
}

type CreateSubmissionParams struct {
	SessionID uuid.UUID
	Payload   []byte
	Score     int32
	Segment   string
}

const createSubmission = `
INSERT INTO submissions (session_id, payload, score, segment, status)
VALUES ($1, $2, $3, $4, 'pending')
RETURNING` + submissionColumns

func (q *Queries) CreateSubmission(ctx context.Context, p CreateSubmissionParams) (Submission, error) {
	return scanSubmissionRow(q.db.QueryRowContext(ctx, createSubmission,
		p.SessionID, p.Payload, p.Score, p.Segment,
	))
}

const getSubmissionByID = `
SELECT` + submissionColumns + `
FROM submissions WHERE id = $1`

func (q *Queries) GetSubmissionByID(ctx context.Context, id uuid.UUID) (Submission, error) {
	return scanSubmissionRow(q.db.QueryRowContext(ctx, getSubmissionByID, id))
}

const getSubmissionBySessionID = `
SELECT` + submissionColumns + `
FROM submissions WHERE session_id = $1`

func (q *Queries) GetSubmissionBySessionID(ctx context.Context, sessionID uuid.UUID) (Submission, error) {
	return scanSubmissionRow(q.db.QueryRowContext(ctx, getSubmissionBySessionID, sessionID))
}

const listPendingSubmissions = `
SELECT` + submissionColumns + `
FROM submissions
WHERE status = 'pending'
ORDER BY created_at
LIMIT 100`

func (q *Queries) ListPendingSubmissions(ctx context.Context) ([]Submission, error) {
	rows, err := q.db.QueryContext(ctx, listPendingSubmissions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		var s Submission
		if err := rows.Scan(
			&s.ID, &s.SessionID, &s.Payload, &s.Score, &s.Segment,
			&s.Status, &s.LastError, &s.DeliveryMeta, &s.CreatedAt, &s.DeliveredAt,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type MarkSubmissionDeliveredParams struct {
	ID           uuid.UUID
	Status       SubmissionStatus // delivered or fallback
	DeliveryMeta pqtype.NullRawMessage
}

const markSubmissionDelivered = `
UPDATE submissions
SET status = $2, delivery_meta = $3, last_error = NULL, delivered_at = now()
WHERE id = $1
RETURNING` + submissionColumns

func (q *Queries) MarkSubmissionDelivered(ctx context.Context, p MarkSubmissionDeliveredParams) (Submission, error) {
	return scanSubmissionRow(q.db.QueryRowContext(ctx, markSubmissionDelivered,
		p.ID, p.Status, p.DeliveryMeta,
	))
}

type MarkSubmissionFailedParams struct {
	ID        uuid.UUID
	LastError sql.NullString
}

const markSubmissionFailed = `
UPDATE submissions
SET status = 'failed', last_error = $2
WHERE id = $1
RETURNING` + submissionColumns

func (q *Queries) MarkSubmissionFailed(ctx context.Context, p MarkSubmissionFailedParams) (Submission, error) {
	return scanSubmissionRow(q.db.QueryRowContext(ctx, markSubmissionFailed, p.ID, p.LastError))
}
