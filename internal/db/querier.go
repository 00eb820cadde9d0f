package db

import (
	"context"

	"github.com/google/uuid"
)

// Querier is the interface handlers, the store, and the dispatcher depend on.
// The concrete implementation is *Queries; tests inject in-memory stubs.
type Querier interface {
	CreateSession(ctx context.Context, p CreateSessionParams) (Session, error)
	GetSessionByID(ctx context.Context, id uuid.UUID) (Session, error)
	GetSessionByAnonToken(ctx context.Context, anonToken string) (Session, error)
	SetSessionLead(ctx context.Context, p SetSessionLeadParams) (Session, error)
	SetSessionEmail(ctx context.Context, p SetSessionEmailParams) (Session, error)
	AttachStripeCustomer(ctx context.Context, p AttachStripeCustomerParams) (Session, error)
	MarkSessionFinalized(ctx context.Context, id uuid.UUID) (Session, error)

	CreateSubmission(ctx context.Context, p CreateSubmissionParams) (Submission, error)
	GetSubmissionByID(ctx context.Context, id uuid.UUID) (Submission, error)
	GetSubmissionBySessionID(ctx context.Context, sessionID uuid.UUID) (Submission, error)
	ListPendingSubmissions(ctx context.Context) ([]Submission, error)
	MarkSubmissionDelivered(ctx context.Context, p MarkSubmissionDeliveredParams) (Submission, error)
	MarkSubmissionFailed(ctx context.Context, p MarkSubmissionFailedParams) (Submission, error)
}

var _ Querier = (*Queries)(nil)
