// Package payment defines the interface for the consultation checkout and
// provides a Stripe-backed implementation. The rest of the system treats the
// payment provider as opaque: it hands over an amount and an email and gets
// back a client secret for the browser.
package payment

import "context"

// CreatePaymentIntentParams holds the inputs for creating a Stripe PI.
type CreatePaymentIntentParams struct {
	AmountCents int64
	Currency    string
	Email       string
	Metadata    map[string]string
}

// PaymentIntent is the subset of a Stripe PaymentIntent that callers need.
type PaymentIntent struct {
	ID           string
	ClientSecret string
	CustomerID   string // may be empty if no Customer was created
}

// Charger is the interface the api package uses for all payment calls.
// The concrete implementation wraps the official stripe-go SDK.
// Tests inject a stub.
type Charger interface {
	// CreatePaymentIntent creates a new PI and returns its client_secret.
	CreatePaymentIntent(ctx context.Context, p CreatePaymentIntentParams) (PaymentIntent, error)

	// GetClientSecret retrieves the client_secret for an existing PI by ID.
	// Used when the session already has a PI attached (checkout retry path).
	GetClientSecret(ctx context.Context, paymentIntentID string) (string, error)
}
