// Package billing is the payment provider boundary. Only hosted checkout
// sessions and their webhooks are used.
package billing

import (
	"context"
)

// Provider creates and inspects hosted checkout sessions and verifies
// provider webhooks.
type Provider interface {
	// CreateCheckoutSession creates a payment-mode hosted checkout.
	CreateCheckoutSession(ctx context.Context, params CreateCheckoutSessionParams) (*CheckoutSession, error)

	// GetCheckoutSession retrieves a session by id. URL is empty once the
	// session has expired or completed.
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)

	// ParseWebhookEvent verifies the signature header against the webhook
	// secret before decoding anything. Returns ErrInvalidWebhookSignature on
	// any verification failure.
	ParseWebhookEvent(payload []byte, signature string) (*WebhookEvent, error)
}

// CheckoutLineItem references a provider price object.
type CheckoutLineItem struct {
	PriceID  string
	Quantity int64
}

type CreateCheckoutSessionParams struct {
	LineItems  []CheckoutLineItem
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string

	// IdempotencyKey makes provider-side retries of the same request
	// return the same session.
	IdempotencyKey string
}

// Payment statuses reported on a checkout session.
const (
	PaymentStatusPaid              = "paid"
	PaymentStatusUnpaid            = "unpaid"
	PaymentStatusNoPaymentRequired = "no_payment_required"
)

// Checkout session statuses.
const (
	SessionStatusOpen     = "open"
	SessionStatusComplete = "complete"
	SessionStatusExpired  = "expired"
)

// CheckoutSession is the provider-neutral view of a hosted checkout.
type CheckoutSession struct {
	ID              string
	URL             string
	Status          string
	PaymentStatus   string
	PaymentIntentID string
	CustomerEmail   string
	AmountTotal     int64
	Metadata        map[string]string
}

// IsPaid reports whether funds are confirmed for the session.
func (s *CheckoutSession) IsPaid() bool {
	return s.PaymentStatus == PaymentStatusPaid || s.PaymentStatus == PaymentStatusNoPaymentRequired
}

// OrderID returns the order_id metadata attached at creation.
func (s *CheckoutSession) OrderID() string {
	if s.Metadata == nil {
		return ""
	}
	return s.Metadata[MetadataOrderID]
}

// Metadata keys attached to every checkout session.
const (
	MetadataOrderID = "order_id"
	MetadataApp     = "app"
)

// Webhook event types handled by reconciliation.
const (
	EventCheckoutSessionCompleted           = "checkout.session.completed"
	EventCheckoutSessionAsyncPaymentSucceed = "checkout.session.async_payment_succeeded"
	EventCheckoutSessionAsyncPaymentFailed  = "checkout.session.async_payment_failed"
	EventCheckoutSessionExpired             = "checkout.session.expired"
)

// WebhookEvent is a verified event. Session is set for checkout.session.*
// events only.
type WebhookEvent struct {
	ID      string
	Type    string
	Session *CheckoutSession
}
