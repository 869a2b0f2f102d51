package billing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v83"
)

var (
	// ErrInvalidWebhookSignature is returned when webhook signature verification fails.
	ErrInvalidWebhookSignature = errors.New("billing: invalid webhook signature")

	// ErrMalformedWebhookEvent is returned for a correctly signed event whose
	// object cannot be decoded.
	ErrMalformedWebhookEvent = errors.New("billing: malformed webhook event")

	// ErrInvalidAPIKey is returned when Stripe API key is invalid or missing.
	ErrInvalidAPIKey = errors.New("stripe: API key is required")

	// ErrCheckoutSessionNotFound is returned when the session id is unknown to the provider.
	ErrCheckoutSessionNotFound = errors.New("billing: checkout session not found")

	// ErrRecurringPriceInPaymentMode means a line item references a price
	// configured for recurring billing. This is a catalog defect; retrying
	// does not help.
	ErrRecurringPriceInPaymentMode = errors.New("billing: recurring price used in payment mode checkout")
)

// StripeError wraps a Stripe API error with additional context.
type StripeError struct {
	Message       string
	Code          string
	Type          string
	HTTPStatus    int
	RequestID     string
	OriginalError error
}

func (e *StripeError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("stripe: %s (code: %s)", e.Message, e.Code)
	}
	return fmt.Sprintf("stripe: %s", e.Message)
}

func (e *StripeError) Unwrap() error {
	return e.OriginalError
}

// IsTemporary returns true if the error is likely transient and retryable.
func (e *StripeError) IsTemporary() bool {
	return e.Type == string(stripe.ErrorTypeAPI) || e.Code == string(stripe.ErrorCodeRateLimit) || e.HTTPStatus >= 500
}

// recurringPricePhrases are the fragments Stripe uses when a recurring price
// is sent to a payment-mode session. Stripe exposes no dedicated error code
// for this case.
var recurringPricePhrases = []string{
	"`payment` mode but passed a recurring price",
	"switch to `subscription` mode",
	"recurring price",
}

// isRecurringPriceInPaymentMode is the single place that recognizes the
// recurring-price misconfiguration from Stripe's error text.
func isRecurringPriceInPaymentMode(msg string) bool {
	msg = strings.ToLower(msg)
	for _, phrase := range recurringPricePhrases {
		if strings.Contains(msg, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}

// wrapStripeError converts stripe-go errors into StripeError, tagging the
// recurring-price case with ErrRecurringPriceInPaymentMode.
func wrapStripeError(err error) error {
	if err == nil {
		return nil
	}
	var se *stripe.Error
	if !errors.As(err, &se) {
		return &StripeError{Message: err.Error(), OriginalError: err}
	}

	wrapped := &StripeError{
		Message:       se.Msg,
		Code:          string(se.Code),
		Type:          string(se.Type),
		HTTPStatus:    se.HTTPStatusCode,
		RequestID:     se.RequestID,
		OriginalError: err,
	}
	if se.Code == stripe.ErrorCodeResourceMissing {
		return fmt.Errorf("%w: %w", ErrCheckoutSessionNotFound, wrapped)
	}
	if isRecurringPriceInPaymentMode(se.Msg) {
		return fmt.Errorf("%w: %w", ErrRecurringPriceInPaymentMode, wrapped)
	}
	return wrapped
}
