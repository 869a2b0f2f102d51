// Package webhook receives payment provider callbacks.
package webhook

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dukerupert/dynamite/internal/domain"
	"github.com/dukerupert/dynamite/internal/handler"
	"github.com/dukerupert/dynamite/internal/middleware"
	"github.com/dukerupert/dynamite/internal/service"
)

// SignatureHeader carries the provider's HMAC over the raw body.
const SignatureHeader = "Stripe-Signature"

// StripeHandler handles Stripe webhook events
type StripeHandler struct {
	payments service.PaymentService
}

// NewStripeHandler creates a new Stripe webhook handler
func NewStripeHandler(payments service.PaymentService) *StripeHandler {
	return &StripeHandler{payments: payments}
}

type ackResponse struct {
	Received bool `json:"received"`
}

// HandleWebhook handles POST /api/webhooks/stripe. The body must reach the
// verifier byte-for-byte, so it is read raw and never decoded here.
//
// A 2xx tells Stripe to stop retrying. Verification failures answer 400,
// storage failures 500 so the event is redelivered.
//
// Stripe CLI testing:
//
//	stripe listen --forward-to localhost:3000/api/webhooks/stripe
//	stripe trigger checkout.session.completed
func (h *StripeHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger := middleware.GetLogger(r.Context())

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			handler.ErrorResponse(w, r, domain.Errorf(domain.ETOOLARGE, "webhook.read", "Payload too large"))
			return
		}
		handler.ErrorResponse(w, r, domain.Invalid("webhook.read", "Failed to read request body"))
		return
	}

	signature := r.Header.Get(SignatureHeader)
	if signature == "" {
		logger.Warn("webhook rejected: missing signature header")
		handler.ErrorResponse(w, r, service.ErrInvalidSignature)
		return
	}

	if err := h.payments.HandleWebhook(r.Context(), body, signature); err != nil {
		if errors.Is(err, service.ErrInvalidSignature) {
			handler.ErrorResponse(w, r, service.ErrInvalidSignature)
			return
		}
		handler.ErrorResponse(w, r, err)
		return
	}

	logger.Debug("webhook processed", "duration_ms", time.Since(start).Milliseconds())
	handler.WriteJSON(w, http.StatusOK, ackResponse{Received: true})
}
