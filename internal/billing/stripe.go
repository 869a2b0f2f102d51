package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/dynamite/internal/telemetry"
	"github.com/stripe/stripe-go/v83"
	checkoutsession "github.com/stripe/stripe-go/v83/checkout/session"
	"github.com/stripe/stripe-go/v83/webhook"
)

// StripeProvider implements Provider using Stripe hosted checkout.
type StripeProvider struct {
	sessions      checkoutsession.Client
	webhookSecret string
	logger        *slog.Logger
}

// NewStripeProvider creates a Stripe provider with its own backend so the
// configured timeout applies to every call.
func NewStripeProvider(cfg StripeConfig, logger *slog.Logger) (*StripeProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient: &http.Client{
			Timeout:   cfg.timeout(),
			Transport: &telemetry.HTTPTransport{},
		},
		MaxNetworkRetries: stripe.Int64(int64(cfg.MaxRetries)),
	})

	return &StripeProvider{
		sessions:      checkoutsession.Client{B: backend, Key: cfg.APIKey},
		webhookSecret: cfg.WebhookSecret,
		logger:        logger,
	}, nil
}

// CreateCheckoutSession creates a payment-mode hosted checkout.
func (s *StripeProvider) CreateCheckoutSession(ctx context.Context, params CreateCheckoutSessionParams) (*CheckoutSession, error) {
	if len(params.LineItems) == 0 {
		return nil, errors.New("billing: checkout session requires at least one line item")
	}

	sp := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
	}
	sp.Context = ctx
	for _, item := range params.LineItems {
		sp.LineItems = append(sp.LineItems, &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(item.PriceID),
			Quantity: stripe.Int64(item.Quantity),
		})
	}
	for k, v := range params.Metadata {
		sp.AddMetadata(k, v)
	}
	if params.IdempotencyKey != "" {
		sp.SetIdempotencyKey(params.IdempotencyKey)
	}

	start := time.Now()
	cs, err := s.sessions.New(sp)
	observeLatency("create_checkout_session", start)
	if err != nil {
		s.logger.Warn("stripe: create checkout session failed", "error", err, "idempotency_key", params.IdempotencyKey)
		return nil, wrapStripeError(err)
	}

	return fromStripeSession(cs), nil
}

// GetCheckoutSession retrieves a checkout session by id.
func (s *StripeProvider) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	if !strings.HasPrefix(sessionID, "cs_") {
		return nil, ErrCheckoutSessionNotFound
	}

	gp := &stripe.CheckoutSessionParams{}
	gp.Context = ctx

	start := time.Now()
	cs, err := s.sessions.Get(sessionID, gp)
	observeLatency("get_checkout_session", start)
	if err != nil {
		return nil, wrapStripeError(err)
	}

	return fromStripeSession(cs), nil
}

// ParseWebhookEvent verifies the Stripe-Signature header and decodes the
// event. Nothing in the payload is trusted until verification passes.
func (s *StripeProvider) ParseWebhookEvent(payload []byte, signature string) (*WebhookEvent, error) {
	return parseWebhookEvent(payload, signature, s.webhookSecret)
}

func parseWebhookEvent(payload []byte, signature, secret string) (*WebhookEvent, error) {
	if secret == "" || signature == "" {
		return nil, ErrInvalidWebhookSignature
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWebhookSignature, err)
	}

	out := &WebhookEvent{
		ID:   event.ID,
		Type: string(event.Type),
	}

	if strings.HasPrefix(out.Type, "checkout.session.") && event.Data != nil {
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return nil, fmt.Errorf("%w: decode checkout session: %v", ErrMalformedWebhookEvent, err)
		}
		out.Session = fromStripeSession(&cs)
	}

	return out, nil
}

func fromStripeSession(cs *stripe.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{
		ID:            cs.ID,
		URL:           cs.URL,
		Status:        string(cs.Status),
		PaymentStatus: string(cs.PaymentStatus),
		AmountTotal:   cs.AmountTotal,
		Metadata:      cs.Metadata,
	}
	if cs.PaymentIntent != nil {
		out.PaymentIntentID = cs.PaymentIntent.ID
	}
	switch {
	case cs.CustomerDetails != nil && cs.CustomerDetails.Email != "":
		out.CustomerEmail = cs.CustomerDetails.Email
	default:
		out.CustomerEmail = cs.CustomerEmail
	}
	return out
}

func observeLatency(operation string, start time.Time) {
	if telemetry.Business != nil {
		telemetry.Business.StripeAPILatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
