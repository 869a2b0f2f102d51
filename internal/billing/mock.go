package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v83/webhook"
)

// MockProvider is a mock billing provider for testing.
// Simulates hosted checkout without calling Stripe API. Safe for concurrent use.
type MockProvider struct {
	// CreateCheckoutSessionFunc allows customizing session creation behavior
	CreateCheckoutSessionFunc func(ctx context.Context, params CreateCheckoutSessionParams) (*CheckoutSession, error)

	// GetCheckoutSessionFunc allows customizing session retrieval behavior
	GetCheckoutSessionFunc func(ctx context.Context, sessionID string) (*CheckoutSession, error)

	// WebhookSecret is used to verify signatures in ParseWebhookEvent and to
	// sign payloads built by SignedEvent.
	WebhookSecret string

	mu         sync.Mutex
	sessions   map[string]*CheckoutSession
	idempotent map[string]string
	created    []CreateCheckoutSessionParams
	callLog    []string
}

// NewMockProvider creates a new mock billing provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		WebhookSecret: "whsec_test_secret",
		sessions:      make(map[string]*CheckoutSession),
		idempotent:    make(map[string]string),
	}
}

// CreateCheckoutSession creates an open mock session. Repeating an
// idempotency key returns the session created first.
func (m *MockProvider) CreateCheckoutSession(ctx context.Context, params CreateCheckoutSessionParams) (*CheckoutSession, error) {
	m.log(fmt.Sprintf("CreateCheckoutSession(%s)", params.IdempotencyKey))

	if m.CreateCheckoutSessionFunc != nil {
		cs, err := m.CreateCheckoutSessionFunc(ctx, params)
		if err == nil && cs != nil {
			m.mu.Lock()
			m.sessions[cs.ID] = copySession(cs)
			m.created = append(m.created, params)
			m.mu.Unlock()
		}
		return cs, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.idempotent[params.IdempotencyKey]; ok && params.IdempotencyKey != "" {
		return copySession(m.sessions[id]), nil
	}

	id := "cs_test_" + uuid.New().String()
	cs := &CheckoutSession{
		ID:            id,
		URL:           "https://checkout.stripe.test/c/pay/" + id,
		Status:        SessionStatusOpen,
		PaymentStatus: PaymentStatusUnpaid,
		Metadata:      params.Metadata,
	}
	m.sessions[id] = cs
	m.created = append(m.created, params)
	if params.IdempotencyKey != "" {
		m.idempotent[params.IdempotencyKey] = id
	}

	return copySession(cs), nil
}

// GetCheckoutSession retrieves a mock session.
func (m *MockProvider) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	m.log(fmt.Sprintf("GetCheckoutSession(%s)", sessionID))

	if m.GetCheckoutSessionFunc != nil {
		return m.GetCheckoutSessionFunc(ctx, sessionID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cs, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrCheckoutSessionNotFound
	}
	return copySession(cs), nil
}

// ParseWebhookEvent verifies signatures with the real Stripe scheme using
// WebhookSecret.
func (m *MockProvider) ParseWebhookEvent(payload []byte, signature string) (*WebhookEvent, error) {
	m.log("ParseWebhookEvent")
	return parseWebhookEvent(payload, signature, m.WebhookSecret)
}

// Complete marks a session paid and closes its hosted page.
func (m *MockProvider) Complete(sessionID, paymentIntentID, email string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cs, ok := m.sessions[sessionID]; ok {
		cs.Status = SessionStatusComplete
		cs.PaymentStatus = PaymentStatusPaid
		cs.PaymentIntentID = paymentIntentID
		cs.CustomerEmail = email
		cs.URL = ""
	}
}

// Expire closes a session without payment.
func (m *MockProvider) Expire(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cs, ok := m.sessions[sessionID]; ok {
		cs.Status = SessionStatusExpired
		cs.URL = ""
	}
}

// Session returns a copy of the stored session, or nil.
func (m *MockProvider) Session(sessionID string) *CheckoutSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cs, ok := m.sessions[sessionID]; ok {
		return copySession(cs)
	}
	return nil
}

// Created returns the parameters of every successful create call.
func (m *MockProvider) Created() []CreateCheckoutSessionParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CreateCheckoutSessionParams(nil), m.created...)
}

// CallLog returns the method calls seen so far.
func (m *MockProvider) CallLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.callLog...)
}

// SignedEvent builds a Stripe event payload for cs and signs it with
// WebhookSecret. Returns the body and the Stripe-Signature header value.
func (m *MockProvider) SignedEvent(eventType string, cs *CheckoutSession) ([]byte, string) {
	payload := EventPayload(eventType, cs)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    m.WebhookSecret,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header
}

// EventPayload renders cs the way Stripe delivers checkout.session events.
func EventPayload(eventType string, cs *CheckoutSession) []byte {
	object := map[string]any{
		"id":             cs.ID,
		"object":         "checkout.session",
		"mode":           "payment",
		"status":         cs.Status,
		"payment_status": cs.PaymentStatus,
		"amount_total":   cs.AmountTotal,
		"metadata":       cs.Metadata,
	}
	if cs.PaymentIntentID != "" {
		object["payment_intent"] = cs.PaymentIntentID
	}
	if cs.CustomerEmail != "" {
		object["customer_details"] = map[string]any{"email": cs.CustomerEmail}
	}

	body, _ := json.Marshal(map[string]any{
		"id":          "evt_" + uuid.New().String(),
		"object":      "event",
		"type":        eventType,
		"api_version": "2025-01-27.acacia",
		"created":     time.Now().Unix(),
		"data":        map[string]any{"object": object},
	})
	return body
}

func (m *MockProvider) log(call string) {
	m.mu.Lock()
	m.callLog = append(m.callLog, call)
	m.mu.Unlock()
}

func copySession(cs *CheckoutSession) *CheckoutSession {
	if cs == nil {
		return nil
	}
	out := *cs
	if cs.Metadata != nil {
		out.Metadata = make(map[string]string, len(cs.Metadata))
		for k, v := range cs.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

var _ Provider = (*MockProvider)(nil)
var _ Provider = (*StripeProvider)(nil)
