package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of an order. Only pending -> paid is
// reachable through checkout and reconciliation; cancelled and refunded are
// set by back-office tooling.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRefunded  OrderStatus = "refunded"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// Order is the read model of an order header with its lines.
type Order struct {
	ID                 uuid.UUID   `json:"id"`
	SessionRef         string      `json:"-"`
	Status             OrderStatus `json:"status"`
	Total              int64       `json:"total"`
	CheckoutSessionRef string      `json:"stripe_session_id,omitempty"`
	PaymentIntentRef   string      `json:"stripe_payment_intent_id,omitempty"`
	CustomerEmail      string      `json:"customer_email,omitempty"`
	InvoiceNumber      string      `json:"invoice_number,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
	PaidAt             *time.Time  `json:"paid_at,omitempty"`
	Items              []OrderLine `json:"items"`
}

// OrderLine is immutable once written. UnitPrice is the variant price at
// the moment the order was created.
type OrderLine struct {
	ProductID    uuid.UUID `json:"product_id"`
	VariantID    uuid.UUID `json:"variant_id"`
	ProductName  string    `json:"product_name"`
	VariantLabel string    `json:"variant_label"`
	Quantity     int       `json:"quantity"`
	UnitPrice    int64     `json:"unit_price"`
	LineTotal    int64     `json:"line_total"`
}

// Payment transition sources.
const (
	PaymentSourceConfirm = "confirm"
	PaymentSourceWebhook = "webhook"
)

// OrderPaid is published once per order, by whichever call moved it from
// pending to paid.
type OrderPaid struct {
	OrderID        uuid.UUID
	RecipientEmail string
	Source         string
}

// Notifier receives OrderPaid events after the transition has committed.
// Implementations must not block the caller on delivery.
type Notifier interface {
	OrderPaid(ctx context.Context, event OrderPaid)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, event OrderPaid)

func (f NotifierFunc) OrderPaid(ctx context.Context, event OrderPaid) {
	f(ctx, event)
}
