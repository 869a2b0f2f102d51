package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for checkout and payment
// observability.
type BusinessMetrics struct {
	// Cart
	CartMutations *prometheus.CounterVec

	// Checkout
	CheckoutSessions *prometheus.CounterVec
	CheckoutFailures *prometheus.CounterVec
	OrderValue       prometheus.Histogram

	// Payment reconciliation
	PaymentTransitions *prometheus.CounterVec
	ReconcileMiss      *prometheus.CounterVec
	WebhookReceived    *prometheus.CounterVec

	// Invoices and notifications
	InvoicesIssued      prometheus.Counter
	NotificationsSent   *prometheus.CounterVec
	NotificationsFailed *prometheus.CounterVec

	// External API Performance
	StripeAPILatency *prometheus.HistogramVec
}

// NewBusinessMetrics creates and registers all business metrics
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	return NewBusinessMetricsWith(namespace, prometheus.DefaultRegisterer)
}

// NewBusinessMetricsWith registers the metrics on reg. Tests pass a fresh
// registry so repeated construction does not panic.
func NewBusinessMetricsWith(namespace string, reg prometheus.Registerer) *BusinessMetrics {
	subsystem := "business"
	f := promauto.With(reg)

	return &BusinessMetrics{
		CartMutations: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_mutations_total",
				Help:      "Cart changes by operation",
			},
			[]string{"operation"}, // add, update, remove, clear
		),

		CheckoutSessions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_sessions_total",
				Help:      "Checkout requests by outcome",
			},
			[]string{"outcome"}, // deduped, reused, regenerated, created
		),
		CheckoutFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_failures_total",
				Help:      "Checkout requests rejected, by reason",
			},
			[]string{"reason"},
		),
		OrderValue: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_value",
				Help:      "Total of newly created orders in whole currency units",
				Buckets:   []float64{500, 1000, 2500, 5000, 10000, 25000, 50000, 100000},
			},
		),

		PaymentTransitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_transitions_total",
				Help:      "Orders moved to paid, by the path that caused the transition",
			},
			[]string{"source"}, // confirm, webhook
		),
		ReconcileMiss: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "reconcile_miss_total",
				Help:      "Paid checkout sessions that matched no order",
			},
			[]string{"source"},
		),
		WebhookReceived: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhooks_received_total",
				Help:      "Verified webhook events by type",
			},
			[]string{"type"},
		),

		InvoicesIssued: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "invoices_issued_total",
				Help:      "Invoice numbers assigned to paid orders",
			},
		),
		NotificationsSent: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "notifications_sent_total",
				Help:      "Order notifications delivered",
			},
			[]string{"type"}, // order_confirmation
		),
		NotificationsFailed: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "notifications_failed_total",
				Help:      "Order notifications that failed or were dropped",
			},
			[]string{"type", "error_type"},
		),

		StripeAPILatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stripe_api_duration_seconds",
				Help:      "Stripe API call duration (helps differentiate app slowness from Stripe issues)",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"}, // create_checkout_session, get_checkout_session
		),
	}
}

// Global instance for easy access from handlers
var Business *BusinessMetrics

// InitBusinessMetrics initializes the global business metrics instance
func InitBusinessMetrics(namespace string) *BusinessMetrics {
	Business = NewBusinessMetrics(namespace)
	return Business
}
