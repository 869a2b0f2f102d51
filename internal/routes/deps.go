package routes

import (
	"context"
	"net/http"

	"github.com/dukerupert/dynamite/internal/handler/storefront"
	"github.com/dukerupert/dynamite/internal/handler/webhook"
	"github.com/dukerupert/dynamite/internal/middleware"
)

// StorefrontDeps contains dependencies for storefront API routes
type StorefrontDeps struct {
	CartHandler     *storefront.CartHandler
	CheckoutHandler *storefront.CheckoutHandler
	OrdersHandler   *storefront.OrdersHandler

	// APILimiter applies to the whole /api tree, CheckoutLimiter only to
	// session creation. Either may be nil.
	APILimiter      *middleware.RateLimiter
	CheckoutLimiter *middleware.RateLimiter
}

// WebhookDeps contains dependencies for webhook routes
type WebhookDeps struct {
	StripeHandler *webhook.StripeHandler
}

// Pinger reports whether a backing store is reachable. *pgxpool.Pool
// satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsDeps contains dependencies for health and metrics routes
type OpsDeps struct {
	Database Pinger
	Metrics  http.Handler
}
