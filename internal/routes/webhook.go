package routes

import (
	"github.com/dukerupert/dynamite/internal/middleware"
	"github.com/dukerupert/dynamite/internal/router"
)

// RegisterWebhookRoutes registers all webhook routes.
//
// Webhook routes have no session or origin checks. The handler verifies
// the Stripe signature before doing anything else, and the route must be
// listed in the SameOrigin skip paths.
func RegisterWebhookRoutes(r *router.Router, deps WebhookDeps) {
	hooks := r.Group(
		middleware.MaxBodySize(middleware.WebhookMaxBodySize),
		middleware.Timeout(),
	)
	hooks.Post("/api/webhooks/stripe", deps.StripeHandler.HandleWebhook)
	// Provider-neutral alias for the same endpoint.
	hooks.Post("/api/webhooks/payment", deps.StripeHandler.HandleWebhook)
}
