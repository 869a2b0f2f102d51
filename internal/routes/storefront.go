package routes

import (
	"github.com/dukerupert/dynamite/internal/middleware"
	"github.com/dukerupert/dynamite/internal/router"
)

// RegisterStorefrontRoutes registers the JSON API used by the storefront
// pages. Handlers carry the session cookie themselves.
func RegisterStorefrontRoutes(r *router.Router, deps StorefrontDeps) {
	api := r.Group(
		middleware.MaxBodySize(),
		middleware.Timeout(),
	)
	if deps.APILimiter != nil {
		api = api.Group(deps.APILimiter.Middleware)
	}

	// Cart
	api.Get("/api/cart", deps.CartHandler.View)
	api.Post("/api/cart/add", deps.CartHandler.Add)
	api.Post("/api/cart/update", deps.CartHandler.Update)
	api.Post("/api/cart/remove", deps.CartHandler.Remove)
	api.Post("/api/cart/clear", deps.CartHandler.Clear)

	// Checkout
	var checkoutLimit []router.Middleware
	if deps.CheckoutLimiter != nil {
		checkoutLimit = append(checkoutLimit, deps.CheckoutLimiter.Middleware)
	}
	api.Post("/api/checkout/create-session", deps.CheckoutHandler.CreateSession, checkoutLimit...)
	api.Get("/api/checkout/confirm", deps.CheckoutHandler.Confirm)

	// Success page lookup
	api.Get("/api/orders/by-session/{ref}", deps.OrdersHandler.BySession)
}
