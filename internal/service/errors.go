package service

import (
	"github.com/dukerupert/dynamite/internal/domain"
)

// Session and cart errors - use domain.EINVALID unless noted
var (
	ErrSessionMissing   = domain.Reasonf(domain.EINVALID, "SESSION_MISSING", "Session is missing")
	ErrCartEmpty        = domain.Reasonf(domain.EINVALID, "CART_EMPTY", "Cart is empty")
	ErrInvalidQuantity  = domain.Reasonf(domain.EINVALID, "INVALID_QUANTITY", "Quantity must be between 1 and %d", domain.MaxItemQuantity)
	ErrVariantNotFound  = domain.Reasonf(domain.ENOTFOUND, "VARIANT_NOT_FOUND", "Product variant not found")
	ErrCartItemNotFound = domain.Reasonf(domain.ENOTFOUND, "CART_ITEM_NOT_FOUND", "Cart item not found")
)

// Checkout errors
var (
	ErrVariantMissing           = domain.Reasonf(domain.EINVALID, "VARIANT_MISSING", "A cart item has no variant")
	ErrVariantMismatch          = domain.Reasonf(domain.ECONFLICT, "VARIANT_MISMATCH", "Some items in your cart are no longer available")
	ErrInsufficientStock        = domain.Reasonf(domain.ECONFLICT, "INSUFFICIENT_STOCK", "Insufficient stock for one or more items")
	ErrInvalidAmount            = domain.Reasonf(domain.EINVALID, "INVALID_AMOUNT", "Amount must be a non-negative integer")
	ErrStripeSessionFailed      = domain.Reasonf(domain.EUPSTREAM, "STRIPE_SESSION_FAILED", "Payment system unavailable, please try again")
	ErrCheckoutProductMisconfig = domain.Reasonf(domain.EINVALID, "CHECKOUT_PRODUCT_MISCONFIG", "A product in your cart is misconfigured, please contact support")
)

// Payment and order errors
var (
	ErrSessionRefRequired = domain.Reasonf(domain.EINVALID, "SESSION_ID_REQUIRED", "session_id is required")
	ErrInvalidSignature   = domain.Reasonf(domain.EINVALID, "INVALID_SIGNATURE", "Invalid signature")
	ErrOrderNotFound      = domain.Reasonf(domain.ENOTFOUND, "ORDER_NOT_FOUND", "Order not found")
	ErrOrderNotPaid       = domain.Reasonf(domain.ECONFLICT, "ORDER_NOT_PAID", "Order has not been paid")
)
