// Package storefront serves the JSON API used by the static storefront
// pages: cart, checkout and the success page order lookup.
package storefront

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dukerupert/dynamite/internal/handler"
	"github.com/dukerupert/dynamite/internal/service"
	"github.com/dukerupert/dynamite/internal/session"
)

// Sessions loads and persists the browser session. *session.Manager
// satisfies it.
type Sessions interface {
	Load(r *http.Request) (*session.Session, error)
	Save(w http.ResponseWriter, r *http.Request, s *session.Session) error
}

// CartHandler handles all cart-related storefront routes
type CartHandler struct {
	cartService service.CartService
	sessions    Sessions
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService service.CartService, sessions Sessions) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		sessions:    sessions,
	}
}

type addItemRequest struct {
	VariantID string `json:"variant_id" validate:"required,uuid"`
	// Quantity defaults to 1 when omitted.
	Quantity int `json:"quantity" validate:"gte=0,lte=99"`
}

type updateItemRequest struct {
	VariantID string `json:"variant_id" validate:"required,uuid"`
	Quantity  *int   `json:"quantity" validate:"required,gte=0,lte=99"`
}

type removeItemRequest struct {
	VariantID string `json:"variant_id" validate:"required,uuid"`
}

// View handles GET /api/cart. A visitor without a session gets an empty
// cart and no cookie.
func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Load(r)
	if err != nil {
		handler.InternalErrorResponse(w, r, err)
		return
	}

	view, err := h.cartService.Get(sess)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, view)
}

// Add handles POST /api/cart/add
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ValidationErrorResponse(w, r, err)
		return
	}

	sess, err := h.sessions.Load(r)
	if err != nil {
		handler.InternalErrorResponse(w, r, err)
		return
	}

	view, err := h.cartService.Add(r.Context(), sess, uuid.MustParse(req.VariantID), req.Quantity)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	h.saveAndRespond(w, r, sess, view)
}

// Update handles POST /api/cart/update. Quantity 0 removes the line.
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ValidationErrorResponse(w, r, err)
		return
	}

	sess, err := h.sessions.Load(r)
	if err != nil {
		handler.InternalErrorResponse(w, r, err)
		return
	}

	view, err := h.cartService.Update(r.Context(), sess, uuid.MustParse(req.VariantID), *req.Quantity)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	h.saveAndRespond(w, r, sess, view)
}

// Remove handles POST /api/cart/remove
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	var req removeItemRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ValidationErrorResponse(w, r, err)
		return
	}

	sess, err := h.sessions.Load(r)
	if err != nil {
		handler.InternalErrorResponse(w, r, err)
		return
	}

	view, err := h.cartService.Remove(sess, uuid.MustParse(req.VariantID))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	h.saveAndRespond(w, r, sess, view)
}

// Clear handles POST /api/cart/clear
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Load(r)
	if err != nil {
		handler.InternalErrorResponse(w, r, err)
		return
	}

	h.saveAndRespond(w, r, sess, h.cartService.Clear(sess))
}

func (h *CartHandler) saveAndRespond(w http.ResponseWriter, r *http.Request, sess *session.Session, view *service.CartView) {
	if err := h.sessions.Save(w, r, sess); err != nil {
		handler.InternalErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, view)
}
